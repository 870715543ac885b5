package solver

import (
	"math/bits"

	"chicago/internal/domain"
)

// holding is one seat's remaining cards as per-suit rank masks; bit i of
// suit s is the card of rank i+2.
type holding [4]uint16

// handSet is the remaining cards of all four seats.
type handSet [4]holding

const noTrump = -1

func handSetFromDeal(d domain.Deal) handSet {
	var hs handSet
	for seat := domain.North; seat <= domain.West; seat++ {
		for _, c := range d[seat] {
			hs[seat][c.Suit] |= 1 << (c.Rank - 2)
		}
	}
	return hs
}

func (hs *handSet) count(seat domain.Seat) int {
	n := 0
	for s := 0; s < 4; s++ {
		n += bits.OnesCount16(hs[seat][s])
	}
	return n
}

// suitUnion returns every remaining card of a suit across all hands.
func (hs *handSet) suitUnion(suit int) uint16 {
	return hs[0][suit] | hs[1][suit] | hs[2][suit] | hs[3][suit]
}

// compress squashes each suit's remaining ranks down to a contiguous
// range, so positions that differ only by dead cards share one
// transposition key.
func (hs *handSet) compress() handSet {
	var out handSet
	for suit := 0; suit < 4; suit++ {
		all := hs.suitUnion(suit)
		j := 0
		for m := all; m != 0; m &= m - 1 {
			bit := m & -m
			for seat := 0; seat < 4; seat++ {
				if hs[seat][suit]&bit != 0 {
					out[seat][suit] |= 1 << j
				}
			}
			j++
		}
	}
	return out
}

// representatives filters a held suit mask down to one card per group of
// equivalent cards. Cards are equivalent when every rank between them is
// dead (absent from live, the union of held cards and cards in the
// current trick).
func representatives(held, live uint16) uint16 {
	var reps uint16
	prevHeld := false
	for b := 12; b >= 0; b-- {
		bit := uint16(1) << b
		if live&bit == 0 {
			continue
		}
		if held&bit != 0 {
			if !prevHeld {
				reps |= bit
			}
			prevHeld = true
		} else {
			prevHeld = false
		}
	}
	return reps
}

// move is a single card play in the search, identified by suit and rank
// bit index.
type move struct {
	suit int8
	rank int8 // bit index, rank-2
}

func (m move) bit() uint16 { return 1 << m.rank }
