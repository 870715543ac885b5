package domain

import (
	"errors"
	"fmt"
)

// HandSize is the number of cards dealt to each seat.
const HandSize = 13

// Deal is a partition of the 52-card deck into four 13-card hands,
// indexed by seat.
type Deal [4]Hand

var errDealPartition = errors.New("deal is not a partition of the deck")

// DealFromDeck splits an already-shuffled 52-card deck into four hands in
// seat order.
func DealFromDeck(deck []Card) (Deal, error) {
	var d Deal
	if len(deck) != 4*HandSize {
		return d, fmt.Errorf("deck has %d cards, want %d", len(deck), 4*HandSize)
	}
	for seat := North; seat <= West; seat++ {
		h := make(Hand, HandSize)
		copy(h, deck[int(seat)*HandSize:(int(seat)+1)*HandSize])
		h.Sort()
		d[seat] = h
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}

// Validate checks the partition invariant: four hands of 13 whose union
// is the full deck with no duplicates.
func (d Deal) Validate() error {
	var seen [4][15]bool
	total := 0
	for seat := North; seat <= West; seat++ {
		if len(d[seat]) != HandSize {
			return fmt.Errorf("%w: %s holds %d cards", errDealPartition, seat, len(d[seat]))
		}
		for _, c := range d[seat] {
			if c.Suit < Clubs || c.Suit > Spades || c.Rank < RankTwo || c.Rank > Ace {
				return fmt.Errorf("%w: invalid card %+v", errDealPartition, c)
			}
			if seen[c.Suit][c.Rank] {
				return fmt.Errorf("%w: duplicate card %s", errDealPartition, c)
			}
			seen[c.Suit][c.Rank] = true
			total++
		}
	}
	if total != 52 {
		return fmt.Errorf("%w: %d cards", errDealPartition, total)
	}
	return nil
}

// Clone returns a deep copy of the deal.
func (d Deal) Clone() Deal {
	var out Deal
	for seat := North; seat <= West; seat++ {
		h := make(Hand, len(d[seat]))
		copy(h, d[seat])
		out[seat] = h
	}
	return out
}

// Export renders the deal as card codes per seat, for session records and
// the analyze RPC.
func (d Deal) Export() [4][]string {
	var out [4][]string
	for seat := North; seat <= West; seat++ {
		out[seat] = d[seat].Strings()
	}
	return out
}

// ImportDeal parses a four-hand card-code export back into a validated
// Deal.
func ImportDeal(hands [4][]string) (Deal, error) {
	var d Deal
	for seat := North; seat <= West; seat++ {
		h, err := ParseHand(hands[seat])
		if err != nil {
			return d, err
		}
		h.Sort()
		d[seat] = h
	}
	if err := d.Validate(); err != nil {
		return d, err
	}
	return d, nil
}
