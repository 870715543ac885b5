// Package solver computes double-dummy trick tables for bridge deals:
// the tricks each declarer can take in each strain under perfect
// information and optimal play by all four hands.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math/bits"
	"time"

	"github.com/rs/zerolog/log"

	"chicago/internal/domain"
)

// Table is a double-dummy result: tricks for the declaring side, indexed
// by declarer seat and strain. Partners share full information of the
// same deal, so partnership-equivalent declarers agree per strain.
type Table [4][5]int

// Tricks returns the double-dummy trick count for a declarer and strain.
func (t Table) Tricks(declarer domain.Seat, strain domain.Strain) int {
	return t[declarer][strain]
}

// ErrNodeBudget is returned when a strain search exceeds its node
// budget. It signals an internal invariant violation, fatal to the
// calling operation: the search is designed to terminate for every legal
// deal well inside the budget.
var ErrNodeBudget = errors.New("solver node budget exceeded")

// Options tune a solve. Zero values select defaults.
type Options struct {
	NodeBudget int64 // per strain search
	TableSize  int   // max transposition entries per search
}

const (
	defaultNodeBudget = int64(200_000_000)
	defaultTableSize  = 1 << 21
	checkMask         = 1<<13 - 1
)

// Solve computes the full 20-entry double-dummy table for a deal. It is
// deterministic and a pure function of the deal.
func Solve(ctx context.Context, deal domain.Deal) (Table, error) {
	return SolveWithOptions(ctx, deal, Options{})
}

// SolveWithOptions is Solve with explicit search limits.
func SolveWithOptions(ctx context.Context, deal domain.Deal, opts Options) (Table, error) {
	var table Table
	if err := deal.Validate(); err != nil {
		return table, err
	}
	if opts.NodeBudget <= 0 {
		opts.NodeBudget = defaultNodeBudget
	}
	if opts.TableSize <= 0 {
		opts.TableSize = defaultTableSize
	}

	started := time.Now()
	var nodes int64
	// One search per partnership and strain, mirrored to the partner:
	// the opening lead sits left of the anchor declarer.
	for _, anchor := range []domain.Seat{domain.North, domain.East} {
		for strain := domain.StrainClubs; strain <= domain.NoTrump; strain++ {
			s := newSearcher(deal, anchor, strain, opts)
			v, err := s.run(ctx)
			if err != nil {
				return table, fmt.Errorf("declarer %s in %s: %w", anchor, strain, err)
			}
			if v < 0 || v > domain.HandSize {
				return table, fmt.Errorf("declarer %s in %s: tricks %d outside [0,13]", anchor, strain, v)
			}
			table[anchor][strain] = v
			table[anchor.Partner()][strain] = v
			nodes += s.nodes
		}
	}
	log.Debug().
		Int64("nodes", nodes).
		Dur("elapsed", time.Since(started)).
		Msg("double-dummy solve complete")
	return table, nil
}

type playRec struct {
	seat domain.Seat
	m    move
}

type undoRec struct {
	turn     domain.Seat
	trickLen int
	ledSuit  int8
	wonDecl  int
}

// searcher is one strain's game-tree search. It owns its transposition
// table and mutates a single position with make/unmake, so memory use is
// fixed and independent searchers can run in parallel.
type searcher struct {
	hands    handSet
	trump    int // suit index, or noTrump
	declSide domain.Side

	turn      domain.Seat
	trickLen  int
	ledSuit   int8
	trick     [4]playRec
	wonDecl   int
	cardsLeft int

	tt     *ttable
	ctx    context.Context
	nodes  int64
	budget int64
	err    error
}

func newSearcher(deal domain.Deal, declarer domain.Seat, strain domain.Strain, opts Options) *searcher {
	trump := noTrump
	if suit, ok := strain.TrumpSuit(); ok {
		trump = int(suit)
	}
	return &searcher{
		hands:     handSetFromDeal(deal),
		trump:     trump,
		declSide:  declarer.Side(),
		turn:      declarer.Next(),
		cardsLeft: 52,
		tt:        newTTable(opts.TableSize),
		budget:    opts.NodeBudget,
	}
}

func (s *searcher) run(ctx context.Context) (int, error) {
	s.ctx = ctx
	v := s.search(-1, domain.HandSize+1)
	if s.err != nil {
		return 0, s.err
	}
	return v, nil
}

// search returns the declaring side's final trick count from the current
// position with optimal play, within the fail-soft alpha-beta window.
func (s *searcher) search(alpha, beta int) int {
	s.nodes++
	if s.nodes&checkMask == 0 {
		if s.nodes > s.budget {
			s.err = ErrNodeBudget
			return 0
		}
		select {
		case <-s.ctx.Done():
			s.err = s.ctx.Err()
			return 0
		default:
		}
	}

	var key ttKey
	haveKey := false

	if s.trickLen == 0 {
		if s.cardsLeft == 0 {
			return s.wonDecl
		}
		rem := s.cardsLeft / 4
		if s.wonDecl >= beta {
			return s.wonDecl
		}
		if s.wonDecl+rem <= alpha {
			return s.wonDecl + rem
		}

		key = ttKey{hands: s.hands.compress(), leader: s.turn}
		haveKey = true
		if e, ok := s.tt.probe(key); ok {
			lo, hi := s.wonDecl+int(e.lo), s.wonDecl+int(e.hi)
			if lo >= beta {
				return lo
			}
			if hi <= alpha {
				return hi
			}
			if lo > alpha {
				alpha = lo
			}
			if hi < beta {
				beta = hi
			}
		}

		// Sure winners cashable by the hand on lead.
		qt := s.quickTricks()
		if s.turn.Side() == s.declSide {
			if lb := s.wonDecl + qt; lb >= beta {
				return lb
			} else if lb > alpha {
				alpha = lb
			}
		} else {
			if ub := s.wonDecl + rem - qt; ub <= alpha {
				return ub
			} else if ub < beta {
				beta = ub
			}
		}
	}

	var buf [13]move
	moves := s.legalMoves(buf[:0])

	var best int
	if s.turn.Side() == s.declSide {
		best = 0
		a := alpha
		for _, m := range moves {
			u := s.makeMove(m)
			v := s.search(a, beta)
			s.unmakeMove(m, u)
			if s.err != nil {
				return 0
			}
			if v > best {
				best = v
				if best > a {
					a = best
				}
				if a >= beta {
					break
				}
			}
		}
	} else {
		best = domain.HandSize + 1
		b := beta
		for _, m := range moves {
			u := s.makeMove(m)
			v := s.search(alpha, b)
			s.unmakeMove(m, u)
			if s.err != nil {
				return 0
			}
			if v < best {
				best = v
				if best < b {
					b = best
				}
				if alpha >= b {
					break
				}
			}
		}
	}

	if haveKey {
		s.storeBounds(key, best, alpha, beta)
	}
	return best
}

// storeBounds records the search outcome as trick bounds relative to the
// position, classified by the window the move loop ran with.
func (s *searcher) storeBounds(key ttKey, best, alpha, beta int) {
	rel := int8(best - s.wonDecl)
	lo, hi := int8(0), int8(s.cardsLeft/4)
	switch {
	case best <= alpha:
		hi = rel
	case best >= beta:
		lo = rel
	default:
		lo, hi = rel, rel
	}
	s.tt.store(key, lo, hi)
}

func (s *searcher) legalMoves(dst []move) []move {
	hand := &s.hands[s.turn]
	if s.trickLen > 0 && hand[s.ledSuit] != 0 {
		return s.suitMoves(dst, int(s.ledSuit))
	}
	for suit := 0; suit < 4; suit++ {
		if hand[suit] != 0 {
			dst = s.suitMoves(dst, suit)
		}
	}
	return dst
}

// suitMoves appends one representative per equivalence group of the
// suit, highest first.
func (s *searcher) suitMoves(dst []move, suit int) []move {
	live := s.hands.suitUnion(suit)
	for i := 0; i < s.trickLen; i++ {
		if int(s.trick[i].m.suit) == suit {
			live |= s.trick[i].m.bit()
		}
	}
	reps := representatives(s.hands[s.turn][suit], live)
	for m := reps; m != 0; {
		b := bits.Len16(m) - 1
		dst = append(dst, move{suit: int8(suit), rank: int8(b)})
		m &^= 1 << b
	}
	return dst
}

func (s *searcher) makeMove(m move) undoRec {
	u := undoRec{turn: s.turn, trickLen: s.trickLen, ledSuit: s.ledSuit, wonDecl: s.wonDecl}
	s.hands[s.turn][m.suit] &^= m.bit()
	s.trick[s.trickLen] = playRec{seat: s.turn, m: m}
	s.trickLen++
	s.cardsLeft--
	if s.trickLen == 1 {
		s.ledSuit = m.suit
	}
	if s.trickLen == 4 {
		w := s.trickWinner()
		if w.Side() == s.declSide {
			s.wonDecl++
		}
		s.turn = w
		s.trickLen = 0
	} else {
		s.turn = s.turn.Next()
	}
	return u
}

func (s *searcher) unmakeMove(m move, u undoRec) {
	s.turn = u.turn
	s.trickLen = u.trickLen
	s.ledSuit = u.ledSuit
	s.wonDecl = u.wonDecl
	s.cardsLeft++
	s.hands[u.turn][m.suit] |= m.bit()
}

func (s *searcher) trickWinner() domain.Seat {
	best := s.trick[0]
	for i := 1; i < 4; i++ {
		c := s.trick[i]
		if s.trump >= 0 && int(c.m.suit) == s.trump && int(best.m.suit) != s.trump {
			best = c
			continue
		}
		if c.m.suit == best.m.suit && c.m.rank > best.m.rank {
			best = c
		}
	}
	return best.seat
}

// quickTricks counts tricks the hand on lead can certainly cash at a
// trick boundary: consecutive top cards of each remaining suit, capped
// under a trump contract by each trump-holding opponent's ability to
// follow. A safe lower bound for the leading side.
func (s *searcher) quickTricks() int {
	lead := s.turn
	hand := &s.hands[lead]
	opps := [2]domain.Seat{lead.Next(), lead.Next().Partner()}
	total := 0
	for suit := 0; suit < 4; suit++ {
		if hand[suit] == 0 {
			continue
		}
		live := s.hands.suitUnion(suit)
		n := 0
		for m := live; m != 0; {
			b := uint16(1) << (bits.Len16(m) - 1)
			if hand[suit]&b == 0 {
				break
			}
			n++
			m &^= b
		}
		if n == 0 {
			continue
		}
		if s.trump >= 0 && suit != s.trump {
			for _, opp := range opps {
				if s.hands[opp][s.trump] != 0 {
					if l := bits.OnesCount16(s.hands[opp][suit]); l < n {
						n = l
					}
				}
			}
		}
		total += n
	}
	return total
}
