package bot

import (
	"math/rand"
	"time"

	"chicago/internal/domain"
)

// maxBidLevel caps how high a rule bot competes in the auction.
const maxBidLevel = 4

// RuleBrain is a simple stand-in strategy: it bids the cheapest
// sufficient contract some of the time and otherwise passes, follows
// suit with its lowest card, and discards its lowest card when void.
type RuleBrain struct {
	rng        *rand.Rand
	aggression float64 // probability of bidding over passing
}

// NewRuleBrain constructs a RuleBrain with the provided rng or a
// time-seeded default.
func NewRuleBrain(rng *rand.Rand) *RuleBrain {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &RuleBrain{rng: rng, aggression: 0.5}
}

func (b *RuleBrain) Bid(sess *domain.Session, seat domain.Seat) (domain.Bid, error) {
	pass := domain.Bid{Seat: seat, Type: domain.BidPass}
	if sess.Phase != domain.PhaseBidding {
		return pass, ErrNothingToDo
	}
	if b.rng.Float64() >= b.aggression {
		return pass, nil
	}
	for level := 1; level <= maxBidLevel; level++ {
		for strain := domain.StrainClubs; strain <= domain.NoTrump; strain++ {
			bid := domain.Bid{Seat: seat, Type: domain.BidNormal, Level: level, Strain: strain}
			if sess.Auction.Check(bid) == nil {
				return bid, nil
			}
		}
	}
	return pass, nil
}

func (b *RuleBrain) Play(sess *domain.Session, seat domain.Seat) (domain.Card, error) {
	if sess.Phase != domain.PhasePlaying {
		return domain.Card{}, ErrNothingToDo
	}
	play := sess.Play
	var chosen *domain.Card
	for _, c := range play.Hand(seat) {
		c := c
		if play.Check(seat, c) != nil {
			continue
		}
		if chosen == nil || c.Rank < chosen.Rank {
			chosen = &c
		}
	}
	if chosen == nil {
		return domain.Card{}, ErrNoLegalAction
	}
	return *chosen, nil
}
