package bot

import (
	"math/rand"
	"testing"

	"chicago/internal/app"
	"chicago/internal/domain"
)

// sortedBoards deals the unshuffled deck: north all clubs, east all
// diamonds, south all hearts, west all spades.
func sortedBoards(t *testing.T, n int) []domain.Board {
	t.Helper()
	boards := make([]domain.Board, n)
	for i := range boards {
		deal, err := domain.DealFromDeck(domain.NewDeck())
		if err != nil {
			t.Fatalf("DealFromDeck: %v", err)
		}
		boards[i] = domain.Board{Number: i + 1, Deal: deal, Rotation: domain.RotationForBoard(i + 1)}
	}
	return boards
}

func biddingSession(t *testing.T) *domain.Session {
	t.Helper()
	sess, _, err := app.NewService().StartSession("s1", sortedBoards(t, 1))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	return sess
}

func playingSession(t *testing.T) *domain.Session {
	t.Helper()
	svc := app.NewService()
	sess, _, err := svc.StartSession("s1", sortedBoards(t, 1))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if _, err := svc.PlaceBid(sess, domain.Bid{Seat: domain.North, Type: domain.BidNormal, Level: 1, Strain: domain.StrainClubs}); err != nil {
		t.Fatalf("open 1C: %v", err)
	}
	for _, seat := range []domain.Seat{domain.East, domain.South, domain.West} {
		if _, err := svc.PlaceBid(sess, domain.Bid{Seat: seat, Type: domain.BidPass}); err != nil {
			t.Fatalf("pass by %s: %v", seat, err)
		}
	}
	return sess
}

func TestRuleBrainBidsAreAlwaysLegal(t *testing.T) {
	brain := NewRuleBrain(rand.New(rand.NewSource(1)))
	sess := biddingSession(t)
	for !sess.Auction.Finished() {
		seat := sess.Auction.Turn()
		bid, err := brain.Bid(sess, seat)
		if err != nil {
			t.Fatalf("bid for %s: %v", seat, err)
		}
		if err := sess.Auction.Apply(bid); err != nil {
			t.Fatalf("brain produced illegal bid %+v: %v", bid, err)
		}
	}
}

func TestRuleBrainStopsAboveCap(t *testing.T) {
	brain := NewRuleBrain(rand.New(rand.NewSource(1)))
	brain.aggression = 1 // always wants to bid
	sess := biddingSession(t)
	if err := sess.Auction.Apply(domain.Bid{Seat: domain.North, Type: domain.BidNormal, Level: 4, Strain: domain.NoTrump}); err != nil {
		t.Fatalf("open 4NT: %v", err)
	}
	bid, err := brain.Bid(sess, domain.East)
	if err != nil {
		t.Fatalf("bid: %v", err)
	}
	if bid.Type != domain.BidPass {
		t.Fatalf("brain bid %+v over the level cap", bid)
	}
}

func TestRuleBrainFollowsSuitLow(t *testing.T) {
	brain := NewRuleBrain(rand.New(rand.NewSource(1)))
	sess := playingSession(t)

	// East leads a diamond; south is void and must discard, west too.
	card, err := brain.Play(sess, domain.East)
	if err != nil {
		t.Fatalf("east play: %v", err)
	}
	if card.Suit != domain.Diamonds || card.Rank != domain.RankTwo {
		t.Fatalf("east led %s, want the two of diamonds", card)
	}
	if _, err := sess.Play.PlayCard(domain.East, card); err != nil {
		t.Fatalf("apply lead: %v", err)
	}

	card, err = brain.Play(sess, domain.South)
	if err != nil {
		t.Fatalf("south play: %v", err)
	}
	if card.Suit != domain.Hearts || card.Rank != domain.RankTwo {
		t.Fatalf("south discarded %s, want the two of hearts", card)
	}
}

func TestAgentDrivesFullSession(t *testing.T) {
	svc := app.NewService()
	sess, _, err := svc.StartSession("s1", sortedBoards(t, 2))
	if err != nil {
		t.Fatalf("start session: %v", err)
	}

	rng := rand.New(rand.NewSource(7))
	agents := map[domain.Seat]*Agent{}
	for seat := domain.North; seat <= domain.West; seat++ {
		agents[seat] = NewAgent(seat, NewRuleBrain(rng))
	}

	// A board is at most 4 hand-dealt phases of bidding plus 52 cards;
	// anything past a generous cap means the bots are stuck.
	for steps := 0; !sess.Complete(); steps++ {
		if steps > 2000 {
			t.Fatalf("session did not finish, phase %s board %d", sess.Phase, sess.CurrentBoard().Number)
		}
		seat, ok := sess.Turn()
		if !ok {
			t.Fatalf("no seat on turn in phase %s", sess.Phase)
		}
		move, err := agents[seat].Act(sess, seat)
		if err != nil {
			t.Fatalf("agent %s: %v", seat, err)
		}
		switch {
		case move.Bid != nil:
			_, err = svc.PlaceBid(sess, *move.Bid)
		case move.Card != nil:
			_, err = svc.PlayCard(sess, seat, *move.Card)
		default:
			t.Fatalf("agent %s returned an empty move", seat)
		}
		if err != nil {
			t.Fatalf("apply move for %s: %v", seat, err)
		}
	}

	if len(sess.Records) != 2 {
		t.Fatalf("recorded %d boards, want 2", len(sess.Records))
	}
	for _, rec := range sess.Records {
		if !rec.PassedOut && (rec.TricksWon < 0 || rec.TricksWon > 13) {
			t.Fatalf("record %+v has impossible tricks", rec)
		}
	}
}
