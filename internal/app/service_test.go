package app

import (
	"errors"
	"testing"

	"chicago/internal/domain"
)

// testBoards deals the unshuffled deck, so north holds all clubs, east
// all diamonds, south all hearts and west all spades on every board.
func testBoards(t *testing.T, n int) []domain.Board {
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

func pass(seat domain.Seat) domain.Bid {
	return domain.Bid{Seat: seat, Type: domain.BidPass}
}

func kinds(evs []Event) []EventKind {
	out := make([]EventKind, len(evs))
	for i, ev := range evs {
		out[i] = ev.Kind
	}
	return out
}

func hasKind(evs []Event, kind EventKind) bool {
	for _, ev := range evs {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func TestStartSessionDealsHands(t *testing.T) {
	svc := NewService()
	sess, evs, err := svc.StartSession("s1", testBoards(t, 2))
	if err != nil {
		t.Fatalf("start session error: %v", err)
	}
	if sess.Phase != domain.PhaseBidding {
		t.Fatalf("phase = %s, want bidding", sess.Phase)
	}
	if sess.Auction.Dealer != domain.North {
		t.Fatalf("board 1 dealer = %s, want north", sess.Auction.Dealer)
	}

	handEvents := 0
	for _, ev := range evs {
		if ev.Kind != EventHandDealt {
			continue
		}
		handEvents++
		payload := ev.Payload.(HandDealtPayload)
		if len(payload.Hand) != 13 {
			t.Fatalf("hand size = %d, want 13", len(payload.Hand))
		}
		if len(ev.Recipients) != 1 || ev.Recipients[0] != payload.Seat {
			t.Fatalf("hand for %s targeted at %v", payload.Seat, ev.Recipients)
		}
	}
	if handEvents != 4 {
		t.Fatalf("hand events = %d, want 4", handEvents)
	}
	if evs[0].Kind != EventSessionStarted {
		t.Fatalf("first event = %s, want session started", evs[0].Kind)
	}
}

func TestStartSessionRejectsEmptyAndBrokenBoards(t *testing.T) {
	svc := NewService()
	if _, _, err := svc.StartSession("s1", nil); !errors.Is(err, ErrNoBoards) {
		t.Fatalf("got %v, want ErrNoBoards", err)
	}
	bad := testBoards(t, 1)
	bad[0].Deal[domain.North] = bad[0].Deal[domain.North][:12]
	if _, _, err := svc.StartSession("s1", bad); err == nil {
		t.Fatalf("expected invalid deal to be rejected")
	}
}

func TestPassedOutBoardAdvances(t *testing.T) {
	svc := NewService()
	sess, _, err := svc.StartSession("s1", testBoards(t, 2))
	if err != nil {
		t.Fatalf("start session error: %v", err)
	}

	var last []Event
	for _, seat := range []domain.Seat{domain.North, domain.East, domain.South, domain.West} {
		last, err = svc.PlaceBid(sess, pass(seat))
		if err != nil {
			t.Fatalf("pass by %s: %v", seat, err)
		}
	}

	if !hasKind(last, EventDealScored) {
		t.Fatalf("final pass events = %v, want a deal scored", kinds(last))
	}
	if sess.Index != 1 || sess.Phase != domain.PhaseBidding {
		t.Fatalf("session at board index %d phase %s, want next auction", sess.Index, sess.Phase)
	}
	if sess.Auction.Dealer != domain.East {
		t.Fatalf("board 2 dealer = %s, want east", sess.Auction.Dealer)
	}
	rec := sess.Records[0]
	if !rec.PassedOut || rec.Score != 0 || sess.NetScore != 0 {
		t.Fatalf("pass-out record = %+v, net = %d", rec, sess.NetScore)
	}
	if !hasKind(last, EventHandDealt) {
		t.Fatalf("next board hands not dealt: %v", kinds(last))
	}
}

func TestAuctionIntoPlay(t *testing.T) {
	svc := NewService()
	sess, _, err := svc.StartSession("s1", testBoards(t, 1))
	if err != nil {
		t.Fatalf("start session error: %v", err)
	}

	if _, err := svc.PlaceBid(sess, domain.Bid{Seat: domain.North, Type: domain.BidNormal, Level: 1, Strain: domain.StrainClubs}); err != nil {
		t.Fatalf("open 1C: %v", err)
	}
	var last []Event
	for _, seat := range []domain.Seat{domain.East, domain.South, domain.West} {
		last, err = svc.PlaceBid(sess, pass(seat))
		if err != nil {
			t.Fatalf("pass by %s: %v", seat, err)
		}
	}

	if sess.Phase != domain.PhasePlaying {
		t.Fatalf("phase = %s, want playing", sess.Phase)
	}
	if !hasKind(last, EventPlayStarted) {
		t.Fatalf("final pass events = %v, want play started", kinds(last))
	}
	for _, ev := range last {
		if ev.Kind != EventPlayStarted {
			continue
		}
		p := ev.Payload.(PlayStartedPayload)
		if p.Contract.Declarer != domain.North || p.Leader != domain.East || p.Dummy != domain.South {
			t.Fatalf("play started payload = %+v", p)
		}
	}
}

func TestOpeningLeadRevealsDummy(t *testing.T) {
	svc := NewService()
	sess := sessionInPlay(t, svc)

	evs, err := svc.PlayCard(sess, domain.East, domain.Card{Suit: domain.Diamonds, Rank: domain.RankTwo})
	if err != nil {
		t.Fatalf("opening lead: %v", err)
	}
	p := evs[0].Payload.(CardPlayedPayload)
	if len(p.DummyHand) != 13 {
		t.Fatalf("dummy hand has %d cards on the opening lead", len(p.DummyHand))
	}

	evs, err = svc.PlayCard(sess, domain.South, domain.Card{Suit: domain.Hearts, Rank: domain.RankTwo})
	if err != nil {
		t.Fatalf("second card: %v", err)
	}
	if p := evs[0].Payload.(CardPlayedPayload); p.DummyHand != nil {
		t.Fatalf("dummy hand repeated after the opening lead")
	}
}

func TestPlayOutScoresBoard(t *testing.T) {
	svc := NewService()
	sess := sessionInPlay(t, svc)

	evs := playOut(t, svc, sess)

	// North ruffs every trick at clubs: 1C plus six, not vulnerable.
	if !hasKind(evs, EventDealScored) || !hasKind(evs, EventSessionEnded) {
		t.Fatalf("play-out events = %v", kinds(evs))
	}
	if !sess.Complete() {
		t.Fatalf("session not complete after last board")
	}
	rec := sess.Records[0]
	if rec.TricksWon != 13 {
		t.Fatalf("declarer took %d tricks, want 13", rec.TricksWon)
	}
	if rec.Score != 190 || sess.NetScore != 190 {
		t.Fatalf("score = %d, net = %d, want 190", rec.Score, sess.NetScore)
	}
}

func TestRejectsOutOfPhaseAndIllegalActions(t *testing.T) {
	svc := NewService()
	sess, _, err := svc.StartSession("s1", testBoards(t, 1))
	if err != nil {
		t.Fatalf("start session error: %v", err)
	}

	if _, err := svc.PlayCard(sess, domain.North, domain.Card{Suit: domain.Clubs, Rank: domain.RankTwo}); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("play during auction: %v", err)
	}
	if _, err := svc.PlaceBid(sess, pass(domain.West)); !errors.Is(err, domain.ErrNotYourTurn) {
		t.Fatalf("out of turn bid: %v", err)
	}

	sess = sessionInPlay(t, svc)
	if _, err := svc.PlaceBid(sess, pass(domain.East)); !errors.Is(err, ErrWrongPhase) {
		t.Fatalf("bid during play: %v", err)
	}
	if _, err := svc.PlayCard(sess, domain.East, domain.Card{Suit: domain.Spades, Rank: domain.Ace}); !errors.Is(err, domain.ErrCardNotHeld) {
		t.Fatalf("card not held: %v", err)
	}
}

// sessionInPlay starts a one-board session and bids it to 1C by north,
// leaving east on lead.
func sessionInPlay(t *testing.T, svc *Service) *domain.Session {
	t.Helper()
	sess, _, err := svc.StartSession("s1", testBoards(t, 1))
	if err != nil {
		t.Fatalf("start session error: %v", err)
	}
	if _, err := svc.PlaceBid(sess, domain.Bid{Seat: domain.North, Type: domain.BidNormal, Level: 1, Strain: domain.StrainClubs}); err != nil {
		t.Fatalf("open 1C: %v", err)
	}
	for _, seat := range []domain.Seat{domain.East, domain.South, domain.West} {
		if _, err := svc.PlaceBid(sess, pass(seat)); err != nil {
			t.Fatalf("pass by %s: %v", seat, err)
		}
	}
	return sess
}

// playOut plays the first legal card for whichever seat is on turn until
// the board is scored.
func playOut(t *testing.T, svc *Service, sess *domain.Session) []Event {
	t.Helper()
	var all []Event
	for sess.Phase == domain.PhasePlaying {
		turn := sess.Play.Turn()
		hand := append(domain.Hand{}, sess.Play.Hand(turn)...)
		played := false
		for _, c := range hand {
			if sess.Play.Check(turn, c) != nil {
				continue
			}
			evs, err := svc.PlayCard(sess, turn, c)
			if err != nil {
				t.Fatalf("play %s by %s: %v", c, turn, err)
			}
			all = append(all, evs...)
			played = true
			break
		}
		if !played {
			t.Fatalf("%s has no legal card", turn)
		}
	}
	return all
}
