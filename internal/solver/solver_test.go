package solver

import (
	"context"
	"errors"
	"testing"

	"chicago/internal/domain"
)

// suitPerSeatDeal assigns each seat one complete suit.
func suitPerSeatDeal(t *testing.T, suits [4]domain.Suit) domain.Deal {
	t.Helper()
	var d domain.Deal
	for seat := domain.North; seat <= domain.West; seat++ {
		h := make(domain.Hand, 0, domain.HandSize)
		for r := domain.RankTwo; r <= domain.Ace; r++ {
			h = append(h, domain.Card{Suit: suits[seat], Rank: r})
		}
		d[seat] = h
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("bad test deal: %v", err)
	}
	return d
}

// topCardsDeal gives north the ace, king and queen of every suit plus
// the spade jack; the remaining cards go round-robin to the others.
func topCardsDeal(t *testing.T) domain.Deal {
	t.Helper()
	var d domain.Deal
	north := domain.Hand{}
	rest := []domain.Card{}
	for _, c := range domain.NewDeck() {
		switch {
		case c.Rank >= domain.Queen:
			north = append(north, c)
		case c.Rank == domain.Jack && c.Suit == domain.Spades:
			north = append(north, c)
		default:
			rest = append(rest, c)
		}
	}
	d[domain.North] = north
	others := []domain.Seat{domain.East, domain.South, domain.West}
	for i, c := range rest {
		seat := others[i%3]
		d[seat] = append(d[seat], c)
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("bad test deal: %v", err)
	}
	return d
}

func TestSolveOneSuitPerSeat(t *testing.T) {
	// North holds all spades, east all hearts, south all diamonds, west
	// all clubs. Whoever holds the trump suit (or, at notrump, the
	// opening leader's suit) runs every trick.
	deal := suitPerSeatDeal(t, [4]domain.Suit{domain.Spades, domain.Hearts, domain.Diamonds, domain.Clubs})
	table, err := Solve(context.Background(), deal)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}

	want := map[domain.Strain][2]int{ // [NS tricks, EW tricks]
		domain.StrainClubs:    {0, 13},
		domain.StrainDiamonds: {13, 0},
		domain.StrainHearts:   {0, 13},
		domain.StrainSpades:   {13, 0},
		domain.NoTrump:        {0, 0},
	}
	for strain, w := range want {
		if got := table.Tricks(domain.North, strain); got != w[0] {
			t.Errorf("north declaring %s: got %d, want %d", strain, got, w[0])
		}
		if got := table.Tricks(domain.East, strain); got != w[1] {
			t.Errorf("east declaring %s: got %d, want %d", strain, got, w[1])
		}
	}
}

func TestSolveRotatedSuits(t *testing.T) {
	// Same construction with suits rotated one seat; east's spades win
	// everything at spades, north's clubs at clubs.
	deal := suitPerSeatDeal(t, [4]domain.Suit{domain.Clubs, domain.Spades, domain.Hearts, domain.Diamonds})
	table, err := Solve(context.Background(), deal)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if got := table.Tricks(domain.East, domain.StrainSpades); got != 13 {
		t.Errorf("east declaring spades: got %d, want 13", got)
	}
	if got := table.Tricks(domain.North, domain.StrainClubs); got != 13 {
		t.Errorf("north declaring clubs: got %d, want 13", got)
	}
	if got := table.Tricks(domain.North, domain.StrainSpades); got != 0 {
		t.Errorf("north declaring spades: got %d, want 0", got)
	}
}

func TestSolveTopCardsNoTrump(t *testing.T) {
	deal := topCardsDeal(t)
	table, err := Solve(context.Background(), deal)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	// North's hand is thirteen master cards: north-south take every
	// notrump trick whichever side declares.
	if got := table.Tricks(domain.North, domain.NoTrump); got != 13 {
		t.Errorf("north declaring notrump: got %d, want 13", got)
	}
	if got := table.Tricks(domain.East, domain.NoTrump); got != 0 {
		t.Errorf("east declaring notrump: got %d, want 0", got)
	}
}

func TestSolveRangeAndPartnershipSymmetry(t *testing.T) {
	deal := topCardsDeal(t)
	table, err := Solve(context.Background(), deal)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	for seat := domain.North; seat <= domain.West; seat++ {
		for strain := domain.StrainClubs; strain <= domain.NoTrump; strain++ {
			v := table.Tricks(seat, strain)
			if v < 0 || v > 13 {
				t.Errorf("%s in %s: %d outside [0,13]", seat, strain, v)
			}
			if p := table.Tricks(seat.Partner(), strain); p != v {
				t.Errorf("%s/%s disagree in %s: %d vs %d", seat, seat.Partner(), strain, v, p)
			}
		}
	}
}

func TestSolveDeterministic(t *testing.T) {
	deal := suitPerSeatDeal(t, [4]domain.Suit{domain.Spades, domain.Hearts, domain.Diamonds, domain.Clubs})
	first, err := Solve(context.Background(), deal)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	second, err := Solve(context.Background(), deal)
	if err != nil {
		t.Fatalf("Solve: %v", err)
	}
	if first != second {
		t.Errorf("solver is not deterministic: %v vs %v", first, second)
	}
}

func TestSolveRejectsInvalidDeal(t *testing.T) {
	var d domain.Deal // empty hands
	if _, err := Solve(context.Background(), d); err == nil {
		t.Fatalf("expected invalid deal to be rejected")
	}
}

func TestSolveNodeBudget(t *testing.T) {
	// Round-robin dealt deck: maximally entangled hands blow through a
	// tiny budget before any strain finishes.
	deck := domain.NewDeck()
	var interleaved []domain.Card
	for off := 0; off < 4; off++ {
		for i := off; i < len(deck); i += 4 {
			interleaved = append(interleaved, deck[i])
		}
	}
	deal, err := domain.DealFromDeck(interleaved)
	if err != nil {
		t.Fatalf("DealFromDeck: %v", err)
	}
	_, err = SolveWithOptions(context.Background(), deal, Options{NodeBudget: 100})
	if !errors.Is(err, ErrNodeBudget) {
		t.Fatalf("got %v, want ErrNodeBudget", err)
	}
}

func TestRepresentatives(t *testing.T) {
	tests := []struct {
		name string
		held uint16
		live uint16
		want uint16
	}{
		{"contiguous run collapses", 0b0000011100000000, 0b0000011111111111, 0b0000010000000000},
		{"gap splits groups", 0b0000010100000000, 0b0000011100000000, 0b0000010100000000},
		{"dead card bridges", 0b0000010100000000, 0b0000010111111111, 0b0000010000000000},
		{"nothing held", 0, 0b1111111111111, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := representatives(tt.held, tt.live); got != tt.want {
				t.Errorf("representatives(%013b, %013b) = %013b, want %013b", tt.held, tt.live, got, tt.want)
			}
		})
	}
}

func TestCompressNormalizesDeadRanks(t *testing.T) {
	var a, b handSet
	// Same relative order, different absolute ranks, must share a key.
	a[0][0] = 0b101  // ranks 2 and 4
	a[1][0] = 0b010  // rank 3
	b[0][0] = 0b1010 // ranks 3 and 5
	b[1][0] = 0b0100 // rank 4
	if a.compress() != b.compress() {
		t.Errorf("compress: %v vs %v", a.compress(), b.compress())
	}
}

func TestHandSetCountTracksRemovals(t *testing.T) {
	deal := suitPerSeatDeal(t, [4]domain.Suit{domain.Spades, domain.Hearts, domain.Diamonds, domain.Clubs})
	hs := handSetFromDeal(deal)
	for seat := domain.North; seat <= domain.West; seat++ {
		if got := hs.count(seat); got != domain.HandSize {
			t.Errorf("%s holds %d cards, want %d", seat, got, domain.HandSize)
		}
	}

	// A played card only changes the player's count.
	hs[domain.North][domain.Spades] &^= 1 << (domain.Ace - 2)
	if got := hs.count(domain.North); got != domain.HandSize-1 {
		t.Errorf("north holds %d cards after a play, want %d", got, domain.HandSize-1)
	}
	if got := hs.count(domain.East); got != domain.HandSize {
		t.Errorf("east holds %d cards, want %d", got, domain.HandSize)
	}
}
