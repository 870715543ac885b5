package domain

import (
	"errors"
	"testing"
)

func pass(s Seat) Bid            { return Bid{Seat: s, Type: BidPass} }
func bid(s Seat, l int, st Strain) Bid { return Bid{Seat: s, Type: BidNormal, Level: l, Strain: st} }

func mustApply(t *testing.T, a *Auction, bids ...Bid) {
	t.Helper()
	for _, b := range bids {
		if err := a.Apply(b); err != nil {
			t.Fatalf("Apply(%+v): %v", b, err)
		}
	}
}

func TestAuctionTurnOrder(t *testing.T) {
	a := NewAuction(East)
	if a.Turn() != East {
		t.Fatalf("dealer opens, got %v", a.Turn())
	}
	mustApply(t, a, pass(East))
	if a.Turn() != South {
		t.Fatalf("turn after pass = %v, want south", a.Turn())
	}
	if err := a.Apply(bid(West, 1, StrainClubs)); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("out-of-turn bid: %v", err)
	}
}

func TestAuctionInsufficientBids(t *testing.T) {
	a := NewAuction(North)
	mustApply(t, a, bid(North, 1, StrainHearts))

	if err := a.Apply(bid(East, 1, StrainClubs)); !errors.Is(err, ErrInsufficientBid) {
		t.Fatalf("lower strain same level: %v", err)
	}
	if err := a.Apply(bid(East, 1, StrainHearts)); !errors.Is(err, ErrInsufficientBid) {
		t.Fatalf("equal bid: %v", err)
	}
	// 1NT outranks 1H, 2C outranks 1NT.
	mustApply(t, a, bid(East, 1, NoTrump), bid(South, 2, StrainClubs))
}

func TestAuctionDoublingRules(t *testing.T) {
	a := NewAuction(North)
	// No doubling before any normal bid.
	if err := a.Apply(Bid{Seat: North, Type: BidDouble}); !errors.Is(err, ErrDoubleNotAllowed) {
		t.Fatalf("double with no contract: %v", err)
	}
	mustApply(t, a, bid(North, 1, StrainSpades))
	// Partner cannot double own side's contract.
	mustApply(t, a, pass(East))
	if err := a.Apply(Bid{Seat: South, Type: BidDouble}); !errors.Is(err, ErrDoubleNotAllowed) {
		t.Fatalf("double of partner's contract: %v", err)
	}
	mustApply(t, a, pass(South), Bid{Seat: West, Type: BidDouble})
	// No doubling an already doubled contract.
	if err := a.Apply(Bid{Seat: North, Type: BidDouble}); !errors.Is(err, ErrDoubleNotAllowed) {
		t.Fatalf("double of doubled contract: %v", err)
	}
	// Only the contract side may redouble.
	mustApply(t, a, Bid{Seat: North, Type: BidRedouble})
	mustApply(t, a, pass(East), pass(South), pass(West))

	c, ok := a.Contract()
	if !ok {
		t.Fatalf("auction should produce a contract")
	}
	if c.Doubling != Redoubled || c.Level != 1 || c.Strain != StrainSpades {
		t.Fatalf("contract = %+v", c)
	}
}

func TestRedoubleRequiresOpposingDouble(t *testing.T) {
	a := NewAuction(North)
	mustApply(t, a, bid(North, 2, StrainDiamonds), pass(East))
	if err := a.Apply(Bid{Seat: South, Type: BidRedouble}); !errors.Is(err, ErrRedoubleNotAllowed) {
		t.Fatalf("redouble of undoubled contract: %v", err)
	}
}

func TestAuctionPassedOut(t *testing.T) {
	a := NewAuction(West)
	mustApply(t, a, pass(West), pass(North), pass(East))
	if a.Finished() {
		t.Fatalf("three passes should not end the auction")
	}
	mustApply(t, a, pass(South))
	if !a.Finished() || !a.PassedOut() {
		t.Fatalf("four opening passes should pass the deal out")
	}
	if _, ok := a.Contract(); ok {
		t.Fatalf("passed-out auction must not yield a contract")
	}
	if err := a.Apply(pass(West)); !errors.Is(err, ErrAuctionOver) {
		t.Fatalf("call after auction end: %v", err)
	}
}

func TestDeclarerIsFirstToNameStrain(t *testing.T) {
	// South raises North's spades; North named them first and declares.
	a := NewAuction(North)
	mustApply(t, a,
		bid(North, 1, StrainSpades),
		pass(East),
		bid(South, 3, StrainSpades),
		pass(West),
		bid(North, 4, StrainSpades),
		pass(East), pass(South), pass(West),
	)
	c, ok := a.Contract()
	if !ok {
		t.Fatalf("expected contract")
	}
	if c.Declarer != North || c.Level != 4 || c.Strain != StrainSpades {
		t.Fatalf("contract = %+v, want 4S by north", c)
	}
}

func TestDeclarerIgnoresOpponentStrain(t *testing.T) {
	// East also bid spades, but for the other side; declarer resolution
	// only looks at the contract side's bids.
	a := NewAuction(North)
	mustApply(t, a,
		bid(North, 1, StrainClubs),
		bid(East, 1, StrainSpades),
		bid(South, 2, StrainSpades),
		pass(West), pass(North),
		bid(East, 3, StrainHearts),
		bid(South, 3, StrainSpades),
		pass(West), pass(North), pass(East),
	)
	c, ok := a.Contract()
	if !ok {
		t.Fatalf("expected contract")
	}
	if c.Declarer != South {
		t.Fatalf("declarer = %v, want south", c.Declarer)
	}
}
