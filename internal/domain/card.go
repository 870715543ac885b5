package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Suit is one of the four card suits.
type Suit int

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

// Rank is a card rank, 2 through 14 with the ace high.
type Rank int

const (
	RankTwo Rank = 2
	RankTen Rank = 10
	Jack    Rank = 11
	Queen   Rank = 12
	King    Rank = 13
	Ace     Rank = 14
)

// Card is a single playing card. 52 distinct values exist.
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// Strain is a denomination that can be named in the auction. The ordinal
// order (clubs low, notrump high) is the bidding order.
type Strain int

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	NoTrump
)

// Seat identifies one of the four positions at the table in clockwise
// order.
type Seat int

const (
	North Seat = iota
	East
	South
	West
)

// Side is one of the two partnerships.
type Side int

const (
	NorthSouth Side = iota
	EastWest
)

var (
	suitLetters   = "CDHS"
	rankLetters   = "23456789TJQKA"
	seatNames     = [4]string{"north", "east", "south", "west"}
	strainNames   = [5]string{"clubs", "diamonds", "hearts", "spades", "notrump"}
	sideNames     = [2]string{"northsouth", "eastwest"}
	rankHCP       = map[Rank]int{Ace: 4, King: 3, Queen: 2, Jack: 1}
)

// Next returns the seat to the left (clockwise).
func (s Seat) Next() Seat { return (s + 1) % 4 }

// Partner returns the seat across the table.
func (s Seat) Partner() Seat { return (s + 2) % 4 }

// Side returns the partnership the seat belongs to.
func (s Seat) Side() Side {
	if s == North || s == South {
		return NorthSouth
	}
	return EastWest
}

func (s Seat) String() string { return seatNames[s] }

// ParseSeat converts a seat name ("north".."west") to a Seat.
func ParseSeat(name string) (Seat, error) {
	for i, n := range seatNames {
		if n == strings.ToLower(name) {
			return Seat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown seat %q", name)
}

// Opponent reports whether the other side holds the given side's opponents.
func (d Side) Opponent() Side { return 1 - d }

func (d Side) String() string { return sideNames[d] }

func (s Strain) String() string { return strainNames[s] }

// ParseStrain converts a strain name ("clubs".."notrump") to a Strain.
func ParseStrain(name string) (Strain, error) {
	for i, n := range strainNames {
		if n == strings.ToLower(name) {
			return Strain(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strain %q", name)
}

// TrumpSuit returns the trump suit for a suit strain, or false for notrump.
func (s Strain) TrumpSuit() (Suit, bool) {
	if s == NoTrump {
		return 0, false
	}
	return Suit(s), true
}

func (s Suit) String() string { return string(suitLetters[s]) }

func (r Rank) String() string { return string(rankLetters[r-2]) }

func (c Card) String() string { return c.Rank.String() + c.Suit.String() }

// ParseCard converts a two-letter card code like "AS" or "TD" back to a
// Card.
func ParseCard(code string) (Card, error) {
	if len(code) != 2 {
		return Card{}, fmt.Errorf("malformed card code %q", code)
	}
	r := strings.IndexByte(rankLetters, code[0])
	s := strings.IndexByte(suitLetters, code[1])
	if r < 0 || s < 0 {
		return Card{}, fmt.Errorf("malformed card code %q", code)
	}
	return Card{Suit: Suit(s), Rank: Rank(r + 2)}, nil
}

// Hand is a set of cards held by one seat.
type Hand []Card

// Contains reports whether the hand holds the given card.
func (h Hand) Contains(c Card) bool {
	for _, hc := range h {
		if hc == c {
			return true
		}
	}
	return false
}

// Remove returns a copy of the hand without the given card.
func (h Hand) Remove(c Card) Hand {
	out := make(Hand, 0, len(h))
	for _, hc := range h {
		if hc != c {
			out = append(out, hc)
		}
	}
	return out
}

// HasSuit reports whether the hand holds at least one card of the suit.
func (h Hand) HasSuit(s Suit) bool {
	for _, hc := range h {
		if hc.Suit == s {
			return true
		}
	}
	return false
}

// HighCardPoints returns the Milton Work point count of the hand.
func (h Hand) HighCardPoints() int {
	total := 0
	for _, c := range h {
		total += rankHCP[c.Rank]
	}
	return total
}

// SuitLengths returns the number of cards held per suit.
func (h Hand) SuitLengths() [4]int {
	var out [4]int
	for _, c := range h {
		out[c.Suit]++
	}
	return out
}

// Sort orders a hand by suit then descending rank, the order hands are
// displayed and exported in.
func (h Hand) Sort() {
	sort.Slice(h, func(i, j int) bool {
		if h[i].Suit != h[j].Suit {
			return h[i].Suit > h[j].Suit
		}
		return h[i].Rank > h[j].Rank
	})
}

// Strings renders the hand as two-letter card codes.
func (h Hand) Strings() []string {
	out := make([]string, len(h))
	for i, c := range h {
		out[i] = c.String()
	}
	return out
}

// ParseHand converts a list of two-letter card codes to a Hand.
func ParseHand(codes []string) (Hand, error) {
	out := make(Hand, 0, len(codes))
	for _, code := range codes {
		c, err := ParseCard(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

// NewDeck returns the full 52-card deck in canonical order.
func NewDeck() []Card {
	deck := make([]Card, 0, 52)
	for s := Clubs; s <= Spades; s++ {
		for r := RankTwo; r <= Ace; r++ {
			deck = append(deck, Card{Suit: s, Rank: r})
		}
	}
	return deck
}
