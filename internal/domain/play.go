package domain

import "errors"

var (
	ErrPlayOver       = errors.New("all tricks have been played")
	ErrCardNotHeld    = errors.New("card is not in this seat's hand")
	ErrMustFollowSuit = errors.New("must follow the led suit")
)

// PlayedCard pairs a card with the seat that played it.
type PlayedCard struct {
	Seat Seat `json:"seat"`
	Card Card `json:"card"`
}

// TrickRecord is one completed trick.
type TrickRecord struct {
	Cards  [4]PlayedCard `json:"cards"`
	Winner Seat          `json:"winner"`
}

// Play drives the card-play phase of one deal: 13 tricks, opening lead
// at declarer's left, trick winner leads the next.
type Play struct {
	Contract Contract

	hands   [4]Hand
	turn    Seat
	current []PlayedCard
	tricks  [2]int // completed tricks per side
	History []TrickRecord
}

// NewPlay starts the play of a contract on a deal.
func NewPlay(deal Deal, contract Contract) *Play {
	d := deal.Clone()
	return &Play{
		Contract: contract,
		hands:    [4]Hand{d[North], d[East], d[South], d[West]},
		turn:     contract.Declarer.Next(),
		current:  make([]PlayedCard, 0, 4),
	}
}

// Turn returns the seat due to play next.
func (p *Play) Turn() Seat { return p.turn }

// Dummy returns declarer's partner.
func (p *Play) Dummy() Seat { return p.Contract.Declarer.Partner() }

// Hand returns the remaining cards of a seat.
func (p *Play) Hand(seat Seat) Hand { return p.hands[seat] }

// CurrentTrick returns the cards played to the trick in progress.
func (p *Play) CurrentTrick() []PlayedCard { return p.current }

// Done reports whether all 13 tricks have been played.
func (p *Play) Done() bool { return len(p.History) == HandSize }

// TricksFor returns the completed trick count of a side.
func (p *Play) TricksFor(s Side) int { return p.tricks[s] }

// Check validates a play without applying it: the seat must be on turn,
// hold the card, and follow the led suit when able.
func (p *Play) Check(seat Seat, card Card) error {
	if p.Done() {
		return ErrPlayOver
	}
	if seat != p.turn {
		return ErrNotYourTurn
	}
	if !p.hands[seat].Contains(card) {
		return ErrCardNotHeld
	}
	if len(p.current) > 0 {
		led := p.current[0].Card.Suit
		if card.Suit != led && p.hands[seat].HasSuit(led) {
			return ErrMustFollowSuit
		}
	}
	return nil
}

// PlayCard validates and applies a play. When the play completes a
// trick, the trick is resolved and returned, and its winner is on lead.
func (p *Play) PlayCard(seat Seat, card Card) (*TrickRecord, error) {
	if err := p.Check(seat, card); err != nil {
		return nil, err
	}
	p.hands[seat] = p.hands[seat].Remove(card)
	p.current = append(p.current, PlayedCard{Seat: seat, Card: card})

	if len(p.current) < 4 {
		p.turn = p.turn.Next()
		return nil, nil
	}

	rec := TrickRecord{Winner: p.trickWinner()}
	copy(rec.Cards[:], p.current)
	p.History = append(p.History, rec)
	p.tricks[rec.Winner.Side()]++
	p.current = p.current[:0]
	p.turn = rec.Winner
	return &rec, nil
}

// trickWinner resolves the trick in progress: highest trump wins, else
// the highest card of the led suit.
func (p *Play) trickWinner() Seat {
	trump, hasTrump := p.Contract.Strain.TrumpSuit()
	best := p.current[0]
	for _, pc := range p.current[1:] {
		if hasTrump && pc.Card.Suit == trump && best.Card.Suit != trump {
			best = pc
			continue
		}
		if pc.Card.Suit == best.Card.Suit && pc.Card.Rank > best.Card.Rank {
			best = pc
		}
	}
	return best.Seat
}
