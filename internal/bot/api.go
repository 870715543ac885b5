package bot

import (
	"errors"

	"chicago/internal/domain"
)

// Move is a single decision: exactly one of Bid or Card is set.
type Move struct {
	Bid  *domain.Bid
	Card *domain.Card
}

var (
	ErrNothingToDo   = errors.New("no action pending for this seat")
	ErrNoLegalAction = errors.New("no legal action found")
)

// Brain is the interface bot decision strategies implement. The seat
// passed in is the seat being played for, which during card play may be
// dummy when the strategy controls the declarer.
type Brain interface {
	Bid(sess *domain.Session, seat domain.Seat) (domain.Bid, error)
	Play(sess *domain.Session, seat domain.Seat) (domain.Card, error)
}
