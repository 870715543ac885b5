package bot

import (
	"fmt"

	"chicago/internal/domain"
)

// Agent is an autonomous player bound to a seat, used both for filled
// lobby seats and as a stand-in when a human seat times out.
type Agent struct {
	Name     string
	Seat     domain.Seat
	Strategy Brain
}

func NewAgent(seat domain.Seat, strategy Brain) *Agent {
	return &Agent{
		Name:     fmt.Sprintf("Robot %s", seat),
		Seat:     seat,
		Strategy: strategy,
	}
}

// Act decides the pending action for a seat. The seat may differ from
// the agent's own when the agent declares and plays dummy's cards.
func (a *Agent) Act(sess *domain.Session, seat domain.Seat) (Move, error) {
	switch sess.Phase {
	case domain.PhaseBidding:
		bid, err := a.Strategy.Bid(sess, seat)
		if err != nil {
			return Move{}, err
		}
		return Move{Bid: &bid}, nil
	case domain.PhasePlaying:
		card, err := a.Strategy.Play(sess, seat)
		if err != nil {
			return Move{}, err
		}
		return Move{Card: &card}, nil
	default:
		return Move{}, ErrNothingToDo
	}
}
