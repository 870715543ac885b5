package app

import (
	"errors"

	"chicago/internal/domain"
	"chicago/internal/scoring"
)

// Service contains the session use-cases operating on domain state. It
// is stateless; callers own the Session and serialize access to it.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

var (
	ErrNoBoards   = errors.New("session has no boards")
	ErrWrongPhase = errors.New("action not valid in current phase")
)

// StartSession binds pre-generated boards to a fresh session and opens
// the first board's auction.
func (s *Service) StartSession(id string, boards []domain.Board) (*domain.Session, []Event, error) {
	if len(boards) == 0 {
		return nil, nil, ErrNoBoards
	}
	for _, b := range boards {
		if err := b.Deal.Validate(); err != nil {
			return nil, nil, err
		}
	}

	sess := &domain.Session{
		ID:     id,
		Boards: boards,
		Phase:  domain.PhaseDealing,
	}
	events := []Event{{
		Kind:    EventSessionStarted,
		Payload: SessionStartedPayload{SessionID: sess.ID, Boards: len(boards)},
	}}
	events = append(events, s.openBoard(sess)...)
	return sess, events, nil
}

// PlaceBid applies one call to the current auction. When the auction
// ends it either opens the play or, on a pass-out, scores the board and
// moves on.
func (s *Service) PlaceBid(sess *domain.Session, bid domain.Bid) ([]Event, error) {
	if sess.Phase != domain.PhaseBidding {
		return nil, ErrWrongPhase
	}
	if err := sess.Auction.Apply(bid); err != nil {
		return nil, err
	}

	events := []Event{{
		Kind: EventBidPlaced,
		Payload: BidPlacedPayload{
			Board:    sess.CurrentBoard().Number,
			Bid:      bid,
			NextTurn: sess.Auction.Turn(),
		},
	}}

	if !sess.Auction.Finished() {
		return events, nil
	}
	if sess.Auction.PassedOut() {
		return append(events, s.scoreBoard(sess, nil, 0)...), nil
	}

	contract, _ := sess.Auction.Contract()
	sess.Play = domain.NewPlay(sess.CurrentBoard().Deal, contract)
	sess.Phase = domain.PhasePlaying
	return append(events, Event{
		Kind: EventPlayStarted,
		Payload: PlayStartedPayload{
			Board:    sess.CurrentBoard().Number,
			Contract: contract,
			Leader:   sess.Play.Turn(),
			Dummy:    sess.Play.Dummy(),
		},
	}), nil
}

// PlayCard applies one card to the current trick. Completed tricks and
// the final scored deal are announced as further events.
func (s *Service) PlayCard(sess *domain.Session, seat domain.Seat, card domain.Card) ([]Event, error) {
	if sess.Phase != domain.PhasePlaying {
		return nil, ErrWrongPhase
	}
	play := sess.Play
	openingLead := len(play.History) == 0 && len(play.CurrentTrick()) == 0

	rec, err := play.PlayCard(seat, card)
	if err != nil {
		return nil, err
	}

	played := CardPlayedPayload{
		Board:    sess.CurrentBoard().Number,
		Seat:     seat,
		Card:     card.String(),
		NextTurn: play.Turn(),
	}
	if openingLead {
		played.DummyHand = play.Hand(play.Dummy()).Strings()
	}
	events := []Event{{Kind: EventCardPlayed, Payload: played}}

	if rec != nil {
		events = append(events, Event{
			Kind: EventTrickTaken,
			Payload: TrickTakenPayload{
				Board:    sess.CurrentBoard().Number,
				Trick:    *rec,
				TricksNS: play.TricksFor(domain.NorthSouth),
				TricksEW: play.TricksFor(domain.EastWest),
			},
		})
	}
	if play.Done() {
		contract := play.Contract
		tricks := play.TricksFor(contract.Side())
		events = append(events, s.scoreBoard(sess, &contract, tricks)...)
	}
	return events, nil
}

// openBoard deals the current board: private hands out, auction open.
func (s *Service) openBoard(sess *domain.Session) []Event {
	board := sess.CurrentBoard()
	sess.Auction = domain.NewAuction(board.Rotation.Dealer)
	sess.Play = nil
	sess.Phase = domain.PhaseBidding

	events := make([]Event, 0, 4)
	for seat := domain.North; seat <= domain.West; seat++ {
		events = append(events, Event{
			Kind: EventHandDealt,
			Payload: HandDealtPayload{
				Board:         board.Number,
				Seat:          seat,
				Hand:          board.Deal[seat].Strings(),
				Dealer:        board.Rotation.Dealer,
				Vulnerability: board.Rotation.Vulnerability,
			},
			Recipients: []domain.Seat{seat},
		})
	}
	return events
}

// scoreBoard records the finished board and advances the session. A nil
// contract records a pass-out for zero.
func (s *Service) scoreBoard(sess *domain.Session, contract *domain.Contract, tricks int) []Event {
	board := sess.CurrentBoard()
	record := domain.DealRecord{
		Number:    board.Number,
		Rotation:  board.Rotation,
		Hands:     board.Deal.Export(),
		PassedOut: contract == nil,
		Contract:  contract,
		TricksWon: tricks,
	}
	if contract != nil {
		record.Score = scoring.Net(*contract, board.Rotation.Vulnerability, tricks)
	}
	sess.Records = append(sess.Records, record)
	sess.NetScore += record.Score

	events := []Event{{
		Kind:    EventDealScored,
		Payload: DealScoredPayload{Record: record, NetScore: sess.NetScore},
	}}

	sess.Index++
	if sess.Index >= sess.Length() {
		sess.Index = sess.Length() - 1
		sess.Phase = domain.PhaseComplete
		sess.Auction = nil
		sess.Play = nil
		return append(events, Event{
			Kind: EventSessionEnded,
			Payload: SessionEndedPayload{
				SessionID: sess.ID,
				NetScore:  sess.NetScore,
				Records:   sess.Records,
			},
		})
	}
	return append(events, s.openBoard(sess)...)
}
