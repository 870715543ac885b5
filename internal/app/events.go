package app

import "chicago/internal/domain"

// EventKind identifies emitted domain events for Nakama dispatch.
type EventKind string

const (
	EventSessionStarted EventKind = "session_started"
	EventHandDealt      EventKind = "hand_dealt"
	EventBidPlaced      EventKind = "bid_placed"
	EventPlayStarted    EventKind = "play_started"
	EventCardPlayed     EventKind = "card_played"
	EventTrickTaken     EventKind = "trick_taken"
	EventDealScored     EventKind = "deal_scored"
	EventSessionEnded   EventKind = "session_ended"
)

// Event is a domain/app event with optional targeted recipients. The
// transport layer resolves seats to connected users; empty means
// broadcast.
type Event struct {
	Kind       EventKind
	Payload    any
	Recipients []domain.Seat
}

type SessionStartedPayload struct {
	SessionID string `json:"session_id"`
	Boards    int    `json:"boards"`
}

// HandDealtPayload carries one seat's private cards for the board about
// to be bid.
type HandDealtPayload struct {
	Board         int                  `json:"board"`
	Seat          domain.Seat          `json:"seat"`
	Hand          []string             `json:"hand"`
	Dealer        domain.Seat          `json:"dealer"`
	Vulnerability domain.Vulnerability `json:"vulnerability"`
}

type BidPlacedPayload struct {
	Board    int         `json:"board"`
	Bid      domain.Bid  `json:"bid"`
	NextTurn domain.Seat `json:"next_turn"`
}

type PlayStartedPayload struct {
	Board    int             `json:"board"`
	Contract domain.Contract `json:"contract"`
	Leader   domain.Seat     `json:"leader"`
	Dummy    domain.Seat     `json:"dummy"`
}

// CardPlayedPayload announces a card. DummyHand is set only on the
// opening lead, when dummy's cards go face up.
type CardPlayedPayload struct {
	Board     int         `json:"board"`
	Seat      domain.Seat `json:"seat"`
	Card      string      `json:"card"`
	NextTurn  domain.Seat `json:"next_turn"`
	DummyHand []string    `json:"dummy_hand,omitempty"`
}

type TrickTakenPayload struct {
	Board    int                `json:"board"`
	Trick    domain.TrickRecord `json:"trick"`
	TricksNS int                `json:"tricks_ns"`
	TricksEW int                `json:"tricks_ew"`
}

type DealScoredPayload struct {
	Record   domain.DealRecord `json:"record"`
	NetScore int               `json:"net_score"`
}

type SessionEndedPayload struct {
	SessionID string              `json:"session_id"`
	NetScore  int                 `json:"net_score"`
	Records   []domain.DealRecord `json:"records"`
}
