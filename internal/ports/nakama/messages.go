package nakama

import (
	"fmt"

	"chicago/internal/domain"
)

// Wire messages are JSON. Cards travel as two-letter codes ("AS", "TD"),
// seats and strains by name.

// MatchLabel is the indexed match listing label.
type MatchLabel struct {
	Open  int    `json:"open"`
	Phase string `json:"phase"` // "lobby" or "playing"
}

// SeatInfo describes one seat in seat updates and snapshots.
type SeatInfo struct {
	Seat        string `json:"seat"`
	UserID      string `json:"user_id,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	Bot         bool   `json:"bot,omitempty"`
	Connected   bool   `json:"connected"`
}

// SeatUpdateMsg is broadcast whenever the seating or session status
// changes.
type SeatUpdateMsg struct {
	Seats     [4]SeatInfo `json:"seats"`
	HostSeat  string      `json:"host_seat,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
	Boards    int         `json:"boards,omitempty"`
	Phase     string      `json:"phase"`
}

// StateSnapshotMsg is the private full-state projection sent to a seat
// on join and rejoin. Only the recipient's own hand is included; dummy
// is exposed once the opening lead is down.
type StateSnapshotMsg struct {
	Seats    [4]SeatInfo `json:"seats"`
	HostSeat string      `json:"host_seat,omitempty"`
	Phase    string      `json:"phase"`

	SessionID     string               `json:"session_id,omitempty"`
	Board         int                  `json:"board,omitempty"`
	Dealer        string               `json:"dealer,omitempty"`
	Vulnerability string               `json:"vulnerability,omitempty"`
	Seat          string               `json:"seat,omitempty"`
	Hand          []string             `json:"hand,omitempty"`
	Auction       []domain.Bid         `json:"auction,omitempty"`
	Contract      *domain.Contract     `json:"contract,omitempty"`
	DummySeat     string               `json:"dummy_seat,omitempty"`
	DummyHand     []string             `json:"dummy_hand,omitempty"`
	CurrentTrick  []domain.PlayedCard  `json:"current_trick,omitempty"`
	TricksNS      int                  `json:"tricks_ns"`
	TricksEW      int                  `json:"tricks_ew"`
	Records       []domain.DealRecord  `json:"records,omitempty"`
	NetScore      int                  `json:"net_score"`
	Turn          string               `json:"turn,omitempty"`
	RejoinToken   string               `json:"rejoin_token,omitempty"`
}

// BidIntentMsg is a client's auction call.
type BidIntentMsg struct {
	Call   string `json:"call"` // "pass", "bid", "double", "redouble"
	Level  int    `json:"level,omitempty"`
	Strain string `json:"strain,omitempty"`
}

// Bid resolves the intent into a domain call for the given seat.
func (m BidIntentMsg) Bid(seat domain.Seat) (domain.Bid, error) {
	switch m.Call {
	case "pass":
		return domain.Bid{Seat: seat, Type: domain.BidPass}, nil
	case "double":
		return domain.Bid{Seat: seat, Type: domain.BidDouble}, nil
	case "redouble":
		return domain.Bid{Seat: seat, Type: domain.BidRedouble}, nil
	case "bid":
		strain, err := domain.ParseStrain(m.Strain)
		if err != nil {
			return domain.Bid{}, err
		}
		return domain.Bid{Seat: seat, Type: domain.BidNormal, Level: m.Level, Strain: strain}, nil
	default:
		return domain.Bid{}, fmt.Errorf("unknown call %q", m.Call)
	}
}

// PlayIntentMsg is a client's card play. Seat is optional and only
// honored when the sender controls that seat (declarer playing dummy).
type PlayIntentMsg struct {
	Card string `json:"card"`
	Seat string `json:"seat,omitempty"`
}

// RejectedMsg is sent privately when an intent cannot be applied.
type RejectedMsg struct {
	OpCode int64  `json:"op_code"`
	Reason string `json:"reason"`
}

// AnalyzeRequest is the payload of the analyze RPC: a full deal as
// exported card codes in seat order north, east, south, west.
type AnalyzeRequest struct {
	Hands [4][]string `json:"hands"`
}

// AnalyzeResponse is the double-dummy table, tricks by declarer seat
// name then strain name.
type AnalyzeResponse struct {
	Tricks map[string]map[string]int `json:"tricks"`
}

// RejoinTokenRequest is the payload of the rejoin_token RPC.
type RejoinTokenRequest struct {
	MatchID string `json:"match_id"`
	Seat    string `json:"seat"`
}

type RejoinTokenResponse struct {
	Token string `json:"token"`
}

// QuickMatchResponse is the payload returned to clients when requesting a lobby-capable match.
type QuickMatchResponse struct {
	MatchID string `json:"match_id"`
	IsNew   bool   `json:"is_new"`
}
