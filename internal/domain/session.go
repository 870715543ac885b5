package domain

// SessionPhase is the lifecycle stage of the current deal within a
// session.
type SessionPhase string

const (
	// PhaseDealing is the state before the current board's hands are out.
	PhaseDealing SessionPhase = "dealing"
	// PhaseBidding is the auction of the current board.
	PhaseBidding SessionPhase = "bidding"
	// PhasePlaying is the card play of the current board.
	PhasePlaying SessionPhase = "playing"
	// PhaseComplete is the state after the final board is scored.
	PhaseComplete SessionPhase = "complete"
)

// Board is one slot of a session: a deal with its rotation state.
type Board struct {
	Number   int      `json:"number"` // 1-based
	Deal     Deal     `json:"-"`
	Rotation Rotation `json:"rotation"`
}

// DealRecord is one completed board in the session export: contract,
// tricks and the signed score from the north-south perspective.
type DealRecord struct {
	Number    int       `json:"number"`
	Rotation  Rotation  `json:"rotation"`
	Hands     [4][]string `json:"hands"`
	PassedOut bool      `json:"passed_out"`
	Contract  *Contract `json:"contract,omitempty"`
	TricksWon int       `json:"tricks_won"`
	Score     int       `json:"score"`
}

// Session is the host-owned canonical state of a fixed-length run of
// boards. Clients only ever see projections of it.
type Session struct {
	ID     string
	Boards []Board

	Index   int // 0-based index of the current board
	Phase   SessionPhase
	Auction *Auction
	Play    *Play

	Records  []DealRecord
	NetScore int // running net, north-south positive
}

// Length returns the number of boards in the session.
func (s *Session) Length() int { return len(s.Boards) }

// CurrentBoard returns the board being dealt, bid or played.
func (s *Session) CurrentBoard() Board { return s.Boards[s.Index] }

// Complete reports whether every board has been scored.
func (s *Session) Complete() bool { return s.Phase == PhaseComplete }

// Turn returns the seat expected to act, or false when no action is
// pending (dealing or complete).
func (s *Session) Turn() (Seat, bool) {
	switch s.Phase {
	case PhaseBidding:
		return s.Auction.Turn(), true
	case PhasePlaying:
		return s.Play.Turn(), true
	default:
		return 0, false
	}
}
