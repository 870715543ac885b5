package domain

import "errors"

// BidType distinguishes the four kinds of calls in the auction.
type BidType int

const (
	BidPass BidType = iota
	BidNormal
	BidDouble
	BidRedouble
)

// Doubling is the doubling state of the current contract.
type Doubling int

const (
	Undoubled Doubling = iota
	Doubled
	Redoubled
)

// Bid is a single call in the auction. Level and Strain are only
// meaningful for BidNormal.
type Bid struct {
	Seat   Seat    `json:"seat"`
	Type   BidType `json:"type"`
	Level  int     `json:"level,omitempty"`
	Strain Strain  `json:"strain,omitempty"`
}

// Contract is the outcome of a completed, non-passed-out auction.
type Contract struct {
	Level    int      `json:"level"`
	Strain   Strain   `json:"strain"`
	Declarer Seat     `json:"declarer"`
	Doubling Doubling `json:"doubling"`
}

// Side returns the declaring partnership.
func (c Contract) Side() Side { return c.Declarer.Side() }

var (
	ErrNotYourTurn       = errors.New("not this seat's turn")
	ErrAuctionOver       = errors.New("auction already finished")
	ErrInvalidBid        = errors.New("bid level or strain out of range")
	ErrInsufficientBid   = errors.New("bid does not outrank current contract")
	ErrDoubleNotAllowed  = errors.New("double not allowed")
	ErrRedoubleNotAllowed = errors.New("redouble not allowed")
)

// Auction tracks the bidding phase of one deal. The dealer calls first
// and the turn passes clockwise. It is finished once four players pass
// with no contract, or once three players pass over a contract.
type Auction struct {
	Dealer  Seat
	History []Bid

	level    int // 0 until a normal bid is made
	strain   Strain
	side     Side
	doubling Doubling
}

// NewAuction starts an empty auction opened by the dealer.
func NewAuction(dealer Seat) *Auction {
	return &Auction{Dealer: dealer}
}

// Turn returns the seat due to call next.
func (a *Auction) Turn() Seat {
	return Seat((int(a.Dealer) + len(a.History)) % 4)
}

// bidOrdinal gives the strictly increasing rank of a normal bid, with
// clubs lowest and notrump highest at each level.
func bidOrdinal(level int, strain Strain) int {
	return int(strain) + (level-1)*5
}

// Check validates a call without applying it.
func (a *Auction) Check(b Bid) error {
	if a.Finished() {
		return ErrAuctionOver
	}
	if b.Seat != a.Turn() {
		return ErrNotYourTurn
	}
	switch b.Type {
	case BidPass:
		return nil
	case BidNormal:
		if b.Level < 1 || b.Level > 7 || b.Strain < StrainClubs || b.Strain > NoTrump {
			return ErrInvalidBid
		}
		current := -1
		if a.level > 0 {
			current = bidOrdinal(a.level, a.strain)
		}
		if bidOrdinal(b.Level, b.Strain) <= current {
			return ErrInsufficientBid
		}
		return nil
	case BidDouble:
		if a.level == 0 || a.doubling != Undoubled || a.side == b.Seat.Side() {
			return ErrDoubleNotAllowed
		}
		return nil
	case BidRedouble:
		if a.level == 0 || a.doubling != Doubled || a.side != b.Seat.Side() {
			return ErrRedoubleNotAllowed
		}
		return nil
	default:
		return ErrInvalidBid
	}
}

// Apply validates and records a call.
func (a *Auction) Apply(b Bid) error {
	if err := a.Check(b); err != nil {
		return err
	}
	switch b.Type {
	case BidNormal:
		a.level = b.Level
		a.strain = b.Strain
		a.side = b.Seat.Side()
		a.doubling = Undoubled
	case BidDouble:
		a.doubling = Doubled
	case BidRedouble:
		a.doubling = Redoubled
	}
	a.History = append(a.History, b)
	return nil
}

// Finished reports whether the auction has ended.
func (a *Auction) Finished() bool {
	n := len(a.History)
	if n < 4 {
		return false
	}
	if a.level == 0 {
		// Only passes can precede the first normal bid.
		return true
	}
	for _, b := range a.History[n-3:] {
		if b.Type != BidPass {
			return false
		}
	}
	return true
}

// PassedOut reports whether the auction ended with no contract.
func (a *Auction) PassedOut() bool {
	return a.Finished() && a.level == 0
}

// Contract resolves the final contract. The declarer is the first member
// of the contract side to have named the contract strain. The second
// return is false while the auction is open or passed out.
func (a *Auction) Contract() (Contract, bool) {
	if !a.Finished() || a.level == 0 {
		return Contract{}, false
	}
	c := Contract{Level: a.level, Strain: a.strain, Doubling: a.doubling}
	for _, b := range a.History {
		if b.Type == BidNormal && b.Strain == a.strain && b.Seat.Side() == a.side {
			c.Declarer = b.Seat
			break
		}
	}
	return c, true
}
