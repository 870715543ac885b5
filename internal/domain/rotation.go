package domain

// Vulnerability is the vulnerability state of a board.
type Vulnerability int

const (
	VulNone Vulnerability = iota
	VulNorthSouth
	VulEastWest
	VulBoth
)

var vulNames = [4]string{"none", "northsouth", "eastwest", "both"}

func (v Vulnerability) String() string { return vulNames[v] }

// SideVulnerable reports whether the given partnership is vulnerable.
func (v Vulnerability) SideVulnerable(s Side) bool {
	switch v {
	case VulBoth:
		return true
	case VulNorthSouth:
		return s == NorthSouth
	case VulEastWest:
		return s == EastWest
	default:
		return false
	}
}

// Rotation is the dealer/vulnerability assignment of a board.
type Rotation struct {
	Dealer        Seat          `json:"dealer"`
	Vulnerability Vulnerability `json:"vulnerability"`
}

// RotationForBoard returns the Chicago rotation for a 1-based board
// number. The dealer advances every board; the vulnerability sequence is
// offset one step further at each 4-board block, giving a 16-board cycle.
// Boards 1-4 are north/none, east/northsouth, south/eastwest, west/both.
func RotationForBoard(number int) Rotation {
	idx := (number - 1) % 16
	block := idx / 4
	position := idx % 4
	return Rotation{
		Dealer:        Seat(position),
		Vulnerability: Vulnerability((block + position) % 4),
	}
}
