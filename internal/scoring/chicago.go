// Package scoring implements the standard Chicago bridge score tables.
package scoring

import "chicago/internal/domain"

// Breakdown itemizes the score of one deal. All values are from the
// declaring side's perspective; Total is negative when the contract goes
// down.
type Breakdown struct {
	ContractPoints int `json:"contract_points"`
	Overtricks     int `json:"overtricks"`
	PartScoreBonus int `json:"part_score_bonus"`
	GameBonus      int `json:"game_bonus"`
	SlamBonus      int `json:"slam_bonus"`
	InsultBonus    int `json:"insult_bonus"`
	Bonuses        int `json:"bonuses"`
	Penalty        int `json:"penalty"`
	Total          int `json:"total"`
}

// trickPoints is the per-trick value of each strain; notrump also scores
// firstTrickBonus for the first odd trick.
var trickPoints = [5]int{20, 20, 30, 30, 30}

const firstTrickBonus = 10

var doublingMultiplier = [3]int{1, 2, 4}

// Score computes the Chicago score for a played contract. tricksMade is
// the total tricks taken by the declaring side.
func Score(c domain.Contract, vulnerable bool, tricksMade int) Breakdown {
	var b Breakdown
	base := trickPoints[c.Strain]
	multiplier := doublingMultiplier[c.Doubling]
	overtricks := tricksMade - (6 + c.Level)

	if overtricks >= 0 {
		b.ContractPoints = c.Level * base * multiplier
		if c.Strain == domain.NoTrump {
			b.ContractPoints += firstTrickBonus * multiplier
		}

		switch c.Doubling {
		case domain.Undoubled:
			b.Overtricks = overtricks * base
		case domain.Doubled:
			if vulnerable {
				b.Overtricks = overtricks * 200
			} else {
				b.Overtricks = overtricks * 100
			}
		case domain.Redoubled:
			if vulnerable {
				b.Overtricks = overtricks * 400
			} else {
				b.Overtricks = overtricks * 200
			}
		}

		// Doubling inflates contract points toward the game threshold.
		if b.ContractPoints < 100 {
			b.PartScoreBonus = 50
		} else if vulnerable {
			b.GameBonus = 500
		} else {
			b.GameBonus = 300
		}

		switch c.Level {
		case 6:
			if vulnerable {
				b.SlamBonus = 750
			} else {
				b.SlamBonus = 500
			}
		case 7:
			if vulnerable {
				b.SlamBonus = 1500
			} else {
				b.SlamBonus = 1000
			}
		}

		switch c.Doubling {
		case domain.Doubled:
			b.InsultBonus = 50
		case domain.Redoubled:
			b.InsultBonus = 100
		}
	} else {
		down := -overtricks
		if c.Doubling == domain.Undoubled {
			if vulnerable {
				b.Penalty = -down * 100
			} else {
				b.Penalty = -down * 50
			}
		} else {
			penalty := doubledUndertricks(down, vulnerable)
			if c.Doubling == domain.Redoubled {
				penalty *= 2
			}
			b.Penalty = -penalty
		}
	}

	b.Bonuses = b.PartScoreBonus + b.GameBonus + b.SlamBonus + b.InsultBonus
	b.Total = b.ContractPoints + b.Overtricks + b.Bonuses + b.Penalty
	return b
}

// doubledUndertricks returns the positive penalty for a doubled contract
// down the given number of tricks. Not vulnerable: 100, then 200 for the
// second and third undertrick, then 300 each. Vulnerable: 200, then 300
// each.
func doubledUndertricks(down int, vulnerable bool) int {
	if vulnerable {
		return 200 + (down-1)*300
	}
	penalty := 100
	for i := 2; i <= down; i++ {
		if i <= 3 {
			penalty += 200
		} else {
			penalty += 300
		}
	}
	return penalty
}

// Net returns the signed score of a deal from the north-south
// perspective, applying the board's vulnerability to the declaring side.
func Net(c domain.Contract, vul domain.Vulnerability, tricksMade int) int {
	total := Score(c, vul.SideVulnerable(c.Side()), tricksMade).Total
	if c.Side() == domain.EastWest {
		return -total
	}
	return total
}
