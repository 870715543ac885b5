// Package sampler generates sessions of boards whose projected running
// score tracks a target trajectory, using rejection sampling over
// uniformly dealt decks so each accepted deal is still a fair shuffle
// within its score class.
package sampler

import (
	"context"

	"chicago/internal/domain"
	"chicago/internal/scoring"
	"chicago/internal/solver"
)

// Projection is the expected outcome of a board under the projection
// policy: each side's best makeable undoubled contract at the board's
// vulnerability, with the higher-scoring side declaring. The declarer is
// reported as the partnership anchor seat.
type Projection struct {
	Board     int             `json:"board"`
	PassedOut bool            `json:"passed_out,omitempty"`
	Contract  domain.Contract `json:"contract"`
	Tricks    int             `json:"tricks"`
	Net       int             `json:"net"`
}

// Evaluator projects a board's expected net score for north-south.
type Evaluator interface {
	Project(ctx context.Context, board domain.Board) (Projection, error)
}

// DDEvaluator projects boards from their full double-dummy table.
type DDEvaluator struct {
	Options solver.Options
}

func (e DDEvaluator) Project(ctx context.Context, board domain.Board) (Projection, error) {
	table, err := solver.SolveWithOptions(ctx, board.Deal, e.Options)
	if err != nil {
		return Projection{}, err
	}
	return ProjectTable(board, table), nil
}

// ProjectTable applies the projection policy to a solved table.
func ProjectTable(board domain.Board, table solver.Table) Projection {
	nsC, nsTricks, nsNet, nsOK := bestContract(table, domain.North, board.Rotation.Vulnerability)
	ewC, ewTricks, ewNet, ewOK := bestContract(table, domain.East, board.Rotation.Vulnerability)
	switch {
	case !nsOK && !ewOK:
		return Projection{Board: board.Number, PassedOut: true}
	case !ewOK || (nsOK && nsNet >= -ewNet):
		return Projection{Board: board.Number, Contract: nsC, Tricks: nsTricks, Net: nsNet}
	default:
		return Projection{Board: board.Number, Contract: ewC, Tricks: ewTricks, Net: ewNet}
	}
}

// bestContract picks the anchor's side's highest-scoring makeable
// undoubled contract. Net scores are north-south relative, so the best
// east-west contract is the most negative.
func bestContract(table solver.Table, anchor domain.Seat, vul domain.Vulnerability) (domain.Contract, int, int, bool) {
	var bc domain.Contract
	var bestTricks, bestNet int
	found := false
	for strain := domain.StrainClubs; strain <= domain.NoTrump; strain++ {
		tricks := table.Tricks(anchor, strain)
		if tricks < domain.HandSize/2+1 {
			continue
		}
		c := domain.Contract{Level: tricks - 6, Strain: strain, Declarer: anchor}
		net := scoring.Net(c, vul, tricks)
		better := net > bestNet
		if anchor.Side() == domain.EastWest {
			better = net < bestNet
		}
		if !found || better {
			bc, bestTricks, bestNet = c, tricks, net
			found = true
		}
	}
	return bc, bestTricks, bestNet, found
}
