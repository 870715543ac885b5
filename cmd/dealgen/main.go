// Command dealgen generates a balanced session of bridge deals and
// writes it as JSON. Each board carries its double-dummy projection so
// the output doubles as solver reference data.
package main

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"chicago/internal/domain"
	"chicago/internal/sampler"
	"chicago/internal/solver"
)

type boardExport struct {
	Number        int                `json:"number"`
	Dealer        string             `json:"dealer"`
	Vulnerability string             `json:"vulnerability"`
	Hands         [4][]string        `json:"hands"` // north, east, south, west
	Projection    sampler.Projection `json:"projection"`
	Attempts      int                `json:"attempts"`
	SoftMiss      bool               `json:"soft_miss,omitempty"`
}

type sessionExport struct {
	ID           string        `json:"id"`
	Boards       []boardExport `json:"boards"`
	ProjectedNet int           `json:"projected_net"`
	SoftMisses   int           `json:"soft_misses"`
}

func main() {
	length := flag.Int("length", 16, "boards per session")
	target := flag.Int("target", 0, "desired north-south net at session end")
	tolerance := flag.Float64("tolerance", 300, "acceptable deviation from the score trajectory")
	attempts := flag.Int("attempts", 200, "candidate deals per board slot")
	workers := flag.Int("workers", 0, "concurrent evaluations, 0 for one per CPU")
	nodeBudget := flag.Int64("node-budget", 0, "solver node budget per deal, 0 for default")
	seed := flag.String("seed", "", "seed string for a reproducible session, empty for entropy")
	out := flag.String("o", "", "output file, empty for stdout")
	verbose := flag.Bool("v", false, "log per-board acceptance decisions")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := sampler.Config{
		SessionLength: *length,
		TargetNet:     *target,
		Tolerance:     *tolerance,
		AttemptBudget: *attempts,
		Workers:       *workers,
	}
	if *seed != "" {
		sum := sha256.Sum256([]byte(*seed))
		cfg.Seed = sum[:]
	}

	gen := sampler.NewGenerator(cfg, sampler.DDEvaluator{Options: solver.Options{NodeBudget: *nodeBudget}})
	sess, err := gen.Generate(context.Background())
	if err != nil {
		log.Fatal().Err(err).Msg("session generation failed")
	}

	export := sessionExport{
		ID:           sess.ID,
		Boards:       make([]boardExport, 0, len(sess.Boards)),
		ProjectedNet: sess.ProjectedNet,
		SoftMisses:   sess.SoftMisses,
	}
	running := 0
	for _, b := range sess.Boards {
		running += b.Projection.Net
		contract := "passed out"
		if !b.Projection.PassedOut {
			c := b.Projection.Contract
			contract = fmt.Sprintf("%d %s by %s making %d", c.Level, c.Strain, c.Declarer, b.Projection.Tricks)
		}
		log.Info().
			Int("board", b.Board.Number).
			Str("dealer", b.Board.Rotation.Dealer.String()).
			Str("vulnerability", b.Board.Rotation.Vulnerability.String()).
			Str("projected", contract).
			Int("net", b.Projection.Net).
			Int("running_net", running).
			Int("ns_hcp", b.Board.Deal[domain.North].HighCardPoints()+b.Board.Deal[domain.South].HighCardPoints()).
			Bool("soft_miss", b.SoftMiss).
			Msg("board")
		export.Boards = append(export.Boards, boardExport{
			Number:        b.Board.Number,
			Dealer:        b.Board.Rotation.Dealer.String(),
			Vulnerability: b.Board.Rotation.Vulnerability.String(),
			Hands:         b.Board.Deal.Export(),
			Projection:    b.Projection,
			Attempts:      b.Attempts,
			SoftMiss:      b.SoftMiss,
		})
	}

	encoded, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to encode session")
	}
	encoded = append(encoded, '\n')

	if *out == "" {
		if _, err := os.Stdout.Write(encoded); err != nil {
			log.Fatal().Err(err).Msg("failed to write session")
		}
		return
	}
	if err := os.WriteFile(*out, encoded, 0o644); err != nil {
		log.Fatal().Err(err).Msg("failed to write session")
	}
	log.Info().Str("path", *out).Int("boards", len(export.Boards)).Msg("session written")
}
