package sampler

import (
	"context"
	"math"
	"runtime"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"lukechampine.com/frand"

	"chicago/internal/domain"
)

// Config tunes session generation. Zero values select defaults.
type Config struct {
	SessionLength int     // boards per session
	TargetNet     int     // desired north-south net at session end
	Tolerance     float64 // acceptable deviation from the target trajectory
	AttemptBudget int     // candidate deals per board slot
	BatchSize     int     // candidates evaluated per parallel batch
	Workers       int     // concurrent evaluations
	Seed          []byte  // 32 bytes for a deterministic stream, nil for entropy
}

func (c Config) withDefaults() Config {
	if c.SessionLength <= 0 {
		c.SessionLength = 16
	}
	if c.Tolerance <= 0 {
		c.Tolerance = 300
	}
	if c.AttemptBudget <= 0 {
		c.AttemptBudget = 200
	}
	if c.BatchSize <= 0 {
		c.BatchSize = 8
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return c
}

// BoardResult is one generated board with its projection.
type BoardResult struct {
	Board      domain.Board `json:"board"`
	Projection Projection   `json:"projection"`
	Attempts   int          `json:"attempts"`
	SoftMiss   bool         `json:"soft_miss,omitempty"`
}

// Session is a generated run of boards. ProjectedNet is the sum of the
// per-board projections; SoftMisses counts slots where the attempt
// budget ran out and the least-deviating candidate was kept.
type Session struct {
	ID           string        `json:"id"`
	Boards       []BoardResult `json:"boards"`
	ProjectedNet int           `json:"projected_net"`
	SoftMisses   int           `json:"soft_misses"`
}

// DomainBoards returns the boards in play order.
func (s *Session) DomainBoards() []domain.Board {
	out := make([]domain.Board, len(s.Boards))
	for i, b := range s.Boards {
		out[i] = b.Board
	}
	return out
}

// Generator produces balanced sessions. Not safe for concurrent use;
// run one generator per goroutine.
type Generator struct {
	cfg  Config
	eval Evaluator
	rng  *frand.RNG
}

func NewGenerator(cfg Config, eval Evaluator) *Generator {
	cfg = cfg.withDefaults()
	rng := frand.New()
	if len(cfg.Seed) == 32 {
		rng = frand.NewCustom(cfg.Seed, 1024, 12)
	}
	return &Generator{cfg: cfg, eval: eval, rng: rng}
}

// Generate fills every board slot of a session. Dealer and
// vulnerability follow the standard sixteen-board rotation; each slot
// is filled by rejection sampling against the running score target.
func (g *Generator) Generate(ctx context.Context) (*Session, error) {
	started := time.Now()
	sess := &Session{ID: uuid.NewString()}
	running := 0
	for number := 1; number <= g.cfg.SessionLength; number++ {
		res, err := g.fillSlot(ctx, number, running)
		if err != nil {
			return nil, err
		}
		running += res.Projection.Net
		if res.SoftMiss {
			sess.SoftMisses++
		}
		sess.Boards = append(sess.Boards, res)
	}
	sess.ProjectedNet = running
	log.Info().
		Str("session_id", sess.ID).
		Int("boards", len(sess.Boards)).
		Int("projected_net", sess.ProjectedNet).
		Int("soft_misses", sess.SoftMisses).
		Dur("elapsed", time.Since(started)).
		Msg("session generated")
	return sess, nil
}

// fillSlot draws uniformly shuffled candidate deals until one keeps the
// running score close enough to the target trajectory. A candidate that
// does not worsen the current deviation is always accepted; otherwise
// acceptance decays with a gaussian kernel over the deviation. When the
// budget runs out the least-deviating candidate is kept.
func (g *Generator) fillSlot(ctx context.Context, number, running int) (BoardResult, error) {
	rot := domain.RotationForBoard(number)
	length := float64(g.cfg.SessionLength)
	targetHere := float64(g.cfg.TargetNet) * float64(number) / length
	prevDev := math.Abs(float64(running) - float64(g.cfg.TargetNet)*float64(number-1)/length)

	var best BoardResult
	bestDev := math.Inf(1)
	attempts := 0
	for attempts < g.cfg.AttemptBudget {
		n := g.cfg.BatchSize
		if rem := g.cfg.AttemptBudget - attempts; rem < n {
			n = rem
		}
		deals := make([]domain.Deal, n)
		for i := range deals {
			d, err := g.randomDeal()
			if err != nil {
				return BoardResult{}, err
			}
			deals[i] = d
		}
		projs, err := g.evaluateBatch(ctx, number, rot, deals)
		if err != nil {
			return BoardResult{}, err
		}
		for i, p := range projs {
			attempts++
			dev := math.Abs(float64(running+p.Net) - targetHere)
			res := BoardResult{
				Board:      domain.Board{Number: number, Deal: deals[i], Rotation: rot},
				Projection: p,
				Attempts:   attempts,
			}
			if dev < bestDev {
				bestDev = dev
				best = res
			}
			if dev <= prevDev || g.rng.Float64() < math.Exp(-0.5*(dev/g.cfg.Tolerance)*(dev/g.cfg.Tolerance)) {
				log.Debug().
					Int("board", number).
					Int("attempts", attempts).
					Int("net", p.Net).
					Float64("deviation", dev).
					Msg("board accepted")
				return res, nil
			}
		}
	}
	best.Attempts = attempts
	best.SoftMiss = bestDev > g.cfg.Tolerance
	log.Debug().
		Int("board", number).
		Int("attempts", attempts).
		Float64("deviation", bestDev).
		Bool("soft_miss", best.SoftMiss).
		Msg("attempt budget exhausted, keeping closest board")
	return best, nil
}

func (g *Generator) randomDeal() (domain.Deal, error) {
	deck := domain.NewDeck()
	g.rng.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })
	return domain.DealFromDeck(deck)
}

func (g *Generator) evaluateBatch(ctx context.Context, number int, rot domain.Rotation, deals []domain.Deal) ([]Projection, error) {
	projs := make([]Projection, len(deals))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(g.cfg.Workers)
	for i := range deals {
		i := i
		grp.Go(func() error {
			p, err := g.eval.Project(ctx, domain.Board{Number: number, Deal: deals[i], Rotation: rot})
			if err != nil {
				return err
			}
			projs[i] = p
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return projs, nil
}
