package tuning

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/inventory"
	"binary-mm-go/market"
	"binary-mm-go/sim"
	"binary-mm-go/strategy"
)

// Grid maps parameter names (their json tags) to candidate values.
type Grid map[string][]float64

// applyParam sets one named parameter on p.
func applyParam(p *strategy.Params, name string, value float64) error {
	switch name {
	case "base_spread":
		p.BaseSpread = value
	case "p_informed_base":
		p.PInformedBase = value
	case "time_decay_minutes":
		p.TimeDecayMinutes = value
	case "oracle_sensitivity":
		p.OracleSensitivity = value
	case "gamma_inv":
		p.GammaInv = value
	case "lambda_size":
		p.LambdaSize = value
	case "base_size":
		p.BaseSize = value
	case "edge_threshold":
		p.EdgeThreshold = value
	case "min_offset":
		p.MinOffset = value
	default:
		return fmt.Errorf("unknown parameter %q", name)
	}
	return nil
}

// combinations expands the grid into every parameter assignment, keyed
// by sorted parameter name so the trial order is deterministic.
func combinations(grid Grid) []map[string]float64 {
	names := make([]string, 0, len(grid))
	for name := range grid {
		names = append(names, name)
	}
	sort.Strings(names)

	combos := []map[string]float64{{}}
	for _, name := range names {
		values := grid[name]
		next := make([]map[string]float64, 0, len(combos)*len(values))
		for _, combo := range combos {
			for _, v := range values {
				expanded := make(map[string]float64, len(combo)+1)
				for k, cv := range combo {
					expanded[k] = cv
				}
				expanded[name] = v
				next = append(next, expanded)
			}
		}
		combos = next
	}
	return combos
}

// Trial is one parameterization's replay and score.
type Trial struct {
	ID      string
	Params  strategy.Params
	Result  *sim.SnapshotSimResult
	Summary Summary
}

// SearchResult holds every trial of one grid search.
type SearchResult struct {
	Trials       []Trial
	Combinations int
}

// Best returns the trial maximizing score, or false when there are no
// trials.
func (r *SearchResult) Best(score func(Trial) float64) (Trial, bool) {
	if len(r.Trials) == 0 {
		return Trial{}, false
	}
	best := r.Trials[0]
	for _, t := range r.Trials[1:] {
		if score(t) > score(best) {
			best = t
		}
	}
	return best, true
}

// BestByTotalPnL returns the trial with the highest total PnL.
func (r *SearchResult) BestByTotalPnL() (Trial, bool) {
	return r.Best(func(t Trial) float64 { return t.Summary.TotalPnL })
}

// TopN returns the n best trials by score, highest first.
func (r *SearchResult) TopN(n int, score func(Trial) float64) []Trial {
	trials := make([]Trial, len(r.Trials))
	copy(trials, r.Trials)
	sort.SliceStable(trials, func(i, j int) bool {
		return score(trials[i]) > score(trials[j])
	})
	if n < len(trials) {
		trials = trials[:n]
	}
	return trials
}

// Searcher runs the snapshot engine across every combination of a
// parameter grid. Trials share the recorded data read-only and run
// concurrently.
type Searcher struct {
	Books  []market.BookSnapshot
	Fills  []market.Fill
	Oracle []market.OracleReading

	// Base is the parameter set the grid perturbs.
	Base strategy.Params

	// InitialInventory and ResolutionTimestamp are forwarded to each
	// trial's engine.
	InitialInventory    *inventory.Inventory
	ResolutionTimestamp float64

	// Parallelism bounds concurrent trials; 0 means GOMAXPROCS.
	Parallelism int

	log *logger.Logger
}

// NewSearcher creates a grid searcher over the given recorded data.
func NewSearcher(books []market.BookSnapshot, fills []market.Fill, oracle []market.OracleReading, log *logger.Logger) *Searcher {
	if log == nil {
		log = logger.Nop()
	}
	return &Searcher{
		Books:  books,
		Fills:  fills,
		Oracle: oracle,
		Base:   strategy.DefaultParams(),
		log:    log,
	}
}

// Search replays every parameter combination and scores it. Trials run
// concurrently; the result order matches the deterministic combination
// order regardless of scheduling.
func (s *Searcher) Search(ctx context.Context, grid Grid) (*SearchResult, error) {
	combos := combinations(grid)

	// Final mids for unrealized marking come from the last snapshot.
	upMid, downMid := 0.5, 0.5
	if n := len(s.Books); n > 0 {
		last := s.Books[n-1]
		if bid, ok := last.Up.BestBid(); ok {
			if ask, ok := last.Up.BestAsk(); ok {
				upMid = (bid + ask) / 2
			}
		}
		if bid, ok := last.Down.BestBid(); ok {
			if ask, ok := last.Down.BestAsk(); ok {
				downMid = (bid + ask) / 2
			}
		}
	}

	parallelism := s.Parallelism
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}

	trials := make([]Trial, len(combos))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for i, combo := range combos {
		i, combo := i, combo
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			params := s.Base
			for name, value := range combo {
				if err := applyParam(&params, name, value); err != nil {
					return err
				}
			}
			if !params.Validate() {
				return fmt.Errorf("invalid parameter combination %v", combo)
			}

			engine := sim.NewSnapshotSim(nil)
			engine.InitialInventory = s.InitialInventory
			engine.ResolutionTimestamp = s.ResolutionTimestamp

			res, err := engine.Run(strategy.NewQuoter(params), s.Books, s.Fills, s.Oracle)
			if err != nil {
				return err
			}

			trials[i] = Trial{
				ID:      uuid.NewString(),
				Params:  params,
				Result:  res,
				Summary: Summarize(res, upMid, downMid),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.log.Info("grid search complete",
		zap.Int("combinations", len(combos)),
		zap.Int("parallelism", parallelism))

	return &SearchResult{Trials: trials, Combinations: len(combos)}, nil
}
