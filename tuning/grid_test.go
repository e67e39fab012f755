package tuning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"binary-mm-go/market"
	"binary-mm-go/strategy"
)

func TestCombinationsDeterministicOrder(t *testing.T) {
	grid := Grid{
		"base_spread": {0.02, 0.05},
		"base_size":   {50, 100},
	}

	combos := combinations(grid)
	require.Len(t, combos, 4)

	// Names iterate sorted, so base_size varies slowest.
	assert.Equal(t, map[string]float64{"base_size": 50, "base_spread": 0.02}, combos[0])
	assert.Equal(t, map[string]float64{"base_size": 50, "base_spread": 0.05}, combos[1])
	assert.Equal(t, map[string]float64{"base_size": 100, "base_spread": 0.02}, combos[2])
	assert.Equal(t, map[string]float64{"base_size": 100, "base_spread": 0.05}, combos[3])
}

func TestCombinationsEmptyGrid(t *testing.T) {
	combos := combinations(Grid{})
	require.Len(t, combos, 1, "empty grid runs the base parameters once")
	assert.Empty(t, combos[0])
}

func TestApplyParam(t *testing.T) {
	p := strategy.DefaultParams()

	require.NoError(t, applyParam(&p, "gamma_inv", 0.7))
	assert.Equal(t, 0.7, p.GammaInv)

	require.NoError(t, applyParam(&p, "edge_threshold", 0.02))
	assert.Equal(t, 0.02, p.EdgeThreshold)

	assert.Error(t, applyParam(&p, "no_such_param", 1.0))
}

func searchFixture() ([]market.BookSnapshot, []market.Fill) {
	books := []market.BookSnapshot{
		{
			Up: market.Book{
				Bids: []market.Level{{Price: 0.50, Size: 200}},
				Asks: []market.Level{{Price: 0.56, Size: 200}},
			},
			Down: market.Book{
				Bids: []market.Level{{Price: 0.44, Size: 200}},
				Asks: []market.Level{{Price: 0.50, Size: 200}},
			},
			Timestamp: 1000,
		},
	}
	fills := []market.Fill{
		{Price: 0.40, Size: 30, Side: market.SideSell, Timestamp: 1001, Outcome: market.OutcomeUp},
		{Price: 0.35, Size: 30, Side: market.SideSell, Timestamp: 1002, Outcome: market.OutcomeDown},
	}
	return books, fills
}

func TestSearcherRunsEveryCombination(t *testing.T) {
	books, fills := searchFixture()

	s := NewSearcher(books, fills, nil, nil)
	s.Parallelism = 2

	res, err := s.Search(context.Background(), Grid{
		"base_spread": {0.02, 0.04},
		"gamma_inv":   {0.25, 0.5},
	})
	require.NoError(t, err)
	require.Equal(t, 4, res.Combinations)
	require.Len(t, res.Trials, 4)

	seen := map[string]bool{}
	for _, trial := range res.Trials {
		require.NotNil(t, trial.Result, "every trial carries its replay")
		require.NotEmpty(t, trial.ID)
		assert.False(t, seen[trial.ID], "trial ids must be unique")
		seen[trial.ID] = true
	}

	// Result order matches the deterministic combination order even
	// when trials run concurrently.
	assert.Equal(t, 0.02, res.Trials[0].Params.BaseSpread)
	assert.Equal(t, 0.25, res.Trials[0].Params.GammaInv)
	assert.Equal(t, 0.04, res.Trials[3].Params.BaseSpread)
	assert.Equal(t, 0.5, res.Trials[3].Params.GammaInv)

	// Untouched parameters keep their base values.
	assert.Equal(t, s.Base.BaseSize, res.Trials[0].Params.BaseSize)
}

func TestSearcherRejectsInvalidCombination(t *testing.T) {
	books, fills := searchFixture()

	s := NewSearcher(books, fills, nil, nil)
	_, err := s.Search(context.Background(), Grid{"base_spread": {-1.0}})
	assert.Error(t, err)
}

func TestSearcherUnknownParameter(t *testing.T) {
	books, fills := searchFixture()

	s := NewSearcher(books, fills, nil, nil)
	_, err := s.Search(context.Background(), Grid{"bogus": {1.0}})
	assert.Error(t, err)
}

func TestSearchResultBestAndTopN(t *testing.T) {
	res := &SearchResult{Trials: []Trial{
		{ID: "a", Summary: Summary{TotalPnL: 1}},
		{ID: "b", Summary: Summary{TotalPnL: 5}},
		{ID: "c", Summary: Summary{TotalPnL: 3}},
	}}

	best, ok := res.BestByTotalPnL()
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)

	top := res.TopN(2, func(tr Trial) float64 { return tr.Summary.TotalPnL })
	require.Len(t, top, 2)
	assert.Equal(t, "b", top[0].ID)
	assert.Equal(t, "c", top[1].ID)

	empty := &SearchResult{}
	_, ok = empty.BestByTotalPnL()
	assert.False(t, ok)
}
