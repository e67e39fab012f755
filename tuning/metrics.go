// Package tuning evaluates quoter parameterizations over recorded data:
// performance metrics for a single replay and exhaustive grid search
// across parameter combinations.
package tuning

import (
	"math"

	"binary-mm-go/sim"
)

// Annualization assumes 15-minute evaluation periods.
const periodsPerYear = 35040

// Summary is the performance scorecard for one replay.
type Summary struct {
	TotalPnL      float64
	RealizedPnL   float64
	UnrealizedPnL float64

	TotalFills int
	UpFills    int
	DownFills  int

	// FillRate is fills per quote opportunity, as a percentage.
	FillRate float64

	SharpeRatio float64
	// SharpeOK is false when there are too few periods or zero
	// variance, in which case SharpeRatio is meaningless.
	SharpeOK bool

	MaxDrawdown float64

	FinalImbalance  float64
	FinalPairs      float64
	AvgCombinedCost float64
}

// SharpeRatio computes the annualized Sharpe ratio of period returns.
// ok is false with fewer than two returns or zero variance.
func SharpeRatio(returns []float64) (ratio float64, ok bool) {
	if len(returns) < 2 {
		return 0, false
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(len(returns))

	var variance float64
	for _, r := range returns {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(returns) - 1)

	std := math.Sqrt(variance)
	if std == 0 {
		return 0, false
	}
	return mean / std * math.Sqrt(periodsPerYear), true
}

// MaxDrawdown is the largest peak-to-trough fall in the equity curve,
// as a positive number.
func MaxDrawdown(equity []float64) float64 {
	if len(equity) < 2 {
		return 0
	}

	peak := equity[0]
	worst := 0.0
	for _, v := range equity {
		if v > peak {
			peak = v
		}
		if dd := peak - v; dd > worst {
			worst = dd
		}
	}
	return worst
}

// FillRate is fills as a percentage of quote opportunities.
func FillRate(totalQuotes, totalFills int) float64 {
	if totalQuotes == 0 {
		return 0
	}
	return 100.0 * float64(totalFills) / float64(totalQuotes)
}

// Summarize scores a snapshot replay. The equity curve is the merged
// PnL potential at each snapshot; unmatched inventory is marked against
// the given final mid prices.
func Summarize(res *sim.SnapshotSimResult, upMid, downMid float64) Summary {
	equity := make([]float64, len(res.PositionHistory))
	for i, rec := range res.PositionHistory {
		equity[i] = rec.Pairs * rec.PotentialProfit
	}

	var returns []float64
	if len(equity) > 1 {
		returns = make([]float64, len(equity)-1)
		for i := 1; i < len(equity); i++ {
			returns[i-1] = equity[i] - equity[i-1]
		}
	}

	inv := res.FinalInventory
	pairs := inv.Pairs()
	realized := pairs * inv.PotentialProfit()
	unrealized := (inv.UpQty-pairs)*(upMid-inv.UpAvg) +
		(inv.DownQty-pairs)*(downMid-inv.DownAvg)

	s := Summary{
		TotalPnL:        realized + unrealized,
		RealizedPnL:     realized,
		UnrealizedPnL:   unrealized,
		TotalFills:      res.TotalFills,
		UpFills:         res.UpFills,
		DownFills:       res.DownFills,
		FillRate:        FillRate(len(res.PositionHistory), res.TotalFills),
		MaxDrawdown:     MaxDrawdown(equity),
		FinalImbalance:  inv.Imbalance(),
		FinalPairs:      pairs,
		AvgCombinedCost: inv.CombinedAvg(),
	}
	s.SharpeRatio, s.SharpeOK = SharpeRatio(returns)
	return s
}
