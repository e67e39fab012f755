// Package posttrade computes position snapshots with the PnL
// decomposition used across both simulators: riskless profit locked in
// balanced pairs versus mark-to-market exposure on the unmatched excess.
package posttrade

import (
	"binary-mm-go/inventory"
	"binary-mm-go/market"
)

// ExcessSide names which side, if any, carries unmatched inventory.
type ExcessSide string

const (
	ExcessBalanced ExcessSide = "balanced"
	ExcessUp       ExcessSide = "up"
	ExcessDown     ExcessSide = "down"
)

// PositionState captures the full inventory plus PnL breakdown at a point
// in time.
type PositionState struct {
	Timestamp float64

	UpQty   float64
	UpAvg   float64
	DownQty float64
	DownAvg float64

	Pairs           float64
	CombinedAvg     float64
	PotentialProfit float64

	// MergedPnL is pairs * (1 - combined_avg): realizable by redeeming
	// balanced pairs regardless of the outcome.
	MergedPnL float64

	// DirectionalPnL marks the excess one-sided quantity against the best
	// bid of that side's book (0 when the book is empty).
	DirectionalPnL float64
	DirectionalQty float64
	MarkPrice      float64
	Excess         ExcessSide

	TotalPnL float64
}

// Snapshot builds a PositionState from an inventory and the book used to
// mark any directional excess.
func Snapshot(inv inventory.Inventory, book market.BookSnapshot, timestamp float64) PositionState {
	s := PositionState{
		Timestamp:       timestamp,
		UpQty:           inv.UpQty,
		UpAvg:           inv.UpAvg,
		DownQty:         inv.DownQty,
		DownAvg:         inv.DownAvg,
		Pairs:           inv.Pairs(),
		CombinedAvg:     inv.CombinedAvg(),
		PotentialProfit: inv.PotentialProfit(),
		Excess:          ExcessBalanced,
	}
	s.MergedPnL = s.Pairs * (1.0 - s.CombinedAvg)

	switch {
	case inv.UpQty > inv.DownQty:
		s.Excess = ExcessUp
		s.DirectionalQty = inv.UpQty - inv.DownQty
		if bid, ok := book.Up.BestBid(); ok {
			s.MarkPrice = bid
		}
		s.DirectionalPnL = s.DirectionalQty * (s.MarkPrice - inv.UpAvg)
	case inv.DownQty > inv.UpQty:
		s.Excess = ExcessDown
		s.DirectionalQty = inv.DownQty - inv.UpQty
		if bid, ok := book.Down.BestBid(); ok {
			s.MarkPrice = bid
		}
		s.DirectionalPnL = s.DirectionalQty * (s.MarkPrice - inv.DownAvg)
	}

	s.TotalPnL = s.MergedPnL + s.DirectionalPnL
	return s
}
