// Package strategy implements the quoting engines for binary UP/DOWN
// markets.
//
// The main engine is a four-layer inventory market maker:
//  1. Adverse selection: widen the base spread near resolution.
//  2. Oracle-adjusted offsets: lean toward the side the oracle favors.
//  3. Inventory skew: rebalance offsets and sizes toward flat inventory.
//  4. Edge check: refuse to quote without a minimum margin vs the ask.
package strategy

import (
	"fmt"
	"math"

	"binary-mm-go/inventory"
	"binary-mm-go/market"
	"binary-mm-go/metrics"
)

// pInformedCap bounds the informed-trader probability regardless of inputs.
const pInformedCap = 0.8

// QuoteResult carries the final quotes plus every intermediate layer value.
// The diagnostic trail is part of the contract: simulations and tests
// reproduce runs from it.
type QuoteResult struct {
	// Final quotes. A side with QuoteUp/QuoteDown false is not quoted.
	BidUp     float64
	SizeUp    float64
	QuoteUp   bool
	BidDown   float64
	SizeDown  float64
	QuoteDown bool

	// Layer 1: adverse selection.
	PInformed  float64
	BaseSpread float64

	// Layer 2: oracle-adjusted offsets.
	OracleAdj     float64
	RawUpOffset   float64
	RawDownOffset float64

	// Layer 3: inventory skew.
	InventoryQ      float64
	SpreadMultUp    float64
	SpreadMultDown  float64
	FinalUpOffset   float64
	FinalDownOffset float64
	RawSizeUp       float64
	RawSizeDown     float64

	// Layer 4: edge check.
	EdgeUp         float64
	EdgeDown       float64
	SkipReasonUp   string
	SkipReasonDown string
}

// CombinedBid returns the summed bid when quoting both sides.
func (r QuoteResult) CombinedBid() (float64, bool) {
	if r.QuoteUp && r.QuoteDown {
		return r.BidUp + r.BidDown, true
	}
	return 0, false
}

// ProfitPerPair returns the profit per pair when both sides fill.
func (r QuoteResult) ProfitPerPair() (float64, bool) {
	if combined, ok := r.CombinedBid(); ok {
		return 1.0 - combined, true
	}
	return 0, false
}

// Quoter is the four-layer inventory market maker. It is a pure function
// of its inputs given fixed Params and is safe to share across replays.
type Quoter struct {
	params Params
}

// NewQuoter creates a Quoter. Zero-value params fall back to defaults.
func NewQuoter(params Params) *Quoter {
	if (params == Params{}) {
		params = DefaultParams()
	}
	return &Quoter{params: params}
}

// Params returns the fixed parameters of this quoter.
func (q *Quoter) Params() Params { return q.params }

// adverseSelection widens the spread as resolution approaches.
// p_informed = base * exp(-minutes/decay), capped; spread = base*(1+3p).
func (q *Quoter) adverseSelection(minutesToResolution float64) (pInformed, spread float64) {
	pInformed = q.params.PInformedBase * math.Exp(-minutesToResolution/q.params.TimeDecayMinutes)
	pInformed = math.Min(pInformedCap, pInformed)
	spread = q.params.BaseSpread * (1 + 3*pInformed)
	return pInformed, spread
}

// oracleOffsets shifts each side's offset by the oracle lean. The favored
// side is quoted tighter, the other wider; both floored at MinOffset.
func (q *Quoter) oracleOffsets(oracle market.OracleReading, baseOffset float64) (oracleAdj, upOffset, downOffset float64) {
	oracleAdj = oracle.DistancePct() * q.params.OracleSensitivity
	upOffset = math.Max(q.params.MinOffset, baseOffset-oracleAdj)
	downOffset = math.Max(q.params.MinOffset, baseOffset+oracleAdj)
	return oracleAdj, upOffset, downOffset
}

// inventorySkew widens the overweight side's offset and shrinks its size,
// symmetrically tightening and growing the underweight side.
func (q *Quoter) inventorySkew(inv inventory.Inventory) (multUp, multDown, sizeUp, sizeDown float64) {
	imb := inv.Imbalance()
	multUp = 1 + q.params.GammaInv*imb
	multDown = 1 - q.params.GammaInv*imb
	sizeUp = q.params.BaseSize * math.Exp(-q.params.LambdaSize*imb)
	sizeDown = q.params.BaseSize * math.Exp(q.params.LambdaSize*imb)
	return multUp, multDown, sizeUp, sizeDown
}

// checkEdge accepts a bid only when the margin to the market ask clears
// the threshold.
func (q *Quoter) checkEdge(bid, marketAsk float64) (ok bool, edge float64, skipReason string) {
	edge = marketAsk - bid
	if edge < q.params.EdgeThreshold {
		return false, edge, fmt.Sprintf("edge %.3f < threshold %g", edge, q.params.EdgeThreshold)
	}
	return true, edge, ""
}

// Quote runs all four layers and returns the result with the complete
// diagnostic trail.
func (q *Quoter) Quote(inv inventory.Inventory, mkt market.Quote, oracle market.OracleReading, minutesToResolution float64) QuoteResult {
	pInformed, baseSpread := q.adverseSelection(minutesToResolution)
	oracleAdj, rawUpOffset, rawDownOffset := q.oracleOffsets(oracle, baseSpread)
	multUp, multDown, rawSizeUp, rawSizeDown := q.inventorySkew(inv)

	finalUpOffset := rawUpOffset * multUp
	finalDownOffset := rawDownOffset * multDown

	bidUp := market.SnapToTick(mkt.BestBidUp - finalUpOffset)
	bidDown := market.SnapToTick(mkt.BestBidDown - finalDownOffset)

	quoteUp, edgeUp, skipUp := q.checkEdge(bidUp, mkt.BestAskUp)
	quoteDown, edgeDown, skipDown := q.checkEdge(bidDown, mkt.BestAskDown)

	res := QuoteResult{
		PInformed:       pInformed,
		BaseSpread:      baseSpread,
		OracleAdj:       oracleAdj,
		RawUpOffset:     rawUpOffset,
		RawDownOffset:   rawDownOffset,
		InventoryQ:      inv.Imbalance(),
		SpreadMultUp:    multUp,
		SpreadMultDown:  multDown,
		FinalUpOffset:   finalUpOffset,
		FinalDownOffset: finalDownOffset,
		RawSizeUp:       rawSizeUp,
		RawSizeDown:     rawSizeDown,
		EdgeUp:          edgeUp,
		EdgeDown:        edgeDown,
		SkipReasonUp:    skipUp,
		SkipReasonDown:  skipDown,
	}
	if quoteUp {
		res.QuoteUp = true
		res.BidUp = bidUp
		res.SizeUp = math.Round(rawSizeUp)
		metrics.IncrementQuoteGenerated("up")
	} else {
		metrics.IncrementQuoteSkipped("up")
	}
	if quoteDown {
		res.QuoteDown = true
		res.BidDown = bidDown
		res.SizeDown = math.Round(rawSizeDown)
		metrics.IncrementQuoteGenerated("down")
	} else {
		metrics.IncrementQuoteSkipped("down")
	}
	return res
}
