package sim

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/inventory"
	"binary-mm-go/market"
	"binary-mm-go/metrics"
	"binary-mm-go/posttrade"
	"binary-mm-go/strategy"
)

// bookAheadEpsilon rewinds the quoting book fractionally before a fill's
// own timestamp, so the quote is generated from the state the market was
// in when the fill arrived, not the state it produced.
const bookAheadEpsilon = 0.001

// FillSimResult aggregates one fill-driven replay.
type FillSimResult struct {
	FinalInventory  inventory.Inventory
	PositionHistory []posttrade.PositionState
	MatchedFills    []market.MatchedFill
	OracleHistory   []market.OracleReading

	// TotalFillsConsidered counts sell fills only; buys lift asks and
	// can never hit our bids.
	TotalFillsConsidered int
	TotalFillsMatched    int
	UpFills              int
	DownFills            int
	TotalVolume          float64

	FinalMergedPnL      float64
	FinalDirectionalPnL float64
	FinalTotalPnL       float64
}

// FillSim replays real fills against a quoter with on-demand book
// reconstruction.
//
// Matching assumptions: we are first in queue at our price level, a sell
// printing at or below our bid fills against us, and we absorb the full
// print size.
type FillSim struct {
	// InitialInventory seeds the position; nil starts flat.
	InitialInventory *inventory.Inventory

	log *logger.Logger
}

// NewFillSim creates a fill-driven engine. A nil log discards output.
func NewFillSim(log *logger.Logger) *FillSim {
	if log == nil {
		log = logger.Nop()
	}
	return &FillSim{log: log}
}

// oracleAt finds the latest reading at or before ts. Falls back to the
// first reading when ts precedes all data, nil when there is none.
func oracleAt(ts float64, oracle []market.OracleReading) *market.OracleReading {
	if len(oracle) == 0 {
		return nil
	}
	idx := sort.Search(len(oracle), func(i int) bool {
		return oracle[i].Timestamp > ts
	}) - 1
	if idx < 0 {
		idx = 0
	}
	reading := oracle[idx]
	return &reading
}

func fillsSorted(fills []market.Fill) bool {
	return sort.SliceIsSorted(fills, func(i, j int) bool {
		return fills[i].Timestamp < fills[j].Timestamp
	})
}

func oracleSorted(oracle []market.OracleReading) bool {
	return sort.SliceIsSorted(oracle, func(i, j int) bool {
		return oracle[i].Timestamp < oracle[j].Timestamp
	})
}

// Run replays fills chronologically. For each sell fill it reconstructs
// the book just before the fill, asks the quoter for bids, and matches
// when the print is at or below our bid. Matched fills update inventory
// at OUR bid price and record a position snapshot marked against the
// book at the fill's own timestamp.
//
// If quoter also implements strategy.FillObserver it is notified after
// every match, which is how TrackingQuoter keeps its skew inputs current.
func (s *FillSim) Run(quoter strategy.BookQuoter, rec *Reconstructor, fills []market.Fill, oracle []market.OracleReading) (*FillSimResult, error) {
	if quoter == nil {
		return nil, fmt.Errorf("fill sim: nil quoter")
	}
	if rec == nil {
		return nil, fmt.Errorf("fill sim: nil reconstructor")
	}
	if !fillsSorted(fills) {
		return nil, fmt.Errorf("fill sim: fills not sorted by timestamp")
	}
	if !oracleSorted(oracle) {
		return nil, fmt.Errorf("fill sim: oracle readings not sorted by timestamp")
	}

	inv := inventory.Zero()
	if s.InitialInventory != nil {
		inv = *s.InitialInventory
	}

	observer, _ := quoter.(strategy.FillObserver)

	res := &FillSimResult{}

	for _, fill := range fills {
		if fill.Side != market.SideSell {
			continue
		}
		res.TotalFillsConsidered++

		book := rec.BookAt(fill.Timestamp - bookAheadEpsilon)

		reading := oracleAt(fill.Timestamp, oracle)
		if reading != nil {
			n := len(res.OracleHistory)
			if n == 0 || res.OracleHistory[n-1] != *reading {
				res.OracleHistory = append(res.OracleHistory, *reading)
			}
		}

		quote := quoter.QuoteBook(book, reading)

		matched := false
		switch {
		case fill.Outcome == market.OutcomeUp && quote.HasUp && fill.Price <= quote.BidUp:
			inv = inv.ApplyFill(market.OutcomeUp, fill.Size, quote.BidUp)
			mf := market.MatchedFill{
				Timestamp: fill.Timestamp,
				Outcome:   market.OutcomeUp,
				Price:     quote.BidUp,
				Size:      fill.Size,
				Original:  fill,
			}
			res.MatchedFills = append(res.MatchedFills, mf)
			res.UpFills++
			res.TotalVolume += fill.Size
			metrics.RecordMatch("up", fill.Size)
			if observer != nil {
				observer.OnMatched(mf)
			}
			matched = true

		case fill.Outcome == market.OutcomeDown && quote.HasDown && fill.Price <= quote.BidDown:
			inv = inv.ApplyFill(market.OutcomeDown, fill.Size, quote.BidDown)
			mf := market.MatchedFill{
				Timestamp: fill.Timestamp,
				Outcome:   market.OutcomeDown,
				Price:     quote.BidDown,
				Size:      fill.Size,
				Original:  fill,
			}
			res.MatchedFills = append(res.MatchedFills, mf)
			res.DownFills++
			res.TotalVolume += fill.Size
			metrics.RecordMatch("down", fill.Size)
			if observer != nil {
				observer.OnMatched(mf)
			}
			matched = true
		}

		if matched {
			// Mark the new position against the book including this
			// fill's own updates.
			markBook := rec.BookAt(fill.Timestamp)
			state := posttrade.Snapshot(inv, markBook, fill.Timestamp)
			res.PositionHistory = append(res.PositionHistory, state)
			metrics.UpdatePositionMetrics(inv.Imbalance(), state.MergedPnL, state.DirectionalPnL)
		}
	}

	res.FinalInventory = inv
	res.TotalFillsMatched = len(res.MatchedFills)
	if n := len(res.PositionHistory); n > 0 {
		final := res.PositionHistory[n-1]
		res.FinalMergedPnL = final.MergedPnL
		res.FinalDirectionalPnL = final.DirectionalPnL
		res.FinalTotalPnL = final.TotalPnL
	}

	s.log.Info("fill replay complete",
		zap.Int("fills_considered", res.TotalFillsConsidered),
		zap.Int("fills_matched", res.TotalFillsMatched),
		zap.Float64("total_volume", res.TotalVolume),
		zap.Float64("merged_pnl", res.FinalMergedPnL),
		zap.Float64("directional_pnl", res.FinalDirectionalPnL),
		zap.Float64("total_pnl", res.FinalTotalPnL))

	return res, nil
}
