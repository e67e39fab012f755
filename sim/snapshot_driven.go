package sim

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"binary-mm-go/infrastructure/logger"
	"binary-mm-go/inventory"
	"binary-mm-go/market"
	"binary-mm-go/metrics"
	"binary-mm-go/strategy"
)

// defaultResolutionGap is assumed between the last snapshot and market
// resolution when the caller does not supply a resolution timestamp.
const defaultResolutionGap = 15 * 60

// lastWindowSeconds bounds the fill window after the final snapshot.
const lastWindowSeconds = 60

// PositionRecord is the per-snapshot position trail of the snapshot
// engine. It carries merged economics only; directional mark-to-market
// is the fill engine's posttrade.PositionState.
type PositionRecord struct {
	Timestamp float64

	UpQty   float64
	UpAvg   float64
	DownQty float64
	DownAvg float64

	Pairs           float64
	CombinedAvg     float64
	PotentialProfit float64
}

func recordPosition(inv inventory.Inventory, ts float64) PositionRecord {
	return PositionRecord{
		Timestamp:       ts,
		UpQty:           inv.UpQty,
		UpAvg:           inv.UpAvg,
		DownQty:         inv.DownQty,
		DownAvg:         inv.DownAvg,
		Pairs:           inv.Pairs(),
		CombinedAvg:     inv.CombinedAvg(),
		PotentialProfit: inv.PotentialProfit(),
	}
}

// BookTrace is the best ask on each side at one snapshot, kept for
// plotting parameter sweeps.
type BookTrace struct {
	Timestamp   float64
	BestAskUp   float64
	BestAskDown float64
}

// SnapshotSimResult aggregates one snapshot-driven replay.
type SnapshotSimResult struct {
	FinalInventory  inventory.Inventory
	PositionHistory []PositionRecord
	MatchedFills    []market.MatchedFill
	BookHistory     []BookTrace

	TotalFills  int
	UpFills     int
	DownFills   int
	TotalVolume float64

	// FinalPnLPotential is pairs * profit-per-pair if every balanced
	// pair were redeemed. Unpaired excess is not valued here.
	FinalPnLPotential float64

	Params strategy.Params
}

// SnapshotSim replays book snapshots against the layered quoting engine.
// One quote is generated per snapshot and held until the next one; fills
// inside that window match against it, capped by the quoted size per
// side.
type SnapshotSim struct {
	// DefaultMinutesToResolution is used when no resolution timestamp
	// can be derived at all.
	DefaultMinutesToResolution float64

	// InitialInventory seeds the position; nil starts flat.
	InitialInventory *inventory.Inventory

	// ResolutionTimestamp overrides the derived resolution time. Zero
	// means derive it from the last snapshot.
	ResolutionTimestamp float64

	log *logger.Logger
}

// NewSnapshotSim creates a snapshot-driven engine. A nil log discards
// output.
func NewSnapshotSim(log *logger.Logger) *SnapshotSim {
	if log == nil {
		log = logger.Nop()
	}
	return &SnapshotSim{DefaultMinutesToResolution: 10, log: log}
}

// fillsInWindow returns fills with start <= timestamp < end.
func fillsInWindow(fills []market.Fill, start, end float64) []market.Fill {
	lo := sort.Search(len(fills), func(i int) bool {
		return fills[i].Timestamp >= start
	})
	hi := sort.Search(len(fills), func(i int) bool {
		return fills[i].Timestamp >= end
	})
	return fills[lo:hi]
}

// matchWindow matches the window's sell fills against one held quote,
// filling at OUR bid until the quoted size on that side is exhausted.
// The last fill against a near-exhausted side matches partially.
func matchWindow(fills []market.Fill, quote strategy.QuoteResult) (matched []market.MatchedFill, filledUp, filledDown float64) {
	for _, fill := range fills {
		if fill.Side != market.SideSell {
			continue
		}

		switch {
		case fill.Outcome == market.OutcomeUp && quote.QuoteUp && fill.Price <= quote.BidUp:
			remaining := quote.SizeUp - filledUp
			if remaining <= 0 {
				continue
			}
			size := fill.Size
			if size > remaining {
				size = remaining
			}
			matched = append(matched, market.MatchedFill{
				Timestamp: fill.Timestamp,
				Outcome:   market.OutcomeUp,
				Price:     quote.BidUp,
				Size:      size,
				Original:  fill,
			})
			filledUp += size

		case fill.Outcome == market.OutcomeDown && quote.QuoteDown && fill.Price <= quote.BidDown:
			remaining := quote.SizeDown - filledDown
			if remaining <= 0 {
				continue
			}
			size := fill.Size
			if size > remaining {
				size = remaining
			}
			matched = append(matched, market.MatchedFill{
				Timestamp: fill.Timestamp,
				Outcome:   market.OutcomeDown,
				Price:     quote.BidDown,
				Size:      size,
				Original:  fill,
			})
			filledDown += size
		}
	}
	return matched, filledUp, filledDown
}

// Run replays snapshots in order. Per snapshot: build top-of-book state,
// look up the oracle, quote, then match the window's fills and fold them
// into inventory. A position record is appended once per snapshot
// whether or not anything matched.
func (s *SnapshotSim) Run(quoter *strategy.Quoter, books []market.BookSnapshot, fills []market.Fill, oracle []market.OracleReading) (*SnapshotSimResult, error) {
	if quoter == nil {
		return nil, fmt.Errorf("snapshot sim: nil quoter")
	}
	if !sort.SliceIsSorted(books, func(i, j int) bool {
		return books[i].Timestamp < books[j].Timestamp
	}) {
		return nil, fmt.Errorf("snapshot sim: snapshots not sorted by timestamp")
	}
	if !fillsSorted(fills) {
		return nil, fmt.Errorf("snapshot sim: fills not sorted by timestamp")
	}
	if !oracleSorted(oracle) {
		return nil, fmt.Errorf("snapshot sim: oracle readings not sorted by timestamp")
	}

	inv := inventory.Zero()
	if s.InitialInventory != nil {
		inv = *s.InitialInventory
	}

	resolutionTS := s.ResolutionTimestamp
	if resolutionTS == 0 && len(books) > 0 {
		resolutionTS = books[len(books)-1].Timestamp + defaultResolutionGap
	}

	res := &SnapshotSimResult{Params: quoter.Params()}

	for i, snapshot := range books {
		mkt := strategy.BuildMarket(snapshot)

		trace := BookTrace{Timestamp: snapshot.Timestamp, BestAskUp: 0.5, BestAskDown: 0.5}
		if ask, ok := snapshot.Up.BestAsk(); ok {
			trace.BestAskUp = ask
		}
		if ask, ok := snapshot.Down.BestAsk(); ok {
			trace.BestAskDown = ask
		}
		res.BookHistory = append(res.BookHistory, trace)

		// Zero-value reading when there is no oracle data: threshold 0
		// reads as zero distance, which the engine treats as neutral.
		var reading market.OracleReading
		if snap := oracleAt(snapshot.Timestamp, oracle); snap != nil {
			reading = *snap
		}

		minutes := s.DefaultMinutesToResolution
		if resolutionTS > 0 {
			minutes = (resolutionTS - snapshot.Timestamp) / 60.0
			if minutes < 0 {
				minutes = 0
			}
		}

		quote := quoter.Quote(inv, mkt, reading, minutes)

		start := snapshot.Timestamp
		end := start + lastWindowSeconds
		if i+1 < len(books) {
			end = books[i+1].Timestamp
		}

		matched, _, _ := matchWindow(fillsInWindow(fills, start, end), quote)
		for _, mf := range matched {
			inv = inv.ApplyFill(mf.Outcome, mf.Size, mf.Price)
			res.MatchedFills = append(res.MatchedFills, mf)
			res.TotalVolume += mf.Size
			if mf.Outcome == market.OutcomeUp {
				res.UpFills++
				metrics.RecordMatch("up", mf.Size)
			} else {
				res.DownFills++
				metrics.RecordMatch("down", mf.Size)
			}
		}

		record := recordPosition(inv, snapshot.Timestamp)
		res.PositionHistory = append(res.PositionHistory, record)
		metrics.UpdatePositionMetrics(inv.Imbalance(), record.Pairs*record.PotentialProfit, 0)
	}

	res.FinalInventory = inv
	res.TotalFills = len(res.MatchedFills)
	res.FinalPnLPotential = inv.Pairs() * inv.PotentialProfit()

	s.log.Info("snapshot replay complete",
		zap.Int("snapshots", len(books)),
		zap.Int("fills_matched", res.TotalFills),
		zap.Float64("total_volume", res.TotalVolume),
		zap.Float64("pnl_potential", res.FinalPnLPotential))

	return res, nil
}
