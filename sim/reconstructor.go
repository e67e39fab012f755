// Package sim replays recorded market data against quoting strategies.
//
// Two engines are provided: FillSim iterates real fills with on-demand
// book reconstruction and full PnL marking, SnapshotSim iterates book
// snapshots and matches fills inside each snapshot window. Both consume
// the JSON capture formats written by the recorder tooling.
package sim

import (
	"fmt"
	"sort"
	"strconv"

	"binary-mm-go/market"
)

// RawSnapshot is the full-depth starting state for one token in a raw
// capture file.
type RawSnapshot struct {
	Timestamp float64        `json:"timestamp"`
	Bids      []market.Level `json:"bids"`
	Asks      []market.Level `json:"asks"`
}

// RawBookData is the on-disk orderbooks_raw.json format: one initial
// snapshot per token plus the stream of incremental price changes. The
// delta stream is keyed by asset_id, resolved against the two token ids
// in the header.
type RawBookData struct {
	UpTokenID        string                 `json:"up_token_id"`
	DownTokenID      string                 `json:"down_token_id"`
	InitialSnapshots map[string]RawSnapshot `json:"initial_snapshots"`
	PriceChanges     []market.Delta         `json:"price_changes"`
}

// priceKey is the map key for a price level. Prices round-trip through
// JSON, so keying on the shortest decimal form gives exact matching
// between a level's insert and its later removal.
func priceKey(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// Reconstructor rebuilds book state on demand from the raw capture
// format. It is forward-only: BookAt must be called with non-decreasing
// timestamps, so each delta is applied exactly once and a full replay
// stays O(deltas) regardless of how many lookups are made.
type Reconstructor struct {
	upTokenID   string
	downTokenID string

	upBids   map[string]float64
	upAsks   map[string]float64
	downBids map[string]float64
	downAsks map[string]float64

	changes     []market.Delta
	changeTS    []float64
	lastApplied int

	initialTimestamp float64
}

// NewReconstructor initializes state from raw capture data. Price
// changes are sorted by timestamp; the capture files are already
// chronological but the recorder does not guarantee it across
// reconnects.
func NewReconstructor(raw RawBookData) (*Reconstructor, error) {
	if raw.UpTokenID == "" || raw.DownTokenID == "" {
		return nil, fmt.Errorf("raw book data missing token ids")
	}

	r := &Reconstructor{
		upTokenID:   raw.UpTokenID,
		downTokenID: raw.DownTokenID,
		upBids:      make(map[string]float64),
		upAsks:      make(map[string]float64),
		downBids:    make(map[string]float64),
		downAsks:    make(map[string]float64),
		lastApplied: -1,
	}

	for tokenID, snapshot := range raw.InitialSnapshots {
		if snapshot.Timestamp > r.initialTimestamp {
			r.initialTimestamp = snapshot.Timestamp
		}
		var bids, asks map[string]float64
		switch tokenID {
		case raw.UpTokenID:
			bids, asks = r.upBids, r.upAsks
		case raw.DownTokenID:
			bids, asks = r.downBids, r.downAsks
		default:
			continue
		}
		for _, level := range snapshot.Bids {
			bids[priceKey(level.Price)] = level.Size
		}
		for _, level := range snapshot.Asks {
			asks[priceKey(level.Price)] = level.Size
		}
	}

	r.changes = make([]market.Delta, len(raw.PriceChanges))
	copy(r.changes, raw.PriceChanges)
	sort.SliceStable(r.changes, func(i, j int) bool {
		return r.changes[i].Timestamp < r.changes[j].Timestamp
	})
	r.changeTS = make([]float64, len(r.changes))
	for i, c := range r.changes {
		r.changeTS[i] = c.Timestamp
	}

	return r, nil
}

// InitialTimestamp is the timestamp of the initial snapshot state.
func (r *Reconstructor) InitialTimestamp() float64 {
	return r.initialTimestamp
}

// FinalTimestamp is the timestamp of the last price change, or the
// initial timestamp when there are none.
func (r *Reconstructor) FinalTimestamp() float64 {
	if len(r.changeTS) > 0 {
		return r.changeTS[len(r.changeTS)-1]
	}
	return r.initialTimestamp
}

// BookAt returns book state at the given timestamp, applying any
// not-yet-applied deltas with timestamp <= ts. Requesting a timestamp
// earlier than a previous call returns the later state; callers replay
// chronologically.
func (r *Reconstructor) BookAt(ts float64) market.BookSnapshot {
	if len(r.changeTS) == 0 {
		return r.buildSnapshot(ts)
	}

	// Index of the last change at or before ts.
	target := sort.Search(len(r.changeTS), func(i int) bool {
		return r.changeTS[i] > ts
	}) - 1

	for i := r.lastApplied + 1; i <= target; i++ {
		r.apply(r.changes[i])
	}
	if target > r.lastApplied {
		r.lastApplied = target
	}

	return r.buildSnapshot(ts)
}

func (r *Reconstructor) apply(change market.Delta) {
	var bids, asks map[string]float64
	switch change.AssetID {
	case r.upTokenID:
		bids, asks = r.upBids, r.upAsks
	case r.downTokenID:
		bids, asks = r.downBids, r.downAsks
	default:
		return
	}

	book := asks
	if change.Side == "buy" || change.Side == "BUY" {
		book = bids
	}

	key := priceKey(change.Price)
	if change.Size > 0 {
		book[key] = change.Size
	} else {
		delete(book, key)
	}
}

func (r *Reconstructor) buildSnapshot(ts float64) market.BookSnapshot {
	return market.BookSnapshot{
		Up:        market.Book{Bids: levelsFrom(r.upBids, false), Asks: levelsFrom(r.upAsks, true)},
		Down:      market.Book{Bids: levelsFrom(r.downBids, false), Asks: levelsFrom(r.downAsks, true)},
		Timestamp: ts,
	}
}

// levelsFrom materializes a price->size map as sorted levels, bids
// descending and asks ascending, dropping empty levels.
func levelsFrom(m map[string]float64, ascending bool) []market.Level {
	levels := make([]market.Level, 0, len(m))
	for key, size := range m {
		if size <= 0 {
			continue
		}
		price, err := strconv.ParseFloat(key, 64)
		if err != nil {
			continue
		}
		levels = append(levels, market.Level{Price: price, Size: size})
	}
	sort.Slice(levels, func(i, j int) bool {
		if ascending {
			return levels[i].Price < levels[j].Price
		}
		return levels[i].Price > levels[j].Price
	})
	return levels
}

// SnapshotsFromRaw materializes one snapshot per unique delta timestamp,
// preceded by the initial state. Used by the snapshot engine; the fill
// engine reconstructs lazily via BookAt instead.
func SnapshotsFromRaw(raw RawBookData) ([]market.BookSnapshot, error) {
	r, err := NewReconstructor(raw)
	if err != nil {
		return nil, err
	}

	var out []market.BookSnapshot
	if r.initialTimestamp > 0 {
		out = append(out, r.buildSnapshot(r.initialTimestamp))
	}

	i := 0
	for i < len(r.changes) {
		ts := r.changeTS[i]
		for i < len(r.changes) && r.changeTS[i] == ts {
			r.apply(r.changes[i])
			i++
		}
		out = append(out, r.buildSnapshot(ts))
	}
	r.lastApplied = len(r.changes) - 1

	return out, nil
}
