package strategy

import (
	"binary-mm-go/inventory"
	"binary-mm-go/market"
)

// SimpleQuote is a market maker's willingness to buy both outcome tokens.
// A side with HasUp/HasDown false is not quoted.
type SimpleQuote struct {
	BidUp    float64
	SizeUp   float64
	HasUp    bool
	BidDown  float64
	SizeDown float64
	HasDown  bool
}

// BookQuoter generates bids from a raw book snapshot and an optional
// oracle reading. Any implementation can drive the fill-driven simulator;
// both the four-layer engine (via TrackingQuoter) and BaselineQuoter
// satisfy it.
type BookQuoter interface {
	QuoteBook(book market.BookSnapshot, oracle *market.OracleReading) SimpleQuote
}

// FillObserver is an optional extension of BookQuoter. The fill-driven
// simulator notifies it after every matched fill so stateful quoters can
// track inventory.
type FillObserver interface {
	OnMatched(fill market.MatchedFill)
}

// BaselineQuoter is the simplest possible strategy: best bid minus a fixed
// offset, fixed size, oracle ignored. Used to establish a baseline before
// testing the layered engine.
type BaselineQuoter struct {
	Offset float64
	Size   float64
}

// NewBaselineQuoter creates a baseline quoter with an offset of 2 ticks
// and size 50 unless overridden.
func NewBaselineQuoter(offset, size float64) *BaselineQuoter {
	if offset == 0 {
		offset = 2 * market.TickSize
	}
	if size == 0 {
		size = 50
	}
	return &BaselineQuoter{Offset: offset, Size: size}
}

// QuoteBook quotes best_bid - offset on each side that has a bid at all.
func (b *BaselineQuoter) QuoteBook(book market.BookSnapshot, _ *market.OracleReading) SimpleQuote {
	var q SimpleQuote
	if best, ok := book.Up.BestBid(); ok {
		if bid := market.SnapToTick(best - b.Offset); bid > 0 {
			q.BidUp, q.SizeUp, q.HasUp = bid, b.Size, true
		}
	}
	if best, ok := book.Down.BestBid(); ok {
		if bid := market.SnapToTick(best - b.Offset); bid > 0 {
			q.BidDown, q.SizeDown, q.HasDown = bid, b.Size, true
		}
	}
	return q
}

// TrackingQuoter adapts the four-layer Quoter to the BookQuoter interface.
// It keeps its own running inventory (updated through OnMatched) and
// derives minutes-to-resolution from the snapshot timestamp.
type TrackingQuoter struct {
	Engine *Quoter
	// ResolutionTimestamp is the market's resolution time in unix seconds.
	ResolutionTimestamp float64

	inv inventory.Inventory
}

// NewTrackingQuoter wraps engine for fill-driven replay of a market
// resolving at resolutionTS.
func NewTrackingQuoter(engine *Quoter, resolutionTS float64) *TrackingQuoter {
	return &TrackingQuoter{Engine: engine, ResolutionTimestamp: resolutionTS, inv: inventory.Zero()}
}

// Inventory returns the quoter's current running inventory.
func (t *TrackingQuoter) Inventory() inventory.Inventory { return t.inv }

// SetInventory replaces the running inventory, used when a replay starts
// from a known position instead of flat.
func (t *TrackingQuoter) SetInventory(inv inventory.Inventory) { t.inv = inv }

// OnMatched folds a matched fill into the running inventory.
func (t *TrackingQuoter) OnMatched(fill market.MatchedFill) {
	t.inv = t.inv.ApplyFill(fill.Outcome, fill.Size, fill.Price)
}

// QuoteBook builds top-of-book state from the snapshot and runs the
// four-layer engine. Sides without liquidity fall back to a neutral
// 0.49/0.51 market; a nil oracle is treated as neutral.
func (t *TrackingQuoter) QuoteBook(book market.BookSnapshot, oracle *market.OracleReading) SimpleQuote {
	mkt := BuildMarket(book)

	var reading market.OracleReading
	if oracle != nil {
		reading = *oracle
	}

	minutes := 0.0
	if t.ResolutionTimestamp > book.Timestamp {
		minutes = (t.ResolutionTimestamp - book.Timestamp) / 60.0
	}

	res := t.Engine.Quote(t.inv, mkt, reading, minutes)
	return SimpleQuote{
		BidUp:    res.BidUp,
		SizeUp:   res.SizeUp,
		HasUp:    res.QuoteUp,
		BidDown:  res.BidDown,
		SizeDown: res.SizeDown,
		HasDown:  res.QuoteDown,
	}
}

// BuildMarket extracts top-of-book state from a snapshot, substituting a
// conservative neutral 0.49/0.51 for any empty side.
func BuildMarket(book market.BookSnapshot) market.Quote {
	mkt := market.Quote{BestAskUp: 0.51, BestBidUp: 0.49, BestAskDown: 0.51, BestBidDown: 0.49}
	if v, ok := book.Up.BestAsk(); ok {
		mkt.BestAskUp = v
	}
	if v, ok := book.Up.BestBid(); ok {
		mkt.BestBidUp = v
	}
	if v, ok := book.Down.BestAsk(); ok {
		mkt.BestAskDown = v
	}
	if v, ok := book.Down.BestBid(); ok {
		mkt.BestBidDown = v
	}
	return mkt
}
