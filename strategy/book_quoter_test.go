package strategy

import (
	"testing"

	"binary-mm-go/market"
)

func testSnapshot() market.BookSnapshot {
	return market.BookSnapshot{
		Up: market.Book{
			Bids: []market.Level{{Price: 0.55, Size: 100}, {Price: 0.54, Size: 200}},
			Asks: []market.Level{{Price: 0.57, Size: 100}},
		},
		Down: market.Book{
			Bids: []market.Level{{Price: 0.43, Size: 100}},
			Asks: []market.Level{{Price: 0.45, Size: 100}},
		},
		Timestamp: 1000,
	}
}

func TestBaselineQuoter(t *testing.T) {
	bq := NewBaselineQuoter(0.02, 50)

	q := bq.QuoteBook(testSnapshot(), nil)

	if !q.HasUp || q.BidUp != 0.53 || q.SizeUp != 50 {
		t.Errorf("up quote = %+v, want bid 0.53 size 50", q)
	}
	if !q.HasDown || q.BidDown != 0.41 || q.SizeDown != 50 {
		t.Errorf("down quote = %+v, want bid 0.41 size 50", q)
	}
}

func TestBaselineQuoterEmptySide(t *testing.T) {
	snap := testSnapshot()
	snap.Down.Bids = nil

	q := NewBaselineQuoter(0.02, 50).QuoteBook(snap, nil)

	if q.HasDown {
		t.Error("empty down book should not be quoted")
	}
	if !q.HasUp {
		t.Error("up side should still be quoted")
	}
}

func TestBaselineQuoterNonPositiveBid(t *testing.T) {
	snap := testSnapshot()
	snap.Up.Bids = []market.Level{{Price: 0.01, Size: 10}}

	q := NewBaselineQuoter(0.02, 50).QuoteBook(snap, nil)

	if q.HasUp {
		t.Error("bid at or below zero must be suppressed")
	}
}

func TestBuildMarketDefaults(t *testing.T) {
	mkt := BuildMarket(market.BookSnapshot{Timestamp: 1})
	if mkt.BestBidUp != 0.49 || mkt.BestAskUp != 0.51 || mkt.BestBidDown != 0.49 || mkt.BestAskDown != 0.51 {
		t.Errorf("empty snapshot should yield neutral market, got %+v", mkt)
	}
}

func TestTrackingQuoterUpdatesInventory(t *testing.T) {
	tq := NewTrackingQuoter(NewQuoter(DefaultParams()), 2000)

	q := tq.QuoteBook(testSnapshot(), &market.OracleReading{Price: 97000, Threshold: 97000})
	if !q.HasUp && !q.HasDown {
		t.Fatal("expected at least one quoted side")
	}

	tq.OnMatched(market.MatchedFill{Timestamp: 1001, Outcome: market.OutcomeUp, Price: 0.52, Size: 20})
	inv := tq.Inventory()
	if inv.UpQty != 20 || inv.UpAvg != 0.52 {
		t.Errorf("inventory after match = %+v", inv)
	}

	// Overweight UP must now shrink the UP size relative to DOWN.
	q2 := tq.QuoteBook(testSnapshot(), &market.OracleReading{Price: 97000, Threshold: 97000})
	if q2.HasUp && q2.HasDown && q2.SizeUp >= q2.SizeDown {
		t.Errorf("sizes after UP-heavy fill = %v/%v, want up < down", q2.SizeUp, q2.SizeDown)
	}
}

func TestTrackingQuoterNilOracle(t *testing.T) {
	tq := NewTrackingQuoter(NewQuoter(DefaultParams()), 2000)
	q := tq.QuoteBook(testSnapshot(), nil)
	// Neutral oracle context: must not panic and should still quote.
	if !q.HasUp {
		t.Error("nil oracle should be treated as neutral, not suppress quoting")
	}
}
