package sim

import (
	"math"
	"testing"

	"binary-mm-go/market"
	"binary-mm-go/strategy"
)

func testFills() []market.Fill {
	return []market.Fill{
		{Price: 0.52, Size: 20, Side: market.SideSell, Timestamp: 1010, Outcome: market.OutcomeUp},
		{Price: 0.56, Size: 15, Side: market.SideBuy, Timestamp: 1020, Outcome: market.OutcomeUp},
		{Price: 0.40, Size: 25, Side: market.SideSell, Timestamp: 1030, Outcome: market.OutcomeDown},
	}
}

func TestFillSimMatchesSellFillsAtOurBid(t *testing.T) {
	rec, err := NewReconstructor(testRaw())
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}

	// Best bids 0.55 / 0.45, so we rest at 0.53 / 0.43.
	quoter := strategy.NewBaselineQuoter(0.02, 50)

	res, err := NewFillSim(nil).Run(quoter, rec, testFills(), nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalFillsConsidered != 2 {
		t.Errorf("considered = %d, want 2 (buy excluded)", res.TotalFillsConsidered)
	}
	if res.TotalFillsMatched != 2 || res.UpFills != 1 || res.DownFills != 1 {
		t.Errorf("matched = %d up=%d down=%d, want 2/1/1", res.TotalFillsMatched, res.UpFills, res.DownFills)
	}
	if res.TotalVolume != 45 {
		t.Errorf("volume = %v, want 45", res.TotalVolume)
	}

	// Fills execute at our resting bid, not the printed price.
	if res.MatchedFills[0].Price != 0.53 {
		t.Errorf("up match price = %v, want 0.53", res.MatchedFills[0].Price)
	}
	if res.MatchedFills[1].Price != 0.43 {
		t.Errorf("down match price = %v, want 0.43", res.MatchedFills[1].Price)
	}

	inv := res.FinalInventory
	if inv.UpQty != 20 || math.Abs(inv.UpAvg-0.53) > 1e-12 {
		t.Errorf("up position = %v @ %v, want 20 @ 0.53", inv.UpQty, inv.UpAvg)
	}
	if inv.DownQty != 25 || math.Abs(inv.DownAvg-0.43) > 1e-12 {
		t.Errorf("down position = %v @ %v, want 25 @ 0.43", inv.DownQty, inv.DownAvg)
	}

	if len(res.PositionHistory) != 2 {
		t.Fatalf("position history = %d entries, want one per match", len(res.PositionHistory))
	}

	// 20 pairs at combined 0.96, plus 5 excess DOWN marked at 0.45.
	wantMerged := 20 * (1 - 0.96)
	wantDirectional := 5 * (0.45 - 0.43)
	if math.Abs(res.FinalMergedPnL-wantMerged) > 1e-9 {
		t.Errorf("merged pnl = %v, want %v", res.FinalMergedPnL, wantMerged)
	}
	if math.Abs(res.FinalDirectionalPnL-wantDirectional) > 1e-9 {
		t.Errorf("directional pnl = %v, want %v", res.FinalDirectionalPnL, wantDirectional)
	}
	if math.Abs(res.FinalTotalPnL-(wantMerged+wantDirectional)) > 1e-9 {
		t.Errorf("total pnl = %v, want merged+directional", res.FinalTotalPnL)
	}
}

func TestFillSimSellAboveBidNotMatched(t *testing.T) {
	rec, err := NewReconstructor(testRaw())
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}

	fills := []market.Fill{
		{Price: 0.54, Size: 10, Side: market.SideSell, Timestamp: 1010, Outcome: market.OutcomeUp},
	}

	res, err := NewFillSim(nil).Run(strategy.NewBaselineQuoter(0.02, 50), rec, fills, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalFillsConsidered != 1 || res.TotalFillsMatched != 0 {
		t.Errorf("considered=%d matched=%d, want 1/0", res.TotalFillsConsidered, res.TotalFillsMatched)
	}
	if len(res.PositionHistory) != 0 {
		t.Errorf("position history = %d entries, want 0", len(res.PositionHistory))
	}
	if res.FinalTotalPnL != 0 {
		t.Errorf("total pnl = %v, want 0", res.FinalTotalPnL)
	}
}

func TestFillSimIgnoresBuyFills(t *testing.T) {
	rec, err := NewReconstructor(testRaw())
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}

	fills := []market.Fill{
		{Price: 0.10, Size: 10, Side: market.SideBuy, Timestamp: 1010, Outcome: market.OutcomeUp},
		{Price: 0.10, Size: 10, Side: market.SideBuy, Timestamp: 1020, Outcome: market.OutcomeDown},
	}

	res, err := NewFillSim(nil).Run(strategy.NewBaselineQuoter(0.02, 50), rec, fills, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.TotalFillsConsidered != 0 || res.TotalFillsMatched != 0 {
		t.Errorf("considered=%d matched=%d, want 0/0", res.TotalFillsConsidered, res.TotalFillsMatched)
	}
}

func TestFillSimMarksAgainstBookAtFillTime(t *testing.T) {
	// A bid improvement arriving at exactly the fill's timestamp is
	// invisible to the quote (built just before the fill) but visible
	// to the mark-to-market.
	rec, err := NewReconstructor(testRaw(
		market.Delta{Timestamp: 1010, AssetID: testUpToken, Price: 0.60, Size: 10, Side: "buy"},
	))
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}

	fills := []market.Fill{
		{Price: 0.50, Size: 10, Side: market.SideSell, Timestamp: 1010, Outcome: market.OutcomeUp},
	}

	res, err := NewFillSim(nil).Run(strategy.NewBaselineQuoter(0.02, 50), rec, fills, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalFillsMatched != 1 {
		t.Fatalf("matched = %d, want 1", res.TotalFillsMatched)
	}
	if res.MatchedFills[0].Price != 0.53 {
		t.Errorf("match price = %v, want 0.53 from the pre-fill book", res.MatchedFills[0].Price)
	}
	if got := res.PositionHistory[0].MarkPrice; got != 0.60 {
		t.Errorf("mark price = %v, want 0.60 from the at-fill book", got)
	}
}

func TestFillSimTrackingQuoterSkewsAfterFills(t *testing.T) {
	rec, err := NewReconstructor(testRaw())
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}

	engine := strategy.NewQuoter(strategy.DefaultParams())
	tq := strategy.NewTrackingQuoter(engine, 7000)

	fills := []market.Fill{
		{Price: 0.52, Size: 20, Side: market.SideSell, Timestamp: 1010, Outcome: market.OutcomeUp},
		{Price: 0.50, Size: 10, Side: market.SideSell, Timestamp: 1020, Outcome: market.OutcomeUp},
	}

	res, err := NewFillSim(nil).Run(tq, rec, fills, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if res.TotalFillsMatched != 2 {
		t.Fatalf("matched = %d, want 2", res.TotalFillsMatched)
	}

	// Flat book: first bid at 0.55 - 0.02. After going long UP the
	// multiplier widens the offset to 0.03, so the second bid drops.
	if res.MatchedFills[0].Price != 0.53 {
		t.Errorf("first match price = %v, want 0.53", res.MatchedFills[0].Price)
	}
	if res.MatchedFills[1].Price != 0.52 {
		t.Errorf("second match price = %v, want 0.52 after skew", res.MatchedFills[1].Price)
	}

	if tq.Inventory() != res.FinalInventory {
		t.Errorf("tracking quoter inventory %+v diverged from result %+v", tq.Inventory(), res.FinalInventory)
	}
}

func TestFillSimOracleHistoryDeduped(t *testing.T) {
	rec, err := NewReconstructor(testRaw())
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}

	oracle := []market.OracleReading{
		{Price: 97000, Threshold: 97000, Timestamp: 900},
		{Price: 97100, Threshold: 97000, Timestamp: 1015},
	}
	fills := []market.Fill{
		{Price: 0.52, Size: 5, Side: market.SideSell, Timestamp: 1010, Outcome: market.OutcomeUp},
		{Price: 0.40, Size: 5, Side: market.SideSell, Timestamp: 1020, Outcome: market.OutcomeDown},
	}

	res, err := NewFillSim(nil).Run(strategy.NewBaselineQuoter(0.02, 50), rec, fills, oracle)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(res.OracleHistory) != 2 {
		t.Fatalf("oracle history = %d entries, want 2", len(res.OracleHistory))
	}
	if res.OracleHistory[0].Timestamp != 900 || res.OracleHistory[1].Timestamp != 1015 {
		t.Errorf("oracle history timestamps = %v, %v", res.OracleHistory[0].Timestamp, res.OracleHistory[1].Timestamp)
	}
}

func TestFillSimInputValidation(t *testing.T) {
	rec, err := NewReconstructor(testRaw())
	if err != nil {
		t.Fatalf("NewReconstructor: %v", err)
	}
	quoter := strategy.NewBaselineQuoter(0.02, 50)

	unsorted := []market.Fill{
		{Price: 0.52, Size: 5, Side: market.SideSell, Timestamp: 1020, Outcome: market.OutcomeUp},
		{Price: 0.52, Size: 5, Side: market.SideSell, Timestamp: 1010, Outcome: market.OutcomeUp},
	}
	if _, err := NewFillSim(nil).Run(quoter, rec, unsorted, nil); err == nil {
		t.Error("expected error for unsorted fills")
	}
	if _, err := NewFillSim(nil).Run(nil, rec, nil, nil); err == nil {
		t.Error("expected error for nil quoter")
	}
	if _, err := NewFillSim(nil).Run(quoter, nil, nil, nil); err == nil {
		t.Error("expected error for nil reconstructor")
	}
}

func TestOracleAt(t *testing.T) {
	readings := []market.OracleReading{
		{Price: 100, Threshold: 99, Timestamp: 10},
		{Price: 101, Threshold: 99, Timestamp: 20},
		{Price: 102, Threshold: 99, Timestamp: 30},
	}

	if got := oracleAt(5, nil); got != nil {
		t.Errorf("oracleAt with no data = %+v, want nil", got)
	}
	if got := oracleAt(5, readings); got.Timestamp != 10 {
		t.Errorf("before all data: got ts %v, want first reading", got.Timestamp)
	}
	if got := oracleAt(20, readings); got.Timestamp != 20 {
		t.Errorf("exact timestamp: got ts %v, want 20", got.Timestamp)
	}
	if got := oracleAt(25, readings); got.Timestamp != 20 {
		t.Errorf("between readings: got ts %v, want 20", got.Timestamp)
	}
	if got := oracleAt(99, readings); got.Timestamp != 30 {
		t.Errorf("after all data: got ts %v, want last reading", got.Timestamp)
	}
}
