package inventory

import (
	"math"
	"testing"

	"binary-mm-go/market"
)

func TestApplyFillWeightedAverage(t *testing.T) {
	inv := Zero()
	inv = inv.ApplyFill(market.OutcomeUp, 100, 0.48)
	if inv.UpQty != 100 || inv.UpAvg != 0.48 {
		t.Fatalf("after first fill: qty=%v avg=%v", inv.UpQty, inv.UpAvg)
	}
	inv = inv.ApplyFill(market.OutcomeUp, 100, 0.52)
	if inv.UpQty != 200 {
		t.Fatalf("qty = %v, want 200", inv.UpQty)
	}
	if math.Abs(inv.UpAvg-0.50) > 1e-12 {
		t.Fatalf("avg = %v, want 0.50", inv.UpAvg)
	}
	// DOWN side untouched.
	if inv.DownQty != 0 || inv.DownAvg != 0.5 {
		t.Fatalf("down side changed: qty=%v avg=%v", inv.DownQty, inv.DownAvg)
	}
}

func TestApplyFillReturnsNewValue(t *testing.T) {
	before := Zero()
	after := before.ApplyFill(market.OutcomeDown, 50, 0.44)
	if before.DownQty != 0 {
		t.Fatal("ApplyFill mutated receiver")
	}
	if after.DownQty != 50 || after.DownAvg != 0.44 {
		t.Fatalf("unexpected result: %+v", after)
	}
}

func TestDerivedMetrics(t *testing.T) {
	inv := Inventory{UpQty: 150, UpAvg: 0.48, DownQty: 50, DownAvg: 0.45}

	if got, want := inv.CombinedAvg(), inv.UpAvg+inv.DownAvg; got != want {
		t.Errorf("CombinedAvg = %v, want %v", got, want)
	}
	if got := inv.Pairs(); got != 50 {
		t.Errorf("Pairs = %v, want 50", got)
	}
	if got, want := inv.Imbalance(), 0.5; got != want {
		t.Errorf("Imbalance = %v, want %v", got, want)
	}
	if got, want := inv.PotentialProfit(), 1.0-0.93; math.Abs(got-want) > 1e-12 {
		t.Errorf("PotentialProfit = %v, want %v", got, want)
	}
}

func TestImbalanceRange(t *testing.T) {
	tests := []struct {
		name     string
		up, down float64
		check    func(q float64) bool
	}{
		{"both zero", 0, 0, func(q float64) bool { return q == 0 }},
		{"balanced", 70, 70, func(q float64) bool { return q == 0 }},
		{"overweight up", 150, 50, func(q float64) bool { return q > 0 && q <= 1 }},
		{"all up", 100, 0, func(q float64) bool { return q == 1 }},
		{"overweight down", 20, 80, func(q float64) bool { return q < 0 && q >= -1 }},
		{"all down", 0, 100, func(q float64) bool { return q == -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Inventory{UpQty: tt.up, DownQty: tt.down}.Imbalance()
			if !tt.check(q) {
				t.Errorf("Imbalance(%v,%v) = %v out of expected range", tt.up, tt.down, q)
			}
		})
	}
}
