// Package inventory tracks the position held in both outcome tokens of a
// binary market.
//
// Profit comes from holding BOTH sides: a pair of one UP and one DOWN
// token redeems for $1.00 regardless of the outcome, so the profit per
// pair is 1.00 minus the combined average acquisition cost.
package inventory

import "binary-mm-go/market"

// Inventory is an immutable position value. Averages are volume-weighted
// acquisition costs and are only meaningful while the matching quantity is
// positive. Updates go through ApplyFill, which returns a new value; the
// same Inventory may therefore be referenced from any number of history
// entries safely.
type Inventory struct {
	UpQty   float64
	UpAvg   float64
	DownQty float64
	DownAvg float64
}

// Zero returns the neutral starting inventory. The 0.5 averages are
// placeholders until a first fill arrives on each side.
func Zero() Inventory {
	return Inventory{UpAvg: 0.5, DownAvg: 0.5}
}

// CombinedAvg is the total cost per pair: UpAvg + DownAvg. Below 1.00 the
// matched pairs are profitable; above, underwater.
func (i Inventory) CombinedAvg() float64 {
	return i.UpAvg + i.DownAvg
}

// Imbalance is the normalized directional exposure
// (UpQty - DownQty) / (UpQty + DownQty), in [-1, 1]. Zero when flat or
// perfectly balanced.
func (i Inventory) Imbalance() float64 {
	total := i.UpQty + i.DownQty
	if total == 0 {
		return 0
	}
	return (i.UpQty - i.DownQty) / total
}

// Pairs is the number of redeemable UP+DOWN pairs: min(UpQty, DownQty).
func (i Inventory) Pairs() float64 {
	if i.UpQty < i.DownQty {
		return i.UpQty
	}
	return i.DownQty
}

// PotentialProfit is the profit per pair if redeemed: 1 - CombinedAvg.
func (i Inventory) PotentialProfit() float64 {
	return 1.0 - i.CombinedAvg()
}

// ApplyFill returns the inventory after buying qty tokens of the given
// outcome at price, recomputing that side's weighted average cost. The
// receiver is not modified.
func (i Inventory) ApplyFill(outcome market.Outcome, qty, price float64) Inventory {
	if outcome == market.OutcomeUp {
		newQty := i.UpQty + qty
		newAvg := i.UpAvg
		if newQty > 0 {
			newAvg = (i.UpQty*i.UpAvg + qty*price) / newQty
		}
		return Inventory{UpQty: newQty, UpAvg: newAvg, DownQty: i.DownQty, DownAvg: i.DownAvg}
	}
	newQty := i.DownQty + qty
	newAvg := i.DownAvg
	if newQty > 0 {
		newAvg = (i.DownQty*i.DownAvg + qty*price) / newQty
	}
	return Inventory{UpQty: i.UpQty, UpAvg: i.UpAvg, DownQty: newQty, DownAvg: newAvg}
}
