package market

// Outcome identifies one of the two complementary tokens. Exactly one pays
// $1 at resolution, the other $0.
type Outcome string

const (
	OutcomeUp   Outcome = "up"
	OutcomeDown Outcome = "down"
)

// Side is the aggressor side of a trade.
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// Quote is the instantaneous top-of-book state for both outcomes.
type Quote struct {
	BestAskUp   float64
	BestBidUp   float64
	BestAskDown float64
	BestBidDown float64
}

// Overround returns how far the two asks sum above $1.00.
func (q Quote) Overround() float64 {
	return q.BestAskUp + q.BestAskDown - 1.0
}

// Underround returns how far the two bids sum below $1.00.
func (q Quote) Underround() float64 {
	return 1.0 - (q.BestBidUp + q.BestBidDown)
}

// OracleReading is an external reference price against the market question
// threshold (e.g. the BTC spot price for "BTC above 97000 at 15:00?").
type OracleReading struct {
	Price     float64 `json:"price"`
	Threshold float64 `json:"threshold"`
	Timestamp float64 `json:"timestamp"`
}

// DistancePct is how far the oracle price sits from the threshold,
// normalized by the threshold. A zero threshold is degenerate input and
// yields 0 rather than dividing by zero.
func (o OracleReading) DistancePct() float64 {
	if o.Threshold == 0 {
		return 0
	}
	return (o.Price - o.Threshold) / o.Threshold
}

// Direction reports which side of the threshold the oracle currently sits.
func (o OracleReading) Direction() string {
	switch {
	case o.Price > o.Threshold:
		return "ABOVE"
	case o.Price < o.Threshold:
		return "BELOW"
	}
	return "AT"
}
