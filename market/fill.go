package market

// Fill is an actual market execution, independent of whether it touched
// one of our quotes.
type Fill struct {
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      Side    `json:"side"`
	Timestamp float64 `json:"timestamp"`
	Outcome   Outcome `json:"outcome"`
}

// MatchedFill is our side's record of a market fill that hit our resting
// bid. Price is OUR bid, not the taker's print.
type MatchedFill struct {
	Timestamp float64
	Outcome   Outcome
	Price     float64
	Size      float64
	Original  Fill
}
