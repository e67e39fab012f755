package market

// Level is a single price level in an order book.
type Level struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// Book is one side's order book (the book for one outcome token).
type Book struct {
	Bids []Level `json:"bids"`
	Asks []Level `json:"asks"`
}

// BestBid returns the highest bid price. ok is false when there are no
// bids.
func (b Book) BestBid() (price float64, ok bool) {
	for i, l := range b.Bids {
		if i == 0 || l.Price > price {
			price = l.Price
		}
	}
	return price, len(b.Bids) > 0
}

// BestAsk returns the lowest ask price. ok is false when there are no
// asks.
func (b Book) BestAsk() (price float64, ok bool) {
	for i, l := range b.Asks {
		if i == 0 || l.Price < price {
			price = l.Price
		}
	}
	return price, len(b.Asks) > 0
}

// BookSnapshot pairs the UP and DOWN books at a point in time.
type BookSnapshot struct {
	Up        Book    `json:"up"`
	Down      Book    `json:"down"`
	Timestamp float64 `json:"timestamp"`
}

// ByOutcome returns the book for the given outcome.
func (s BookSnapshot) ByOutcome(o Outcome) Book {
	if o == OutcomeUp {
		return s.Up
	}
	return s.Down
}

// Delta is one incremental level update from the raw feed. Size replaces
// the level's resting size; size 0 removes the level. asset_id maps to the
// UP or DOWN token via the raw file header.
type Delta struct {
	Timestamp float64 `json:"timestamp"`
	AssetID   string  `json:"asset_id"`
	Price     float64 `json:"price"`
	Size      float64 `json:"size"`
	Side      string  `json:"side"`
}
