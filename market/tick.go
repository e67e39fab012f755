package market

import "math"

// TickSize is the minimum valid price increment. Polymarket-style binary
// markets only accept prices on a whole-cent grid (0.01 .. 0.99).
const TickSize = 0.01

// SnapToTick snaps a price to the nearest valid tick. Any price off the
// cent grid is invalid for a resting quote.
//
//	SnapToTick(0.515)  -> 0.52
//	SnapToTick(0.494)  -> 0.49
//	SnapToTick(0.4875) -> 0.49
func SnapToTick(v float64) float64 {
	// Scale by 100 rather than dividing by TickSize: 0.515/0.01 lands just
	// under 51.5 in float64 and would round the wrong way.
	return math.Round(v*100) / 100
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
