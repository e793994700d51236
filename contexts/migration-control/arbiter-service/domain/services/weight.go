package services

import "math"

const weightPrecision = 1e9

// NormalizeWeight clamps w into [0, 1] and strips float accumulation noise so
// repeated increments land on exact decimal steps (0.8+0.1 == 0.9).
func NormalizeWeight(w float64) float64 {
	if math.IsNaN(w) || w <= 0 {
		return 0
	}
	if w >= 1 {
		return 1
	}
	return math.Round(w*weightPrecision) / weightPrecision
}

// NextWeight is the promotion candidate for the current weight.
func NextWeight(current float64, increment float64) float64 {
	return NormalizeWeight(math.Min(current+increment, 1.0))
}
