// Package util provides common utility functions for price calculations.
package util

import "math"

// RoundToTick rounds x to the nearest tick increment, ties away from zero.
// For example, with tick=0.01, 1.2345 becomes 1.23 and 1.235 becomes 1.24.
// A zero tick returns x unchanged; a negative tick rounds by its magnitude.
func RoundToTick(x, tick float64) float64 {
	if tick == 0 {
		return x
	}
	tick = math.Abs(tick)
	return math.Round(x/tick) * tick
}

// FloorToTick rounds x down to the nearest tick multiple.
func FloorToTick(x, tick float64) float64 {
	if tick == 0 {
		return x
	}
	tick = math.Abs(tick)
	return math.Floor(x/tick) * tick
}

// CeilToTick rounds x up to the nearest tick multiple.
func CeilToTick(x, tick float64) float64 {
	if tick == 0 {
		return x
	}
	tick = math.Abs(tick)
	return math.Ceil(x/tick) * tick
}

// Clamp limits x to the closed interval [lo, hi].
func Clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}
