package model

import "math"

// RoundCents rounds a monetary amount to two decimal places. All billing
// math in the service goes through this one function so discount and total
// rounding can never diverge.
func RoundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
