// Package money provides deterministic currency arithmetic: banker's
// rounding, summation and fixed-decimal formatting.
package money

import (
	"math"
	"strconv"
)

// Round rounds v to the given number of decimal places using round-half-to-even
// (banker's rounding). Half-way values go to the nearest even digit, so
// repeated rounding of sums does not drift in one direction.
func Round(v float64, places int) float64 {
	pow := math.Pow(10, float64(places))
	scaled := v * pow
	floor := math.Floor(scaled)
	diff := scaled - floor

	// Binary floats land a hair off exact halves (2.45*10 = 24.500000000000004),
	// so treat anything within epsilon of .5 as a half.
	const eps = 1e-9
	var out float64
	switch {
	case diff > 0.5+eps:
		out = floor + 1
	case diff < 0.5-eps:
		out = floor
	default:
		if math.Mod(math.Abs(floor), 2) < eps {
			out = floor
		} else {
			out = floor + 1
		}
	}
	return out / pow
}

// Sum adds values and rounds the result to places.
func Sum(values []float64, places int) float64 {
	var total float64
	for _, v := range values {
		total += v
	}
	return Round(total, places)
}

// Format2 renders v with exactly two decimal places, e.g. "45.50".
func Format2(v float64) string {
	return strconv.FormatFloat(Round(v, 2), 'f', 2, 64)
}

// Format6 renders v with exactly six decimal places, e.g. "1.270000".
func Format6(v float64) string {
	return strconv.FormatFloat(Round(v, 6), 'f', 6, 64)
}
