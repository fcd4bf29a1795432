package calculator

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Round2 rounds half away from zero to 2 decimal places.
// NaN and ±Inf pass through unchanged.
func Round2(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// fraction turns a percent into a fraction, clamping negatives to 0.
func fraction(percent float64) float64 {
	if percent < 0 {
		return 0
	}
	return percent / 100
}

// Format2 renders v with exactly two decimals.
func Format2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
