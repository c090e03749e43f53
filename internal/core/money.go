// Package core provides money rounding and formatting utilities.
//
// Sums are carried as float64 internally and rounded to cents only when they leave
// the system (JSON, templates), so repeated aggregation never compounds rounding error.
package core

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// RoundCents rounds v half away from zero to two decimal places.
//
// Examples:
//   RoundCents(12.344) -> 12.34
//   RoundCents(12.345) -> 12.35
//   RoundCents(0.1+0.2) -> 0.3
//
// NaN and infinities have no cent value and round to 0.
func RoundCents(v float64) float64 {
	if !finite(v) {
		return 0
	}
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// FormatDollars renders v as a currency string with two decimals (e.g. "$1,234.50").
// Non-finite values render as "n/a".
func FormatDollars(v float64) string {
	if !finite(v) {
		return "n/a"
	}
	d := decimal.NewFromFloat(v).Round(2)
	neg := d.IsNegative()
	s := d.Abs().StringFixed(2)

	intPart, frac := s[:len(s)-3], s[len(s)-2:]
	var grouped []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped = append(grouped, ',')
		}
		grouped = append(grouped, intPart[i])
	}
	out := "$" + string(grouped) + "." + frac
	if neg {
		return "-" + out
	}
	return out
}

// FormatFloat writes v with the shortest representation that parses back to v.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
