// Package numfmt converts arbitrary-magnitude decimal quantities to and from
// the short-scale display strings used by the game UI ("1.50K", "2.50M").
package numfmt

import (
	"fmt"
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Short-scale suffixes up to decillion. Values past the table fall back to
// exponential notation.
var suffixes = []string{"", "K", "M", "B", "T", "Qa", "Qi", "Sx", "Sp", "Oc", "No", "Dc"}

var (
	one     = decimal.New(1, 0)
	ten     = decimal.New(1, 1)
	hundred = decimal.New(1, 2)
)

// FormatShort renders d with a short-scale suffix chosen so that the displayed
// mantissa falls in [1, 1000). Mantissa precision depends on its magnitude:
// no decimals at >= 100, one at >= 10, two below that. Zero renders as "0",
// negatives as "-" plus the formatted absolute value.
func FormatShort(d decimal.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	if d.IsNegative() {
		return "-" + FormatShort(d.Neg())
	}
	if d.LessThan(one) {
		return d.Truncate(2).StringFixed(2)
	}

	digits := integerDigits(d)
	idx := (digits - 1) / 3
	if idx >= len(suffixes) {
		mantissa := d.Div(decimal.New(1, int32(digits-1)))
		return mantissa.Truncate(2).StringFixed(2) + "e+" + strconv.Itoa(digits-1)
	}

	mantissa := d.Div(decimal.New(1, int32(idx*3)))
	return mantissaString(mantissa) + suffixes[idx]
}

// FormatFloat formats a native float, absorbing the non-finite inputs a
// presentation layer may hand us instead of propagating a panic.
func FormatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "0"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return FormatShort(decimal.NewFromFloat(f))
}

// Parse converts a numeric string back into a decimal. Save files serialize
// every large quantity as a string, so this is the single deserialization
// entry point for them.
func Parse(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid decimal %q: %w", s, err)
	}
	return d, nil
}

// MustParse is Parse for static catalog values.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mantissaString(m decimal.Decimal) string {
	switch {
	case m.GreaterThanOrEqual(hundred):
		return m.Truncate(0).StringFixed(0)
	case m.GreaterThanOrEqual(ten):
		return m.Truncate(1).StringFixed(1)
	default:
		return m.Truncate(2).StringFixed(2)
	}
}

// integerDigits returns the number of digits in the integer part of d,
// which is floor(log10(d))+1 for d >= 1. Computed over the decimal's own
// representation so it stays exact far past float range.
func integerDigits(d decimal.Decimal) int {
	return len(d.Truncate(0).String())
}
