// Package money converts between minor units, which every amount column
// stores, and the decimal major units people read and type.
package money

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var ErrInvalidAmount = errors.New("invalid amount")

// zero-decimal currencies have no minor unit
var zeroDecimal = map[string]bool{
	"JPY": true,
	"KRW": true,
	"VND": true,
}

var symbols = map[string]string{
	"INR": "₹",
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
}

// Exponent returns the number of minor-unit digits for currency.
func Exponent(currency string) int32 {
	if zeroDecimal[strings.ToUpper(currency)] {
		return 0
	}
	return 2
}

// ToMajor converts a minor-unit amount to a decimal in major units.
func ToMajor(minor int64, currency string) decimal.Decimal {
	return decimal.New(minor, -Exponent(currency))
}

// ParseMajor parses a user supplied amount like "25" or "25.50" into minor
// units. More fractional digits than the currency allows is an error.
func ParseMajor(s, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	exp := Exponent(currency)
	scaled := d.Shift(exp)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, ErrInvalidAmount
	}
	if !scaled.IsPositive() {
		return 0, ErrInvalidAmount
	}
	return scaled.IntPart(), nil
}

// Format renders minor units for display, e.g. Format(250050, "INR") is "₹2500.50".
func Format(minor int64, currency string) string {
	cur := strings.ToUpper(currency)
	s := ToMajor(minor, cur).StringFixed(Exponent(cur))
	if sym, ok := symbols[cur]; ok {
		return sym + s
	}
	return s + " " + cur
}

// Percent returns part/whole as a percentage rounded to one decimal place.
func Percent(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	f, _ := decimal.NewFromInt(part).Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(whole)).Round(1).Float64()
	return f
}
