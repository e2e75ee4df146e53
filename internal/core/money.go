// Package core provides money parsing and handling utilities.
//
// Amounts are exact decimals. They are currency-agnostic in the data model;
// a single currency is applied only when an amount is formatted for display.
package core

import (
	"errors"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// DefaultCurrency is the presentation currency when none is configured.
const DefaultCurrency = "INR"

var (
	ErrInvalidAmount = errors.New("invalid amount")

	hundred = decimal.NewFromInt(100)
)

// ParseAmount converts a user-entered decimal string to a positive amount
// rounded half-up to two decimal places.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents, thousands separators and values that round to zero are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 12.35, nil
//	ParseAmount("0.001")  -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return decimal.Zero, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && !unicode.IsDigit(r) {
			return decimal.Zero, ErrInvalidAmount
		}
	}
	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	d = d.Round(2)
	if !d.IsPositive() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d, nil
}

// ValidCurrency reports whether code is a known ISO 4217 currency.
func ValidCurrency(code string) bool {
	return money.GetCurrency(code) != nil
}

// FormatAmount renders amount in the given ISO currency, e.g. "$1,234.50".
// Unknown currency codes fall back to a plain two-decimal rendering followed
// by the code.
func FormatAmount(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	if money.GetCurrency(currency) == nil {
		return amount.StringFixed(2) + " " + currency
	}
	cur := *money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	if !minor.BigInt().IsInt64() {
		// Beyond the formatter's int64 minor units.
		return amount.StringFixed(int32(cur.Fraction)) + " " + cur.Code
	}
	return cur.Formatter().Format(minor.IntPart())
}

// ClampedPercent returns part/whole*100 capped to [0, 100]. A non-positive
// whole yields zero.
func ClampedPercent(part, whole decimal.Decimal) decimal.Decimal {
	if !whole.IsPositive() || !part.IsPositive() {
		return decimal.Zero
	}
	pct := part.Mul(hundred).Div(whole)
	if pct.GreaterThan(hundred) {
		return hundred
	}
	return pct
}
