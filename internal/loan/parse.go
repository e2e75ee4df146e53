package loan

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ParseSimpleInterest builds a calculator input from raw form values. Each
// unparseable field is reported with the same reason as an out-of-range one.
func ParseSimpleInterest(principal, rate, period, term string) (SimpleInterestInput, error) {
	p, r, t, err := parseCommon(principal, rate, term)
	if err != nil {
		return SimpleInterestInput{}, err
	}
	rp, err := parsePeriod(period)
	if err != nil {
		return SimpleInterestInput{}, err
	}
	in := SimpleInterestInput{Principal: p, Rate: r, RatePeriod: rp, TermYears: t}
	return in, in.Validate()
}

func ParseCompoundInterest(principal, rate, period, term, frequency string) (CompoundInterestInput, error) {
	p, r, t, err := parseCommon(principal, rate, term)
	if err != nil {
		return CompoundInterestInput{}, err
	}
	rp, err := parsePeriod(period)
	if err != nil {
		return CompoundInterestInput{}, err
	}
	f, err := ParseFrequency(frequency)
	if err != nil {
		return CompoundInterestInput{}, err
	}
	in := CompoundInterestInput{Principal: p, Rate: r, RatePeriod: rp, TermYears: t, Frequency: f}
	return in, in.Validate()
}

// ParseFrequency accepts 1, 2, 4 or 12.
func ParseFrequency(s string) (CompoundingFrequency, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !CompoundingFrequency(n).Valid() {
		return 0, invalid(FieldFrequency, ReasonFrequency)
	}
	return CompoundingFrequency(n), nil
}

func parseCommon(principal, rate, term string) (p, r, t decimal.Decimal, err error) {
	if p, err = parsePositive(principal, FieldPrincipal, ReasonPrincipal); err != nil {
		return
	}
	if r, err = parsePositive(rate, FieldRate, ReasonRate); err != nil {
		return
	}
	t, err = parsePositive(term, FieldTerm, ReasonTerm)
	return
}

func parsePositive(s, field, reason string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil || !d.IsPositive() {
		return decimal.Zero, invalid(field, reason)
	}
	return d, nil
}

// parsePeriod defaults a blank period to per year, like the calculator forms.
func parsePeriod(s string) (core.RatePeriod, error) {
	if strings.TrimSpace(s) == "" {
		return core.PerYear, nil
	}
	rp, err := core.ParseRatePeriod(s)
	if err != nil {
		return "", invalid(FieldRatePeriod, ReasonRatePeriod)
	}
	return rp, nil
}
