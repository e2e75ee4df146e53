// Package loan implements the simple and compound interest calculators and
// loan repayment tracking.
//
// All figures are decimals. The compound growth factor is the only value
// computed in floating point, since fractional terms need a real exponent.
package loan

import (
	"math"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// CompoundingFrequency is the number of times per year interest is
// capitalized.
type CompoundingFrequency int

const (
	Annually     CompoundingFrequency = 1
	SemiAnnually CompoundingFrequency = 2
	Quarterly    CompoundingFrequency = 4
	Monthly      CompoundingFrequency = 12
)

var (
	hundred     = decimal.NewFromInt(100)
	monthsInYr  = decimal.NewFromInt(12)
	frequencies = []CompoundingFrequency{Annually, SemiAnnually, Quarterly, Monthly}
)

func (f CompoundingFrequency) Valid() bool {
	for _, v := range frequencies {
		if f == v {
			return true
		}
	}
	return false
}

func (f CompoundingFrequency) String() string {
	switch f {
	case Annually:
		return "annually"
	case SemiAnnually:
		return "semi-annually"
	case Quarterly:
		return "quarterly"
	case Monthly:
		return "monthly"
	default:
		return "invalid"
	}
}

// Frequencies lists the accepted compounding frequencies.
func Frequencies() []CompoundingFrequency {
	return append([]CompoundingFrequency(nil), frequencies...)
}

type SimpleInterestInput struct {
	Principal  decimal.Decimal
	Rate       decimal.Decimal // percentage
	RatePeriod core.RatePeriod // PerYear or PerMonth
	TermYears  decimal.Decimal
}

type SimpleInterestResult struct {
	AnnualRate     decimal.Decimal `json:"annualRate"`
	Interest       decimal.Decimal `json:"interest"`
	TotalPayable   decimal.Decimal `json:"totalPayable"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment"`
}

type CompoundInterestInput struct {
	Principal  decimal.Decimal
	Rate       decimal.Decimal // percentage
	RatePeriod core.RatePeriod
	TermYears  decimal.Decimal
	Frequency  CompoundingFrequency
}

type CompoundInterestResult struct {
	AnnualRate       decimal.Decimal `json:"annualRate"`
	CompoundInterest decimal.Decimal `json:"compoundInterest"`
	TotalAmount      decimal.Decimal `json:"totalAmount"`
}

func (in SimpleInterestInput) Validate() error {
	if err := validateCommon(in.Principal, in.Rate, in.TermYears); err != nil {
		return err
	}
	if in.RatePeriod != core.PerYear && in.RatePeriod != core.PerMonth {
		return invalid(FieldRatePeriod, ReasonRatePeriod)
	}
	return nil
}

func (in CompoundInterestInput) Validate() error {
	if err := validateCommon(in.Principal, in.Rate, in.TermYears); err != nil {
		return err
	}
	if !in.RatePeriod.Valid() {
		return invalid(FieldRatePeriod, ReasonRatePeriod)
	}
	if !in.Frequency.Valid() {
		return invalid(FieldFrequency, ReasonFrequency)
	}
	return nil
}

func validateCommon(principal, rate, term decimal.Decimal) error {
	if !principal.IsPositive() {
		return invalid(FieldPrincipal, ReasonPrincipal)
	}
	if !rate.IsPositive() {
		return invalid(FieldRate, ReasonRate)
	}
	if !term.IsPositive() {
		return invalid(FieldTerm, ReasonTerm)
	}
	return nil
}

// AnnualRate converts a quoted rate to a nominal annual percentage. Monthly
// and per-100-per-month quotes are both multiplied by 12; the latter is an
// approximation that ignores how chit funds actually accrue.
func AnnualRate(rate decimal.Decimal, period core.RatePeriod) decimal.Decimal {
	switch period {
	case core.PerMonth, core.Per100PerMonth:
		return rate.Mul(monthsInYr)
	default:
		return rate
	}
}

// ComputeSimpleInterest returns flat interest over the whole term with the
// total spread evenly across its months.
func ComputeSimpleInterest(in SimpleInterestInput) (SimpleInterestResult, error) {
	if err := in.Validate(); err != nil {
		return SimpleInterestResult{}, err
	}
	annual := AnnualRate(in.Rate, in.RatePeriod)
	interest := in.Principal.Mul(annual).Div(hundred).Mul(in.TermYears)
	total := in.Principal.Add(interest)
	return SimpleInterestResult{
		AnnualRate:     annual,
		Interest:       interest,
		TotalPayable:   total,
		MonthlyPayment: total.Div(in.TermYears.Mul(monthsInYr)),
	}, nil
}

// ComputeCompoundInterest applies A = P(1 + r/n)^(n*t) with r the nominal
// annual rate and n the compounding frequency.
func ComputeCompoundInterest(in CompoundInterestInput) (CompoundInterestResult, error) {
	if err := in.Validate(); err != nil {
		return CompoundInterestResult{}, err
	}
	annual := AnnualRate(in.Rate, in.RatePeriod)
	n := decimal.NewFromInt(int64(in.Frequency))
	perPeriod := annual.Div(hundred).Div(n).InexactFloat64()
	if !finite(perPeriod) {
		return CompoundInterestResult{}, invalid(FieldRate, ReasonTooLarge)
	}
	periods := n.Mul(in.TermYears).InexactFloat64()
	if !finite(periods) {
		return CompoundInterestResult{}, invalid(FieldTerm, ReasonTooLarge)
	}

	factor := math.Pow(1+perPeriod, periods)
	if !finite(factor) {
		return CompoundInterestResult{}, invalid(FieldTerm, ReasonTooLarge)
	}
	total := in.Principal.Mul(decimal.NewFromFloat(factor))
	return CompoundInterestResult{
		AnnualRate:       annual,
		CompoundInterest: total.Sub(in.Principal),
		TotalAmount:      total,
	}, nil
}

func finite(f float64) bool {
	return !math.IsInf(f, 0) && !math.IsNaN(f)
}
