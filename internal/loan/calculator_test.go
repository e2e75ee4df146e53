package loan

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSimpleInterest(t *testing.T) {
	cases := []struct {
		name                     string
		in                       SimpleInterestInput
		interest, total, monthly string
	}{
		{
			name:     "yearly rate",
			in:       SimpleInterestInput{Principal: d("100000"), Rate: d("10"), RatePeriod: core.PerYear, TermYears: d("2")},
			interest: "20000", total: "120000", monthly: "5000",
		},
		{
			name:     "monthly rate is annualized",
			in:       SimpleInterestInput{Principal: d("100000"), Rate: d("1"), RatePeriod: core.PerMonth, TermYears: d("1")},
			interest: "12000", total: "112000", monthly: "9333.3333333333333333",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeSimpleInterest(tc.in)
			require.NoError(t, err)
			assert.True(t, got.Interest.Equal(d(tc.interest)), "interest %s", got.Interest)
			assert.True(t, got.TotalPayable.Equal(d(tc.total)), "total %s", got.TotalPayable)
			assert.InDelta(t, d(tc.monthly).InexactFloat64(), got.MonthlyPayment.InexactFloat64(), 1e-6)
		})
	}
}

func TestSimpleInterestRejectsPer100Convention(t *testing.T) {
	_, err := ComputeSimpleInterest(SimpleInterestInput{
		Principal: d("1000"), Rate: d("2"), RatePeriod: core.Per100PerMonth, TermYears: d("1"),
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, FieldRatePeriod, verr.Field)
}

func TestCompoundInterest(t *testing.T) {
	got, err := ComputeCompoundInterest(CompoundInterestInput{
		Principal: d("100000"), Rate: d("10"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: Annually,
	})
	require.NoError(t, err)
	assert.Equal(t, "110000.00", got.TotalAmount.StringFixed(2))
	assert.Equal(t, "10000.00", got.CompoundInterest.StringFixed(2))

	got, err = ComputeCompoundInterest(CompoundInterestInput{
		Principal: d("100000"), Rate: d("8"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: Quarterly,
	})
	require.NoError(t, err)
	assert.InDelta(t, 108243.216, got.TotalAmount.InexactFloat64(), 1e-6)
	assert.InDelta(t, 8243.216, got.CompoundInterest.InexactFloat64(), 1e-6)
}

func TestCompoundInterestPer100PerMonthMatchesMonthly(t *testing.T) {
	base := CompoundInterestInput{Principal: d("50000"), Rate: d("1.5"), TermYears: d("2"), Frequency: Monthly}

	monthly := base
	monthly.RatePeriod = core.PerMonth
	chit := base
	chit.RatePeriod = core.Per100PerMonth

	a, err := ComputeCompoundInterest(monthly)
	require.NoError(t, err)
	b, err := ComputeCompoundInterest(chit)
	require.NoError(t, err)
	assert.True(t, a.TotalAmount.Equal(b.TotalAmount))
	assert.True(t, b.AnnualRate.Equal(d("18")))
}

func TestCompoundInterestFractionalTerm(t *testing.T) {
	got, err := ComputeCompoundInterest(CompoundInterestInput{
		Principal: d("1000"), Rate: d("12"), RatePeriod: core.PerYear, TermYears: d("0.5"), Frequency: Monthly,
	})
	require.NoError(t, err)
	assert.InDelta(t, 1061.520150601, got.TotalAmount.InexactFloat64(), 1e-6)
}

func TestValidationRejectsBeforeComputing(t *testing.T) {
	cases := []struct {
		name  string
		in    CompoundInterestInput
		field string
	}{
		{"negative principal", CompoundInterestInput{Principal: d("-1"), Rate: d("5"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: Annually}, FieldPrincipal},
		{"zero rate", CompoundInterestInput{Principal: d("1"), Rate: d("0"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: Annually}, FieldRate},
		{"zero term", CompoundInterestInput{Principal: d("1"), Rate: d("5"), RatePeriod: core.PerYear, TermYears: d("0"), Frequency: Annually}, FieldTerm},
		{"bad frequency", CompoundInterestInput{Principal: d("1"), Rate: d("5"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: 3}, FieldFrequency},
		{"bad period", CompoundInterestInput{Principal: d("1"), Rate: d("5"), RatePeriod: "weekly", TermYears: d("1"), Frequency: Annually}, FieldRatePeriod},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ComputeCompoundInterest(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.True(t, got.TotalAmount.IsZero(), "no partial result")
		})
	}

	_, err := ComputeCompoundInterest(CompoundInterestInput{Principal: d("-1"), Rate: d("5"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: Annually})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonPrincipal, verr.Reason)
}

func TestCompoundInterestRejectsUncomputableResults(t *testing.T) {
	cases := []struct {
		name  string
		in    CompoundInterestInput
		field string
	}{
		{"growth factor overflows", CompoundInterestInput{Principal: d("100000"), Rate: d("100"), RatePeriod: core.PerMonth, TermYears: d("100"), Frequency: Monthly}, FieldTerm},
		{"rate beyond float range", CompoundInterestInput{Principal: d("1"), Rate: d("1e400"), RatePeriod: core.PerYear, TermYears: d("1"), Frequency: Annually}, FieldRate},
		{"term beyond float range", CompoundInterestInput{Principal: d("1"), Rate: d("1"), RatePeriod: core.PerYear, TermYears: d("1e400"), Frequency: Annually}, FieldTerm},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var (
				got CompoundInterestResult
				err error
			)
			require.NotPanics(t, func() { got, err = ComputeCompoundInterest(tc.in) })
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tc.field, verr.Field)
			assert.Equal(t, ReasonTooLarge, verr.Reason)
			assert.True(t, got.TotalAmount.IsZero(), "no partial result")
		})
	}
}
