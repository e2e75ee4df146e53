package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestParseSimpleInterest(t *testing.T) {
	in, err := ParseSimpleInterest("100000", "1", "month", "1")
	require.NoError(t, err)
	assert.Equal(t, core.PerMonth, in.RatePeriod)
	assert.True(t, in.Principal.Equal(d("100000")))

	in, err = ParseSimpleInterest(" 500 ", "7.5", "", "3")
	require.NoError(t, err)
	assert.Equal(t, core.PerYear, in.RatePeriod)

	_, err = ParseSimpleInterest("100", "5", "rupees_per_100_per_month", "1")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestParseCompoundInterestFieldErrors(t *testing.T) {
	cases := []struct {
		principal, rate, period, term, freq string
		field                               string
	}{
		{"abc", "5", "year", "1", "1", FieldPrincipal},
		{"NaN", "5", "year", "1", "1", FieldPrincipal},
		{"100", "", "year", "1", "1", FieldRate},
		{"100", "5", "year", "-2", "1", FieldTerm},
		{"100", "5", "fortnight", "1", "1", FieldRatePeriod},
		{"100", "5", "year", "1", "3", FieldFrequency},
		{"100", "5", "year", "1", "monthly", FieldFrequency},
	}
	for _, tc := range cases {
		_, err := ParseCompoundInterest(tc.principal, tc.rate, tc.period, tc.term, tc.freq)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, "%+v", tc)
		assert.Equal(t, tc.field, verr.Field)
	}

	in, err := ParseCompoundInterest("100000", "8", "per_year", "1", "4")
	require.NoError(t, err)
	assert.Equal(t, Quarterly, in.Frequency)
}

func TestParsedExponentInputsDoNotPanic(t *testing.T) {
	in, err := ParseCompoundInterest("1", "1e400", "per_year", "1", "1")
	require.NoError(t, err)
	require.NotPanics(t, func() { _, err = ComputeCompoundInterest(in) })
	assert.ErrorIs(t, err, ErrValidation)
}
