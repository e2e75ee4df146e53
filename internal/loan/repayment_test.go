package loan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
)

func TestRepayment(t *testing.T) {
	s, err := Repayment(d("50000"), d("60000"))
	require.NoError(t, err)
	assert.True(t, s.ProgressPercent.Equal(d("100")), "progress %s", s.ProgressPercent)
	assert.True(t, s.RemainingBalance.IsZero(), "remaining %s", s.RemainingBalance)

	s, err = RepaymentOf(core.Loan{Principal: d("50000"), TotalPaid: d("12500")})
	require.NoError(t, err)
	assert.True(t, s.ProgressPercent.Equal(d("25")))
	assert.True(t, s.RemainingBalance.Equal(d("37500")))

	_, err = Repayment(d("0"), d("1"))
	assert.ErrorIs(t, err, ErrValidation)
	_, err = Repayment(d("10"), d("-1"))
	assert.ErrorIs(t, err, ErrValidation)
}
