package loan

import (
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Status summarizes how much of a loan's principal has been repaid.
type Status struct {
	TotalPaid        decimal.Decimal `json:"totalPaid"`
	ProgressPercent  decimal.Decimal `json:"progressPercent"`
	RemainingBalance decimal.Decimal `json:"remainingBalance"`
}

// Repayment reports progress against the principal only. Interest accrued on
// the remaining balance is not modelled, so an overpaid loan is simply 100%
// repaid with nothing remaining.
func Repayment(principal, totalPaid decimal.Decimal) (Status, error) {
	if !principal.IsPositive() {
		return Status{}, invalid(FieldPrincipal, ReasonPrincipal)
	}
	if totalPaid.IsNegative() {
		return Status{}, invalid(FieldPaid, ReasonPaid)
	}
	remaining := principal.Sub(totalPaid)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return Status{
		TotalPaid:        totalPaid,
		ProgressPercent:  core.ClampedPercent(totalPaid, principal),
		RemainingBalance: remaining,
	}, nil
}

// RepaymentOf is Repayment for a stored loan.
func RepaymentOf(l core.Loan) (Status, error) {
	return Repayment(l.Principal, l.TotalPaid)
}
