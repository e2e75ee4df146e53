package core

import (
	"time"

	"github.com/shopspring/decimal"
)

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string          `json:"name"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlySummary holds the income and expense sums of one calendar month.
type MonthlySummary struct {
	Year     int             `json:"year"`
	Month    time.Month      `json:"month"`
	Label    string          `json:"label"` // e.g. "Jan 2026"
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}

// Summary holds the totals of a window. Balance may be negative.
type Summary struct {
	Income   decimal.Decimal `json:"totalIncome"`
	Expenses decimal.Decimal `json:"totalExpenses"`
	Balance  decimal.Decimal `json:"balance"`
}

// MonthLabel formats a month the way dashboards show it: "Jan 2026".
func MonthLabel(year int, month time.Month) string {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).Format("Jan 2006")
}

var defaultCategories = map[Kind][]string{
	Income:  {"Salary", "Freelance", "Investment", "Bonus", "Gift", "Other"},
	Expense: {"Food", "Transport", "Housing", "Utilities", "Entertainment", "Healthcare", "Shopping", "Education", "Other"},
}

// DefaultCategories returns the suggested categories for a kind. Suggestions
// are not enforced; any non-empty category is accepted.
func DefaultCategories(k Kind) []string {
	return append([]string(nil), defaultCategories[k]...)
}
