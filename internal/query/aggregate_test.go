package query

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestMonthlySummariesAreChronological(t *testing.T) {
	e := NewEngine(log.Nop())
	records := []core.Transaction{
		tx("1", core.Expense, "Food", "10", "2026-02-03", ""),
		tx("2", core.Income, "Salary", "100", "2025-12-31", ""),
		tx("3", core.Income, "Salary", "200", "2026-02-01", ""),
		tx("4", core.Expense, "Rent", "50", "2026-02-28", ""),
		{ID: "bad", Kind: core.Expense, Category: "X", Amount: dec("999")},
	}

	got := e.MonthlySummaries(context.Background(), records)
	require.Len(t, got, 2)

	assert.Equal(t, "Dec 2025", got[0].Label)
	assert.True(t, got[0].Income.Equal(dec("100")))
	assert.True(t, got[0].Expenses.IsZero())

	assert.Equal(t, 2026, got[1].Year)
	assert.Equal(t, time.February, got[1].Month)
	assert.True(t, got[1].Income.Equal(dec("200")))
	assert.True(t, got[1].Expenses.Equal(dec("60")))
}

func TestLastMonths(t *testing.T) {
	all := make([]core.MonthlySummary, 8)
	for i := range all {
		all[i] = core.MonthlySummary{Year: 2026, Month: time.Month(i + 1)}
	}
	got := LastMonths(all, 6)
	require.Len(t, got, 6)
	assert.Equal(t, time.March, got[0].Month)
	assert.Equal(t, time.August, got[5].Month)

	assert.Len(t, LastMonths(all[:2], 6), 2)
	assert.Empty(t, LastMonths(all, 0))
}

func TestCategoryBreakdownSortedDescending(t *testing.T) {
	e := NewEngine(log.Nop())
	records := []core.Transaction{
		tx("1", core.Expense, "Food", "10", "2026-01-01", ""),
		tx("2", core.Expense, "Rent", "500", "2026-01-01", ""),
		tx("3", core.Expense, "Food", "15", "2026-01-02", ""),
		tx("4", core.Income, "Salary", "1000", "2026-01-01", ""),
		tx("5", core.Expense, "Books", "25", "2026-01-03", ""),
	}
	got := e.CategoryBreakdown(records)
	require.Len(t, got, 3)
	assert.Equal(t, "Rent", got[0].Name)
	// Books and Food tie at 25; name breaks the tie
	assert.Equal(t, "Books", got[1].Name)
	assert.Equal(t, "Food", got[2].Name)
	assert.True(t, got[2].Amount.Equal(dec("25")))
}

func TestTotalsBalanceMayBeNegative(t *testing.T) {
	s := Totals([]core.Transaction{
		tx("1", core.Income, "Salary", "100", "2026-01-01", ""),
		tx("2", core.Expense, "Rent", "150.25", "2026-01-01", ""),
	})
	assert.True(t, s.Income.Equal(dec("100")))
	assert.True(t, s.Expenses.Equal(dec("150.25")))
	assert.True(t, s.Balance.Equal(dec("-50.25")))

	empty := Totals(nil)
	assert.True(t, empty.Balance.IsZero())
}

func TestMonthWindow(t *testing.T) {
	e := NewEngine(log.Nop())
	got := e.MonthWindow(context.Background(), sample(), 2026, time.February)
	assert.Equal(t, []string{"d", "e"}, ids(got))
}

func TestCategoriesDistinctAndSorted(t *testing.T) {
	e := NewEngine(log.Nop())
	got := e.Categories(sample(), core.Expense)
	assert.Equal(t, []string{"Food", "food", "Transport"}, got)
	assert.Equal(t, []string{"Freelance", "Salary"}, e.Categories(sample(), core.Income))
}
