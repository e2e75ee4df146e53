package query

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"

	"fintrack/internal/core"
)

// Window returns the records dated within [from, to], both inclusive.
// Records with an invalid date are dropped and logged.
func (e *Engine) Window(ctx context.Context, records []core.Transaction, from, to core.Date) []core.Transaction {
	out, _ := e.Derive(ctx, records, Criteria{From: from, To: to})
	return out
}

// MonthWindow returns the records of one calendar month.
func (e *Engine) MonthWindow(ctx context.Context, records []core.Transaction, year int, month time.Month) []core.Transaction {
	first := core.NewDate(year, month, 1)
	return e.Window(ctx, records, first, first.LastOfMonth())
}

type monthKey struct {
	year  int
	month time.Month
}

// MonthlySummaries groups records by calendar month and sums income and
// expenses separately. The result is chronological and only contains months
// with at least one record.
func (e *Engine) MonthlySummaries(ctx context.Context, records []core.Transaction) []core.MonthlySummary {
	byMonth := make(map[monthKey]*core.MonthlySummary)
	for _, t := range records {
		if !t.OccurredOn.Valid() {
			e.anomaly(ctx, t, "skipped in monthly summary: invalid date")
			continue
		}
		k := monthKey{t.OccurredOn.Year(), t.OccurredOn.Month()}
		s, ok := byMonth[k]
		if !ok {
			s = &core.MonthlySummary{
				Year:     k.year,
				Month:    k.month,
				Label:    core.MonthLabel(k.year, k.month),
				Income:   decimal.Zero,
				Expenses: decimal.Zero,
			}
			byMonth[k] = s
		}
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
		default:
			e.anomaly(ctx, t, "skipped in monthly summary: invalid kind")
		}
	}

	out := make([]core.MonthlySummary, 0, len(byMonth))
	for _, s := range byMonth {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b core.MonthlySummary) int {
		if c := cmp.Compare(a.Year, b.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Month, b.Month)
	})
	return out
}

// LastMonths returns the most recent n entries of a chronological summary.
func LastMonths(summaries []core.MonthlySummary, n int) []core.MonthlySummary {
	if n <= 0 {
		return []core.MonthlySummary{}
	}
	if len(summaries) > n {
		summaries = summaries[len(summaries)-n:]
	}
	return slices.Clone(summaries)
}

// CategoryBreakdown sums expense records by category, largest first. Equal
// sums are ordered by category name.
func (e *Engine) CategoryBreakdown(records []core.Transaction) []core.CategoryAmount {
	sums := make(map[string]decimal.Decimal)
	for _, t := range records {
		if t.Kind != core.Expense {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}

	out := make([]core.CategoryAmount, 0, len(sums))
	for name, amount := range sums {
		out = append(out, core.CategoryAmount{Name: name, Amount: amount})
	}
	col := collate.New(e.lang, collate.IgnoreCase)
	slices.SortFunc(out, func(a, b core.CategoryAmount) int {
		if c := b.Amount.Cmp(a.Amount); c != 0 {
			return c
		}
		if c := col.CompareString(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Totals sums income and expenses. Balance is income minus expenses and may
// be negative.
func Totals(records []core.Transaction) core.Summary {
	s := core.Summary{Income: decimal.Zero, Expenses: decimal.Zero}
	for _, t := range records {
		switch t.Kind {
		case core.Income:
			s.Income = s.Income.Add(t.Amount)
		case core.Expense:
			s.Expenses = s.Expenses.Add(t.Amount)
		}
	}
	s.Balance = s.Income.Sub(s.Expenses)
	return s
}

// Categories returns the distinct non-empty categories used by records of
// kind k (any kind when k is empty), in collation order.
func (e *Engine) Categories(records []core.Transaction, k core.Kind) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, t := range records {
		if k != "" && t.Kind != k {
			continue
		}
		name := strings.TrimSpace(t.Category)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	col := collate.New(e.lang, collate.IgnoreCase)
	slices.SortFunc(out, func(a, b string) int {
		if c := col.CompareString(a, b); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	})
	return out
}
