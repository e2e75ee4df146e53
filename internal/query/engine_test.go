package query

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

func tx(id string, kind core.Kind, category, amount, date, desc string) core.Transaction {
	d, _ := core.ParseDate(date)
	return core.Transaction{
		ID:          id,
		OwnerID:     "owner",
		Kind:        kind,
		Category:    category,
		Amount:      decimal.RequireFromString(amount),
		OccurredOn:  d,
		Description: desc,
	}
}

func ids(records []core.Transaction) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func sample() []core.Transaction {
	return []core.Transaction{
		tx("a", core.Expense, "Food", "12.50", "2026-01-05", "Lunch"),
		tx("b", core.Income, "Salary", "3000", "2026-01-01", "January pay"),
		tx("c", core.Expense, "Transport", "40", "2026-01-20", ""),
		tx("d", core.Expense, "food", "7", "2026-02-02", "Groceries"),
		tx("e", core.Income, "Freelance", "500", "2026-02-15", "Logo work"),
	}
}

func TestDeriveIdentityKeepsOrderAndDoesNotMutate(t *testing.T) {
	e := NewEngine(log.Nop())
	in := sample()
	before := ids(in)

	out, err := e.Derive(context.Background(), in, Criteria{})
	require.NoError(t, err)
	assert.Equal(t, before, ids(out))

	out, err = e.Derive(context.Background(), in, Criteria{SortKey: SortByAmount, Direction: Descending})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "e", "c", "a", "d"}, ids(out))
	assert.Equal(t, before, ids(in), "input must not be reordered")
}

func TestDeriveSearchIsCaseInsensitiveOnCategoryOrDescription(t *testing.T) {
	e := NewEngine(log.Nop())
	records := []core.Transaction{
		tx("1", core.Expense, "Food", "10", "2026-01-01", "Lunch"),
		tx("2", core.Expense, "Transport", "5", "2026-01-01", ""),
	}

	out, err := e.Derive(context.Background(), records, Criteria{SearchText: "lun"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(out))

	out, err = e.Derive(context.Background(), records, Criteria{SearchText: "TRANS"})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, ids(out))

	out, err = e.Derive(context.Background(), records, Criteria{SearchText: "   "})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestDeriveFiltersCommute(t *testing.T) {
	e := NewEngine(log.Nop())
	records := append(sample(), tx("f", core.Expense, "Salary", "1", "2026-03-01", "odd"))
	ctx := context.Background()

	both, err := e.Derive(ctx, records, Criteria{Kind: core.Income, Category: "Salary"})
	require.NoError(t, err)

	kindFirst, _ := e.Derive(ctx, records, Criteria{Kind: core.Income})
	thenCategory, _ := e.Derive(ctx, kindFirst, Criteria{Category: "Salary"})

	categoryFirst, _ := e.Derive(ctx, records, Criteria{Category: "Salary"})
	thenKind, _ := e.Derive(ctx, categoryFirst, Criteria{Kind: core.Income})

	assert.Equal(t, []string{"b"}, ids(both))
	assert.ElementsMatch(t, ids(thenCategory), ids(thenKind))
	assert.ElementsMatch(t, ids(both), ids(thenKind))
}

func TestDeriveCategoryFilterIsExact(t *testing.T) {
	e := NewEngine(log.Nop())
	out, err := e.Derive(context.Background(), sample(), Criteria{Category: "Food"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(out))
}

func TestDeriveDateRangeIsInclusive(t *testing.T) {
	e := NewEngine(log.Nop())
	to := core.NewDate(2026, time.January, 20)
	records := []core.Transaction{
		tx("on", core.Expense, "Food", "1", "2026-01-20", ""),
		tx("after", core.Expense, "Food", "1", "2026-01-21", ""),
		tx("from", core.Expense, "Food", "1", "2026-01-05", ""),
		tx("before", core.Expense, "Food", "1", "2026-01-04", ""),
	}

	out, err := e.Derive(context.Background(), records, Criteria{From: core.NewDate(2026, time.January, 5), To: to})
	require.NoError(t, err)
	assert.Equal(t, []string{"on", "from"}, ids(out))
}

func TestDeriveExcludesAndLogsInvalidDatesInRange(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(log.New(log.Config{Level: slog.LevelDebug, Output: &buf}))
	records := []core.Transaction{
		tx("ok", core.Expense, "Food", "1", "2026-01-10", ""),
		{ID: "broken", Kind: core.Expense, Category: "Food", Amount: decimal.NewFromInt(1)},
	}

	out, err := e.Derive(context.Background(), records, Criteria{From: core.NewDate(2026, time.January, 1)})
	require.NoError(t, err)
	assert.Equal(t, []string{"ok"}, ids(out))
	assert.Contains(t, buf.String(), "transaction_id=broken")
	assert.Contains(t, buf.String(), "level=WARN")

	// without a range the record stays in the view
	out, err = e.Derive(context.Background(), records, Criteria{})
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestDeriveSortIsStable(t *testing.T) {
	e := NewEngine(log.Nop())
	records := []core.Transaction{
		tx("first300", core.Expense, "A", "300", "2026-01-01", ""),
		tx("100", core.Expense, "B", "100", "2026-01-02", ""),
		tx("second300", core.Expense, "C", "300", "2026-01-03", ""),
	}
	out, err := e.Derive(context.Background(), records, Criteria{SortKey: SortByAmount})
	require.NoError(t, err)
	assert.Equal(t, []string{"100", "first300", "second300"}, ids(out))

	out, err = e.Derive(context.Background(), records, Criteria{SortKey: SortByAmount, Direction: Descending})
	require.NoError(t, err)
	assert.Equal(t, []string{"first300", "second300", "100"}, ids(out))
}

func TestDeriveSortIsIdempotent(t *testing.T) {
	e := NewEngine(log.Nop())
	ctx := context.Background()
	for _, key := range []SortKey{SortByDate, SortByKind, SortByCategory, SortByAmount} {
		for _, dir := range []Direction{Ascending, Descending} {
			c := Criteria{SortKey: key, Direction: dir}
			once, err := e.Derive(ctx, sample(), c)
			require.NoError(t, err)
			twice, err := e.Derive(ctx, once, c)
			require.NoError(t, err)
			assert.Equal(t, ids(once), ids(twice), "key=%s dir=%s", key, dir)
		}
	}
}

func TestDeriveCategorySortIgnoresCase(t *testing.T) {
	e := NewEngine(log.Nop())
	records := []core.Transaction{
		tx("T", core.Expense, "Transport", "1", "2026-01-01", ""),
		tx("f", core.Expense, "food", "1", "2026-01-01", ""),
		tx("E", core.Expense, "Education", "1", "2026-01-01", ""),
	}
	out, err := e.Derive(context.Background(), records, Criteria{SortKey: SortByCategory})
	require.NoError(t, err)
	assert.Equal(t, []string{"E", "f", "T"}, ids(out))
}

func TestDeriveInvalidValuesSortLastInBothDirections(t *testing.T) {
	e := NewEngine(log.Nop())
	records := []core.Transaction{
		{ID: "nodate", Kind: core.Expense, Category: "X", Amount: decimal.NewFromInt(1)},
		tx("jan", core.Expense, "X", "1", "2026-01-01", ""),
		tx("mar", core.Expense, "X", "1", "2026-03-01", ""),
	}
	asc, err := e.Derive(context.Background(), records, Criteria{SortKey: SortByDate})
	require.NoError(t, err)
	assert.Equal(t, []string{"jan", "mar", "nodate"}, ids(asc))

	desc, err := e.Derive(context.Background(), records, Criteria{SortKey: SortByDate, Direction: Descending})
	require.NoError(t, err)
	assert.Equal(t, []string{"mar", "jan", "nodate"}, ids(desc))
}

func TestDeriveRejectsInvalidCriteria(t *testing.T) {
	e := NewEngine(log.Nop())
	out, err := e.Derive(context.Background(), sample(), Criteria{Kind: "transfer"})
	assert.True(t, errors.Is(err, ErrInvalidCriteria))
	assert.Empty(t, out)

	_, err = e.Derive(context.Background(), sample(), Criteria{SortKey: SortKey(42)})
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}

func TestParseSortKeyAndDirection(t *testing.T) {
	k, err := ParseSortKey("occurredOn")
	require.NoError(t, err)
	assert.Equal(t, SortByDate, k)
	k, err = ParseSortKey("type")
	require.NoError(t, err)
	assert.Equal(t, SortByKind, k)
	_, err = ParseSortKey("description")
	assert.ErrorIs(t, err, ErrInvalidCriteria)

	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Descending, d)
	_, err = ParseDirection("sideways")
	assert.ErrorIs(t, err, ErrInvalidCriteria)
}

func TestDeriveRecoversPipelineFailure(t *testing.T) {
	var buf bytes.Buffer
	e := NewEngine(log.New(log.Config{Level: slog.LevelDebug, Output: &buf}))
	e.inspect = func(rec core.Transaction) {
		if rec.ID == "bad" {
			panic("corrupt record")
		}
	}
	records := []core.Transaction{
		tx("ok", core.Expense, "Food", "1", "2026-01-10", ""),
		tx("bad", core.Expense, "Food", "2", "2026-01-11", ""),
	}

	out, err := e.Derive(context.Background(), records, Criteria{SortKey: SortByAmount})
	require.ErrorIs(t, err, ErrPipeline)
	assert.NotNil(t, out)
	assert.Empty(t, out)
	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "corrupt record")
	assert.Equal(t, "ok", records[0].ID, "input untouched")
}
