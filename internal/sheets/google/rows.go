package google

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

var errEmptyRow = errors.New("empty row")

// Column order: A id, B owner, C date, D kind, E category, F amount,
// G description, H mirrored at.
func header() []any {
	return []any{"ID", "Owner", "Date", "Kind", "Category", "Amount", "Description", "Mirrored At"}
}

func encodeRow(t core.Transaction) []any {
	return []any{
		t.ID,
		t.OwnerID,
		t.OccurredOn.String(),
		string(t.Kind),
		t.Category,
		t.Amount.StringFixed(2),
		t.Description,
		time.Now().UTC().Format(time.RFC3339),
	}
}

func decodeRow(r []any) (core.Transaction, error) {
	cells := make([]string, 7)
	for i := range cells {
		if i < len(r) {
			cells[i] = strings.TrimSpace(fmt.Sprint(r[i]))
		}
	}
	if cells[0] == "" {
		return core.Transaction{}, errEmptyRow
	}

	kind, err := core.ParseKind(cells[3])
	if err != nil {
		return core.Transaction{}, err
	}
	amount, err := decimal.NewFromString(cells[5])
	if err != nil {
		return core.Transaction{}, fmt.Errorf("amount %q: %w", cells[5], core.ErrInvalidAmount)
	}
	// An unreadable date stays zero so the row is still listed.
	day, _ := core.ParseDate(cells[2])

	return core.Transaction{
		ID:          cells[0],
		OwnerID:     cells[1],
		OccurredOn:  day,
		Kind:        kind,
		Category:    cells[4],
		Amount:      amount,
		Description: cells[6],
	}, nil
}

// findRow returns the 1-based sheet row whose first cell equals id, or 0.
// Row 1 is the header and never matches.
func findRow(ids []string, id string) int {
	for i, v := range ids {
		if i == 0 {
			continue
		}
		if v == id {
			return i + 1
		}
	}
	return 0
}

func toStrings(rows [][]any, col int) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		if col < len(r) {
			out[i] = strings.TrimSpace(fmt.Sprint(r[col]))
		}
	}
	return out
}

func safeGet(s []string, i int) string {
	if i < 0 || i >= len(s) {
		return ""
	}
	return s[i]
}
