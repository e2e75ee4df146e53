// Package query derives filtered, sorted and aggregated views over an
// owner's snapshot of transactions.
package query

import (
	"errors"
	"fmt"

	"fintrack/internal/core"
)

// SortKey selects the field a derived view is ordered by.
type SortKey int

const (
	SortNone SortKey = iota
	SortByDate
	SortByKind
	SortByCategory
	SortByAmount
)

// Direction of a sort. Ascending is the zero value.
type Direction int

const (
	Ascending Direction = iota
	Descending
)

var (
	ErrInvalidCriteria = errors.New("invalid query criteria")
	ErrPipeline        = errors.New("derive pipeline failed")
)

// Criteria restricts and orders a derived view. The zero value is the
// identity view: no filters and input order preserved.
type Criteria struct {
	SearchText string
	Kind       core.Kind // empty means any kind
	Category   string    // exact match, empty means any category
	From       core.Date // inclusive, zero means unbounded
	To         core.Date // inclusive through the end of the day
	SortKey    SortKey
	Direction  Direction
}

func (k SortKey) String() string {
	switch k {
	case SortNone:
		return ""
	case SortByDate:
		return "date"
	case SortByKind:
		return "type"
	case SortByCategory:
		return "category"
	case SortByAmount:
		return "amount"
	default:
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
}

// ParseSortKey maps a request value to a SortKey. Both "date" and
// "occurredOn" select the date, "kind" and "type" select the kind.
func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "":
		return SortNone, nil
	case "date", "occurredOn":
		return SortByDate, nil
	case "kind", "type":
		return SortByKind, nil
	case "category":
		return SortByCategory, nil
	case "amount":
		return SortByAmount, nil
	default:
		return SortNone, fmt.Errorf("%w: unknown sort key %q", ErrInvalidCriteria, s)
	}
}

func (d Direction) String() string {
	if d == Descending {
		return "desc"
	}
	return "asc"
}

func ParseDirection(s string) (Direction, error) {
	switch s {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return Ascending, fmt.Errorf("%w: unknown sort direction %q", ErrInvalidCriteria, s)
	}
}

// Validate rejects criteria that cannot be applied. A range with From after To
// is valid and simply matches nothing.
func (c Criteria) Validate() error {
	if c.Kind != "" && !c.Kind.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidCriteria, core.ErrInvalidKind)
	}
	if c.SortKey < SortNone || c.SortKey > SortByAmount {
		return fmt.Errorf("%w: unknown sort key %d", ErrInvalidCriteria, int(c.SortKey))
	}
	if c.Direction != Ascending && c.Direction != Descending {
		return fmt.Errorf("%w: unknown sort direction %d", ErrInvalidCriteria, int(c.Direction))
	}
	return nil
}

func (c Criteria) hasRange() bool {
	return c.From.Valid() || c.To.Valid()
}
