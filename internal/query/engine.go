package query

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"fintrack/internal/core"
	"fintrack/internal/log"
)

// Engine derives views over transaction snapshots. It holds no per-call
// state and is safe for concurrent use.
type Engine struct {
	logger *log.Logger
	lang   language.Tag

	// inspect, when set, sees every record entering the pipeline.
	inspect func(core.Transaction)
}

// NewEngine returns an engine that reports data anomalies to logger.
// A nil logger falls back to the process default.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		logger: logger.WithComponent(log.ComponentQuery),
		lang:   language.English,
	}
}

// Derive filters and sorts records according to c and returns a new slice.
// The input is never modified.
//
// Records with an unusable date are excluded from date-restricted views and
// logged. Unexpected failures are recovered into ErrPipeline with an empty
// result.
func (e *Engine) Derive(ctx context.Context, records []core.Transaction, c Criteria) (out []core.Transaction, err error) {
	if err := c.Validate(); err != nil {
		return []core.Transaction{}, err
	}
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "derive pipeline failed",
				log.FieldOperation, log.OpDerive, "panic", fmt.Sprint(r))
			out, err = []core.Transaction{}, fmt.Errorf("%w: %v", ErrPipeline, r)
		}
	}()

	out = make([]core.Transaction, 0, len(records))
	search := newMatcher(c.SearchText)
	for _, t := range records {
		if e.inspect != nil {
			e.inspect(t)
		}
		if !search.matches(t) {
			continue
		}
		if c.Kind != "" && t.Kind != c.Kind {
			continue
		}
		if c.Category != "" && t.Category != c.Category {
			continue
		}
		if c.hasRange() && !e.inRange(ctx, t, c) {
			continue
		}
		out = append(out, t)
	}

	if c.SortKey != SortNone {
		e.sort(ctx, out, c.SortKey, c.Direction)
	}
	return out, nil
}

func (e *Engine) inRange(ctx context.Context, t core.Transaction, c Criteria) bool {
	if !t.OccurredOn.Valid() {
		e.anomaly(ctx, t, "excluded from date range: invalid date")
		return false
	}
	if c.From.Valid() && t.OccurredOn.Compare(c.From) < 0 {
		return false
	}
	// Dates carry no time of day, so comparing days includes all of To.
	if c.To.Valid() && t.OccurredOn.Compare(c.To) > 0 {
		return false
	}
	return true
}

func (e *Engine) anomaly(ctx context.Context, t core.Transaction, msg string) {
	e.logger.WarnContext(ctx, msg, log.FieldTransactionID, t.ID, log.FieldOperation, log.OpDerive)
}

// sort orders records in place. Records whose key is missing or invalid go
// last in both directions; direction only reverses the order of valid keys.
func (e *Engine) sort(ctx context.Context, records []core.Transaction, key SortKey, dir Direction) {
	var (
		valid   func(core.Transaction) bool
		compare func(a, b core.Transaction) int
	)

	switch key {
	case SortByDate:
		valid = func(t core.Transaction) bool { return t.OccurredOn.Valid() }
		compare = func(a, b core.Transaction) int { return a.OccurredOn.Compare(b.OccurredOn) }
	case SortByKind:
		col := collate.New(e.lang, collate.IgnoreCase)
		valid = func(t core.Transaction) bool { return t.Kind.Valid() }
		compare = func(a, b core.Transaction) int { return col.CompareString(string(a.Kind), string(b.Kind)) }
	case SortByCategory:
		col := collate.New(e.lang, collate.IgnoreCase)
		valid = func(t core.Transaction) bool { return strings.TrimSpace(t.Category) != "" }
		compare = func(a, b core.Transaction) int { return col.CompareString(a.Category, b.Category) }
	case SortByAmount:
		valid = func(core.Transaction) bool { return true }
		compare = func(a, b core.Transaction) int { return a.Amount.Cmp(b.Amount) }
	default:
		panic(fmt.Sprintf("unhandled sort key %v", key))
	}

	for _, t := range records {
		if !valid(t) {
			e.anomaly(ctx, t, fmt.Sprintf("sorted last: missing %s", key))
		}
	}

	slices.SortStableFunc(records, func(a, b core.Transaction) int {
		va, vb := valid(a), valid(b)
		switch {
		case !va && !vb:
			return 0
		case !va:
			return 1
		case !vb:
			return -1
		}
		r := compare(a, b)
		if dir == Descending {
			return -r
		}
		return cmp.Compare(r, 0)
	})
}

type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(text string) *matcher {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	m := &matcher{fold: cases.Fold()}
	m.needle = m.fold.String(text)
	return m
}

// matches reports a case-insensitive substring hit on category or
// description. A nil matcher matches everything.
func (m *matcher) matches(t core.Transaction) bool {
	if m == nil {
		return true
	}
	return strings.Contains(m.fold.String(t.Category), m.needle) ||
		strings.Contains(m.fold.String(t.Description), m.needle)
}
