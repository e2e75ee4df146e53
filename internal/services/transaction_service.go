package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/query"
	"fintrack/internal/storage"
)

// dashboardMonths is how many months of history the dashboard shows.
const dashboardMonths = 6

// TransactionService owns the transactions of every owner. Reads go through
// a per-owner snapshot cache that every write invalidates.
type TransactionService struct {
	store     storage.TransactionStore
	engine    *query.Engine
	derive    func(context.Context, []core.Transaction, query.Criteria) ([]core.Transaction, error)
	publisher EventPublisher
	snapshots *cache.LRUCache[[]core.Transaction]
	loads     singleflight.Group
	logger    *log.Logger

	genMu sync.Mutex
	gen   map[string]uint64

	newID func() string
	today func() core.Date
}

// NewTransactionService wires the service. publisher and snapshots may be
// nil: events are then skipped and every read hits storage.
func NewTransactionService(store storage.TransactionStore, engine *query.Engine, publisher EventPublisher, snapshots *cache.LRUCache[[]core.Transaction], logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Default()
	}
	if engine == nil {
		engine = query.NewEngine(logger)
	}
	return &TransactionService{
		store:     store,
		engine:    engine,
		derive:    engine.Derive,
		publisher: publisher,
		snapshots: snapshots,
		logger:    logger.WithComponent(log.ComponentTransaction),
		gen:       map[string]uint64{},
		newID:     uuid.NewString,
		today:     core.Today,
	}
}

// Engine exposes the query engine shared with other read paths.
func (s *TransactionService) Engine() *query.Engine { return s.engine }

// Create validates t, assigns it a fresh ID and stores it for ownerID.
func (s *TransactionService) Create(ctx context.Context, ownerID string, t core.Transaction) (core.Transaction, error) {
	t.ID = s.newID()
	t.OwnerID = ownerID
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalidInput(err)
	}

	if err := s.store.CreateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	s.invalidate(ownerID)

	s.logger.InfoContext(ctx, "Transaction created",
		log.FieldOperation, log.OpCreate,
		log.FieldOwnerID, ownerID,
		log.FieldTransactionID, t.ID,
		log.FieldKind, string(t.Kind),
		log.FieldCategory, t.Category,
		log.FieldAmount, t.Amount.String())
	s.publish(ctx, amqp.EventCreated, t)
	return t, nil
}

// Update applies patch to the transaction id of ownerID.
func (s *TransactionService) Update(ctx context.Context, ownerID, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if patch.IsEmpty() {
		return core.Transaction{}, invalidInput(core.ErrEmptyPatch)
	}
	current, err := s.store.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}

	t := patch.Apply(current)
	t.Category = strings.TrimSpace(t.Category)
	t.Description = strings.TrimSpace(t.Description)
	if err := t.Validate(); err != nil {
		return core.Transaction{}, invalidInput(err)
	}
	if err := s.store.UpdateTransaction(ctx, t); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	s.invalidate(ownerID)

	s.logger.InfoContext(ctx, "Transaction updated",
		log.FieldOperation, log.OpUpdate,
		log.FieldOwnerID, ownerID,
		log.FieldTransactionID, id)
	s.publish(ctx, amqp.EventUpdated, t)
	return t, nil
}

func (s *TransactionService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.invalidate(ownerID)

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldOwnerID, ownerID,
		log.FieldTransactionID, id)
	s.publish(ctx, amqp.EventDeleted, core.Transaction{ID: id, OwnerID: ownerID})
	return nil
}

// Snapshot returns every transaction of ownerID in storage order. Concurrent
// misses for the same owner share one storage read. The caller owns the
// returned slice.
func (s *TransactionService) Snapshot(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if s.snapshots != nil {
		if recs, ok := s.snapshots.Get(ownerID); ok {
			return slices.Clone(recs), nil
		}
	}

	v, err, _ := s.loads.Do(ownerID, func() (any, error) {
		gen := s.generation(ownerID)
		recs, err := s.store.ListTransactions(ctx, ownerID)
		if err != nil {
			return nil, err
		}
		s.logger.DebugContext(ctx, "Loaded transaction snapshot",
			log.FieldOperation, log.OpRead, log.FieldOwnerID, ownerID, "count", len(recs))
		// A write that landed during the read makes this result stale.
		if s.snapshots != nil && s.generation(ownerID) == gen {
			s.snapshots.Set(ownerID, recs)
		}
		return recs, nil
	})
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return slices.Clone(v.([]core.Transaction)), nil
}

func (s *TransactionService) generation(ownerID string) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gen[ownerID]
}

func (s *TransactionService) invalidate(ownerID string) {
	s.genMu.Lock()
	s.gen[ownerID]++
	s.genMu.Unlock()
	s.loads.Forget(ownerID)
	if s.snapshots != nil {
		s.snapshots.Delete(ownerID)
	}
}

func (s *TransactionService) publish(ctx context.Context, typ amqp.EventType, t core.Transaction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishTransactionEvent(ctx, amqp.NewTransactionEvent(typ, t)); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldOperation, log.OpPublish,
			log.FieldEventType, string(typ),
			log.FieldTransactionID, t.ID,
			log.FieldError, err.Error())
	}
}

// TransactionView is a derived list plus the totals of exactly that list.
// Degraded is set when the derive pipeline failed and the list was replaced
// by an empty one.
type TransactionView struct {
	Transactions []core.Transaction `json:"transactions"`
	Summary      core.Summary       `json:"summary"`
	Degraded     bool               `json:"degraded,omitempty"`
}

// View derives the owner's transactions through c.
func (s *TransactionService) View(ctx context.Context, ownerID string, c query.Criteria) (TransactionView, error) {
	recs, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return TransactionView{}, err
	}

	derived, err := s.derive(ctx, recs, c)
	switch {
	case errors.Is(err, query.ErrInvalidCriteria):
		return TransactionView{}, invalidInput(err)
	case errors.Is(err, query.ErrPipeline):
		s.logger.ErrorContext(ctx, "Serving empty view after derive failure",
			log.FieldOwnerID, ownerID, log.FieldError, err.Error())
		return TransactionView{Transactions: []core.Transaction{}, Summary: query.Totals(nil), Degraded: true}, nil
	case err != nil:
		return TransactionView{}, err
	}
	return TransactionView{Transactions: derived, Summary: query.Totals(derived)}, nil
}

// Dashboard is the current month at a glance plus recent history.
type Dashboard struct {
	Month     string                `json:"month"`
	Totals    core.Summary          `json:"totals"`
	Breakdown []core.CategoryAmount `json:"breakdown"`
	Monthly   []core.MonthlySummary `json:"monthly"`
}

func (s *TransactionService) Dashboard(ctx context.Context, ownerID string) (Dashboard, error) {
	recs, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return Dashboard{}, err
	}
	today := s.today()
	month := s.engine.MonthWindow(ctx, recs, today.Year(), today.Month())
	return Dashboard{
		Month:     core.MonthLabel(today.Year(), today.Month()),
		Totals:    query.Totals(month),
		Breakdown: s.engine.CategoryBreakdown(month),
		Monthly:   query.LastMonths(s.engine.MonthlySummaries(ctx, recs), dashboardMonths),
	}, nil
}

// Report covers the owner's whole history.
type Report struct {
	Monthly   []core.MonthlySummary `json:"monthly"`
	Breakdown []core.CategoryAmount `json:"breakdown"`
	Totals    core.Summary          `json:"totals"`
}

func (s *TransactionService) Report(ctx context.Context, ownerID string) (Report, error) {
	recs, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Monthly:   s.engine.MonthlySummaries(ctx, recs),
		Breakdown: s.engine.CategoryBreakdown(recs),
		Totals:    query.Totals(recs),
	}, nil
}

// Categories lists the default categories of kind followed by the ones the
// owner used that are not defaults. An empty kind covers both kinds.
func (s *TransactionService) Categories(ctx context.Context, ownerID string, kind core.Kind) ([]string, error) {
	if kind != "" && !kind.Valid() {
		return nil, invalidInput(core.ErrInvalidKind)
	}
	recs, err := s.Snapshot(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	var defaults []string
	if kind == "" {
		defaults = append(core.DefaultCategories(core.Income), core.DefaultCategories(core.Expense)...)
	} else {
		defaults = core.DefaultCategories(kind)
	}

	out := make([]string, 0, len(defaults))
	seen := map[string]struct{}{}
	for _, c := range append(defaults, s.engine.Categories(recs, kind)...) {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out, nil
}
