package worker

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// SyncWorker applies transaction events to the spreadsheet mirror and can
// reconcile the mirror against storage for owners whose events were missed.
type SyncWorker struct {
	store  storage.TransactionStore
	mirror sheets.TransactionMirror
	reader sheets.TransactionReader
	logger *log.Logger
}

// NewSyncWorker builds a worker. reader may be nil, in which case Reconcile
// only upserts and never prunes.
func NewSyncWorker(store storage.TransactionStore, mirror sheets.TransactionMirror, reader sheets.TransactionReader, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default()
	}
	return &SyncWorker{
		store:  store,
		mirror: mirror,
		reader: reader,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent is an amqp.EventHandler.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev amqp.TransactionEvent) error {
	w.logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventType, string(ev.Type),
		log.FieldOwnerID, ev.OwnerID,
		log.FieldTransactionID, ev.TransactionID)

	switch ev.Type {
	case amqp.EventCreated, amqp.EventUpdated:
		if err := w.mirror.UpsertTransaction(ctx, *ev.Transaction); err != nil {
			return fmt.Errorf("mirror transaction %s: %w", ev.TransactionID, err)
		}
	case amqp.EventDeleted:
		if err := w.mirror.DeleteTransaction(ctx, ev.OwnerID, ev.TransactionID); err != nil {
			return fmt.Errorf("remove mirrored transaction %s: %w", ev.TransactionID, err)
		}
	default:
		return fmt.Errorf("%w: unknown type %q", amqp.ErrInvalidEvent, ev.Type)
	}
	return nil
}

// ReconcileResult counts what one Reconcile pass changed.
type ReconcileResult struct {
	Upserted int
	Removed  int
	Failed   int
}

// Reconcile makes the mirror of each owner match storage. Individual row
// failures are counted and logged; only storage and read failures abort.
func (w *SyncWorker) Reconcile(ctx context.Context, owners []string) (ReconcileResult, error) {
	var res ReconcileResult
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := w.reconcileOwner(ctx, owner, &res); err != nil {
			return res, err
		}
	}
	w.logger.InfoContext(ctx, "Reconcile completed",
		log.FieldOperation, log.OpSync,
		"owners", len(owners),
		"upserted", res.Upserted,
		"removed", res.Removed,
		"errors", res.Failed)
	return res, nil
}

func (w *SyncWorker) reconcileOwner(ctx context.Context, owner string, res *ReconcileResult) error {
	stored, err := w.store.ListTransactions(ctx, owner)
	if err != nil {
		return fmt.Errorf("list transactions of %s: %w", owner, err)
	}

	mirrored := map[string]core.Transaction{}
	if w.reader != nil {
		rows, err := w.reader.MirroredTransactions(ctx, owner)
		if err != nil {
			return fmt.Errorf("read mirror of %s: %w", owner, err)
		}
		for _, t := range rows {
			mirrored[t.ID] = t
		}
	}

	keep := make(map[string]struct{}, len(stored))
	for _, t := range stored {
		keep[t.ID] = struct{}{}
		if m, ok := mirrored[t.ID]; ok && sameRow(m, t) {
			continue
		}
		if err := w.mirror.UpsertTransaction(ctx, t); err != nil {
			w.logger.ErrorContext(ctx, "Failed to mirror transaction",
				log.FieldTransactionID, t.ID, log.FieldError, err.Error())
			res.Failed++
			continue
		}
		res.Upserted++
	}

	for id := range mirrored {
		if _, ok := keep[id]; ok {
			continue
		}
		if err := w.mirror.DeleteTransaction(ctx, owner, id); err != nil {
			w.logger.ErrorContext(ctx, "Failed to remove stale row",
				log.FieldTransactionID, id, log.FieldError, err.Error())
			res.Failed++
			continue
		}
		res.Removed++
	}
	return nil
}

func sameRow(a, b core.Transaction) bool {
	return a.OwnerID == b.OwnerID &&
		a.Kind == b.Kind &&
		a.Category == b.Category &&
		a.Amount.Equal(b.Amount) &&
		a.OccurredOn.Compare(b.OccurredOn) == 0 &&
		a.Description == b.Description
}

// RunPeriodicReconcile reconciles once immediately and then every interval
// until ctx is done. A non-positive interval runs only the first pass.
func (w *SyncWorker) RunPeriodicReconcile(ctx context.Context, owners []string, interval time.Duration) {
	if len(owners) == 0 {
		return
	}
	if _, err := w.Reconcile(ctx, owners); err != nil && ctx.Err() == nil {
		w.logger.ErrorContext(ctx, "Startup reconcile failed", log.FieldError, err.Error())
	}
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := w.Reconcile(ctx, owners); err != nil && ctx.Err() == nil {
				w.logger.ErrorContext(ctx, "Periodic reconcile failed", log.FieldError, err.Error())
			}
		}
	}
}
