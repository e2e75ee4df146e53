package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Mirror is an in-process TransactionMirror, used when no spreadsheet is
// configured and in tests. Rows keep first-insert order.
type Mirror struct {
	mu    sync.Mutex
	order []string
	rows  map[string]core.Transaction
}

var (
	_ ports.TransactionMirror = (*Mirror)(nil)
	_ ports.TransactionReader = (*Mirror)(nil)
)

func New() *Mirror {
	return &Mirror{rows: map[string]core.Transaction{}}
}

func (m *Mirror) UpsertTransaction(_ context.Context, t core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[t.ID]; !ok {
		m.order = append(m.order, t.ID)
	}
	m.rows[t.ID] = t
	return nil
}

func (m *Mirror) DeleteTransaction(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.rows[id]; ok && t.OwnerID == ownerID {
		delete(m.rows, id)
	}
	return nil
}

func (m *Mirror) MirroredTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []core.Transaction
	for _, id := range m.order {
		if t, ok := m.rows[id]; ok && t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

// Len reports the number of mirrored rows across owners.
func (m *Mirror) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
