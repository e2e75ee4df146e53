// Package memory is an in-process storage backend for development and tests.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

type Store struct {
	mu           sync.Mutex
	transactions []core.Transaction
	loans        []core.Loan
	goals        []core.Goal
}

var _ storage.Repository = (*Store)(nil)

func New() *Store {
	return &Store{}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ownedBy(s.transactions, ownerID, func(t core.Transaction) string { return t.OwnerID }), nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(ownerID, id)
	if i < 0 {
		return core.Transaction{}, storage.ErrNotFound
	}
	return s.transactions[i], nil
}

// CreateTransaction stores t. It is the caller's job to validate it.
func (s *Store) CreateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, t)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(t.OwnerID, t.ID)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.transactions[i] = t
	return nil
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.transactionIndex(ownerID, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.transactions = slices.Delete(s.transactions, i, i+1)
	return nil
}

func (s *Store) transactionIndex(ownerID, id string) int {
	return slices.IndexFunc(s.transactions, func(t core.Transaction) bool {
		return t.OwnerID == ownerID && t.ID == id
	})
}

func (s *Store) ListLoans(_ context.Context, ownerID string) ([]core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ownedBy(s.loans, ownerID, func(l core.Loan) string { return l.OwnerID }), nil
}

func (s *Store) GetLoan(_ context.Context, ownerID, id string) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.loanIndex(ownerID, id)
	if i < 0 {
		return core.Loan{}, storage.ErrNotFound
	}
	return s.loans[i], nil
}

func (s *Store) CreateLoan(_ context.Context, l core.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loans = append(s.loans, l)
	return nil
}

func (s *Store) RecordLoanPayment(_ context.Context, ownerID, id string, amount decimal.Decimal) (core.Loan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.loanIndex(ownerID, id)
	if i < 0 {
		return core.Loan{}, storage.ErrNotFound
	}
	l := s.loans[i]
	if err := l.ApplyPayment(amount); err != nil {
		return core.Loan{}, err
	}
	s.loans[i] = l
	return l, nil
}

func (s *Store) DeleteLoan(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.loanIndex(ownerID, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.loans = slices.Delete(s.loans, i, i+1)
	return nil
}

func (s *Store) loanIndex(ownerID, id string) int {
	return slices.IndexFunc(s.loans, func(l core.Loan) bool {
		return l.OwnerID == ownerID && l.ID == id
	})
}

func (s *Store) ListGoals(_ context.Context, ownerID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ownedBy(s.goals, ownerID, func(g core.Goal) string { return g.OwnerID }), nil
}

func (s *Store) GetGoal(_ context.Context, ownerID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(ownerID, id)
	if i < 0 {
		return core.Goal{}, storage.ErrNotFound
	}
	return s.goals[i], nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals = append(s.goals, g)
	return nil
}

func (s *Store) AddGoalFunds(_ context.Context, ownerID, id string, amount decimal.Decimal) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(ownerID, id)
	if i < 0 {
		return core.Goal{}, storage.ErrNotFound
	}
	g := s.goals[i]
	if err := g.AddFunds(amount); err != nil {
		return core.Goal{}, err
	}
	s.goals[i] = g
	return g, nil
}

func (s *Store) DeleteGoal(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.goalIndex(ownerID, id)
	if i < 0 {
		return storage.ErrNotFound
	}
	s.goals = slices.Delete(s.goals, i, i+1)
	return nil
}

func (s *Store) goalIndex(ownerID, id string) int {
	return slices.IndexFunc(s.goals, func(g core.Goal) bool {
		return g.OwnerID == ownerID && g.ID == id
	})
}

// ownedBy copies the owner's records so callers never alias the store.
func ownedBy[T any](items []T, ownerID string, owner func(T) string) []T {
	out := []T{}
	for _, it := range items {
		if owner(it) == ownerID {
			out = append(out, it)
		}
	}
	return out
}
