package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// ErrNotFound is returned when a record does not exist for the given owner.
// A record owned by someone else is reported the same way.
var ErrNotFound = errors.New("record not found")

// Ports for the persistence backends. Every operation is scoped by owner.
type (
	TransactionStore interface {
		// ListTransactions returns the owner's transactions in insertion order.
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, t core.Transaction) error
		UpdateTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	LoanStore interface {
		ListLoans(ctx context.Context, ownerID string) ([]core.Loan, error)
		GetLoan(ctx context.Context, ownerID, id string) (core.Loan, error)
		CreateLoan(ctx context.Context, l core.Loan) error
		// RecordLoanPayment atomically adds amount to the loan's total paid.
		RecordLoanPayment(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Loan, error)
		DeleteLoan(ctx context.Context, ownerID, id string) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
		GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, g core.Goal) error
		// AddGoalFunds atomically adds amount to the goal's saved amount.
		AddGoalFunds(ctx context.Context, ownerID, id string, amount decimal.Decimal) (core.Goal, error)
		DeleteGoal(ctx context.Context, ownerID, id string) error
	}

	// Repository is a complete storage backend.
	Repository interface {
		TransactionStore
		LoanStore
		GoalStore
		Ping(ctx context.Context) error
		Close() error
	}
)
