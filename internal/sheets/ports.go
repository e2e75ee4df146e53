package sheets

import (
	"context"

	"fintrack/internal/core"
)

// Ports for outbound spreadsheet adapters.
type (
	// TransactionMirror keeps a spreadsheet copy of transactions. Both
	// operations are idempotent so redelivered events are harmless.
	TransactionMirror interface {
		UpsertTransaction(ctx context.Context, t core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	// TransactionReader reads the mirrored rows of one owner.
	TransactionReader interface {
		MirroredTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
	}
)
