// Package services orchestrates the owner-scoped operations of the API on
// top of storage, the query engine and the event publisher.
package services

import (
	"context"
	"errors"
	"fmt"

	"fintrack/internal/amqp"
)

// ErrInvalidInput wraps every validation failure returned by a service. The
// underlying core or loan error stays reachable through errors.Is.
var ErrInvalidInput = errors.New("invalid input")

func invalidInput(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidInput, err)
}

// EventPublisher announces transaction changes. amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, ev amqp.TransactionEvent) error
}

var _ EventPublisher = (*amqp.Client)(nil)
