package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// EventType names the change a TransactionEvent describes.
type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

var ErrInvalidEvent = errors.New("invalid transaction event")

// TransactionEvent announces a change to one transaction. Created and updated
// events carry the full record so consumers never read back from storage.
type TransactionEvent struct {
	Type          EventType         `json:"type"`
	OwnerID       string            `json:"ownerId"`
	TransactionID string            `json:"transactionId"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
}

// NewTransactionEvent builds an event for t. Deleted events drop the payload.
func NewTransactionEvent(typ EventType, t core.Transaction) TransactionEvent {
	ev := TransactionEvent{
		Type:          typ,
		OwnerID:       t.OwnerID,
		TransactionID: t.ID,
		Timestamp:     time.Now().UTC(),
	}
	if typ != EventDeleted {
		ev.Transaction = &t
	}
	return ev
}

func (e TransactionEvent) Validate() error {
	switch e.Type {
	case EventCreated, EventUpdated:
		if e.Transaction == nil {
			return fmt.Errorf("%w: %s event without transaction", ErrInvalidEvent, e.Type)
		}
	case EventDeleted:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidEvent, e.Type)
	}
	if e.OwnerID == "" || e.TransactionID == "" {
		return fmt.Errorf("%w: missing owner or transaction id", ErrInvalidEvent)
	}
	return nil
}

// ToJSON converts the event to JSON bytes
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and validates an event.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}
	if err := ev.Validate(); err != nil {
		return TransactionEvent{}, err
	}
	return ev, nil
}
