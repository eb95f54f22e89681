package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"cafeledger/internal/core"
)

type EventKind string

const (
	TransactionCreated  EventKind = "ledger.transaction.created"
	TransactionDeleted  EventKind = "ledger.transaction.deleted"
	TransactionsCleared EventKind = "ledger.transactions.cleared"
)

// RoutingKeys lists every key the mirror queue is bound to.
var RoutingKeys = []EventKind{TransactionCreated, TransactionDeleted, TransactionsCleared}

// LedgerEvent announces a committed mutation. Transaction is set for
// created events and carries no receipt image.
type LedgerEvent struct {
	Kind          EventKind         `json:"kind"`
	TransactionID string            `json:"transactionId,omitempty"`
	Transaction   *core.Transaction `json:"transaction,omitempty"`
	OccurredAt    time.Time         `json:"occurredAt"`
}

// NewCreatedEvent snapshots tx without its receipt.
func NewCreatedEvent(tx core.Transaction, at time.Time) LedgerEvent {
	tx.ReceiptDataURL = ""
	return LedgerEvent{Kind: TransactionCreated, TransactionID: tx.ID, Transaction: &tx, OccurredAt: at}
}

func NewDeletedEvent(id string, at time.Time) LedgerEvent {
	return LedgerEvent{Kind: TransactionDeleted, TransactionID: id, OccurredAt: at}
}

func NewClearedEvent(at time.Time) LedgerEvent {
	return LedgerEvent{Kind: TransactionsCleared, OccurredAt: at}
}

// ToJSON converts the event to JSON bytes
func (e LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and checks an event.
func EventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	switch e.Kind {
	case TransactionCreated:
		if e.Transaction == nil {
			return nil, fmt.Errorf("%s event without transaction", e.Kind)
		}
	case TransactionDeleted:
		if e.TransactionID == "" {
			return nil, fmt.Errorf("%s event without transaction id", e.Kind)
		}
	case TransactionsCleared:
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
	return &e, nil
}
