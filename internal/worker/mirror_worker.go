// Package worker applies ledger events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"

	"cafeledger/internal/amqp"
	"cafeledger/internal/log"
	"cafeledger/internal/sheets"
)

type MirrorWorker struct {
	mirror sheets.Mirror
	logger *log.Logger

	applied atomic.Int64
	failed  atomic.Int64
}

func NewMirrorWorker(mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	return &MirrorWorker{mirror: mirror, logger: logger.WithComponent(log.ComponentWorker)}
}

// Handle applies one event. A returned error asks the broker to redeliver.
func (w *MirrorWorker) Handle(ctx context.Context, e *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldEventKind, e.Kind,
		log.FieldTransactionID, e.TransactionID)

	var err error
	switch e.Kind {
	case amqp.TransactionCreated:
		err = w.mirror.Append(ctx, *e.Transaction)
	case amqp.TransactionDeleted:
		err = w.mirror.Delete(ctx, e.TransactionID)
	case amqp.TransactionsCleared:
		err = w.mirror.Clear(ctx)
	default:
		err = fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to mirror ledger event",
			log.FieldEventKind, e.Kind,
			log.FieldTransactionID, e.TransactionID,
			log.FieldError, err)
		return fmt.Errorf("mirror %s: %w", e.Kind, err)
	}
	w.applied.Add(1)
	return nil
}

// Stats reports how many events were applied and how many failed.
func (w *MirrorWorker) Stats() (applied, failed int64) {
	return w.applied.Load(), w.failed.Load()
}
