package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"cafeledger/internal/amqp"
	"cafeledger/internal/core"
	"cafeledger/internal/log"
	"cafeledger/internal/sheets/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tx(id string) core.Transaction {
	return core.Transaction{
		ID: id, Amount: decimal.NewFromInt(40), Type: core.Income, Category: "Coffee",
		Date: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestMirrorWorkerAppliesEvents(t *testing.T) {
	ctx := context.Background()
	m := memory.New()
	w := NewMirrorWorker(m, log.Discard())
	at := time.Now()

	created := amqp.NewCreatedEvent(tx("a"), at)
	require.NoError(t, w.Handle(ctx, &created))
	created = amqp.NewCreatedEvent(tx("b"), at)
	require.NoError(t, w.Handle(ctx, &created))
	require.Len(t, m.Rows(), 2)

	deleted := amqp.NewDeletedEvent("a", at)
	require.NoError(t, w.Handle(ctx, &deleted))
	rows := m.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, "b", rows[0][0])

	cleared := amqp.NewClearedEvent(at)
	require.NoError(t, w.Handle(ctx, &cleared))
	assert.Empty(t, m.Rows())

	applied, failed := w.Stats()
	assert.Equal(t, int64(4), applied)
	assert.Zero(t, failed)
}

type brokenMirror struct{ memory.Mirror }

func (*brokenMirror) Clear(context.Context) error { return errors.New("quota exceeded") }

func TestMirrorWorkerReportsFailures(t *testing.T) {
	w := NewMirrorWorker(&brokenMirror{}, log.Discard())

	cleared := amqp.NewClearedEvent(time.Now())
	err := w.Handle(context.Background(), &cleared)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	unknown := amqp.LedgerEvent{Kind: "ledger.unknown"}
	assert.Error(t, w.Handle(context.Background(), &unknown))

	_, failed := w.Stats()
	assert.Equal(t, int64(2), failed)
}
