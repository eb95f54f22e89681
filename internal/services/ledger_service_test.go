package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cafeledger/internal/amqp"
	"cafeledger/internal/auth"
	"cafeledger/internal/core"
	"cafeledger/internal/forms"
	"cafeledger/internal/ledger"
	"cafeledger/internal/log"
	"cafeledger/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin     = &auth.Identity{Username: "owner", Role: auth.RoleAdmin}
	moderator = &auth.Identity{Username: "manager", Role: auth.RoleModerator}
	user      = &auth.Identity{Username: "barista", Role: auth.RoleUser}
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

// countingStore counts writes so tests can assert none happened.
type countingStore struct {
	*memory.Store
	writes int
}

func (c *countingStore) Create(ctx context.Context, in core.NewTransaction) error {
	c.writes++
	return c.Store.Create(ctx, in)
}

func (c *countingStore) Delete(ctx context.Context, id string) error {
	c.writes++
	return c.Store.Delete(ctx, id)
}

func (c *countingStore) ClearAll(ctx context.Context) error {
	c.writes++
	return c.Store.ClearAll(ctx)
}

func newService(t *testing.T, now time.Time) (*LedgerService, *countingStore, *recordingPublisher) {
	t.Helper()
	st := &countingStore{Store: memory.New()}
	pub := &recordingPublisher{}
	svc := NewLedgerService(st, st, log.Discard(),
		WithPublisher(pub),
		WithCacheTTL(time.Minute),
		WithClock(func() time.Time { return now }),
	)
	return svc, st, pub
}

func submission(t *testing.T, f forms.TransactionForm, now time.Time) forms.Submission {
	t.Helper()
	sub, err := f.Normalize(now)
	require.NoError(t, err)
	return sub
}

func TestCreateTransactionReloadsAndPublishes(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	svc, _, pub := newService(t, now)
	ctx := context.Background()

	before, err := svc.Transactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, before)

	sub := submission(t, forms.TransactionForm{Amount: "250", Type: "income"}, now)
	require.NoError(t, svc.CreateTransaction(ctx, user, sub))

	after, err := svc.Transactions(ctx)
	require.NoError(t, err)
	require.Len(t, after, 1, "cache must be purged after a write")
	assert.Equal(t, "Food Sale", after[0].Category)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.TransactionCreated, pub.events[0].Kind)
	assert.Equal(t, after[0].ID, pub.events[0].TransactionID)
}

func TestPublishFailureDoesNotFailWrite(t *testing.T) {
	now := time.Now()
	svc, _, pub := newService(t, now)
	pub.err = errors.New("broker down")

	err := svc.CreateTransaction(context.Background(), admin, submission(t, forms.TransactionForm{Amount: "1", Type: "expense"}, now))
	require.NoError(t, err)
	txs, _ := svc.Transactions(context.Background())
	assert.Len(t, txs, 1)
}

func TestRoleGatingHappensBeforeWrites(t *testing.T) {
	now := time.Now()
	ctx := context.Background()
	svc, st, _ := newService(t, now)

	require.NoError(t, svc.CreateTransaction(ctx, admin, submission(t, forms.TransactionForm{Amount: "5", Type: "expense"}, now)))
	txs, _ := svc.Transactions(ctx)
	writes := st.writes

	assert.ErrorIs(t, svc.DeleteTransaction(ctx, moderator, txs[0].ID), core.ErrForbidden)
	assert.ErrorIs(t, svc.ClearAll(ctx, user), core.ErrForbidden)
	assert.ErrorIs(t, svc.CreateNote(ctx, user, "hello"), core.ErrForbidden)
	assert.ErrorIs(t, svc.AddRecurringForThisMonth(ctx, user, txs[0].ID), core.ErrForbidden)
	assert.ErrorIs(t, svc.CreateTransaction(ctx, nil, forms.Submission{}), core.ErrUnauthenticated)
	assert.Equal(t, writes, st.writes)

	assert.NoError(t, svc.CreateNote(ctx, moderator, "restock cups"))
	assert.NoError(t, svc.DeleteTransaction(ctx, admin, "missing"))
	assert.NoError(t, svc.ClearAll(ctx, admin))
}

func TestRecurringReminderFlow(t *testing.T) {
	now := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	ctx := context.Background()
	svc, st, pub := newService(t, now)

	require.NoError(t, st.Store.Create(ctx, core.NewTransaction{
		Amount: decimal.NewFromInt(5000), Type: core.Expense, Category: "Rent",
		Date: now.AddDate(0, -1, 0), IsRecurring: true, PaymentMethod: core.Online,
	}))

	txs, _ := svc.Transactions(ctx)
	due := ledger.RecurringReminders(txs, svc.Now())
	require.Len(t, due, 1)

	require.NoError(t, svc.AddRecurringForThisMonth(ctx, moderator, due[0].ID))

	txs, _ = svc.Transactions(ctx)
	assert.Len(t, txs, 2)
	assert.Empty(t, ledger.RecurringReminders(txs, svc.Now()))
	var repeated *core.Transaction
	for i := range txs {
		if txs[i].ID != due[0].ID {
			repeated = &txs[i]
		}
	}
	require.NotNil(t, repeated)
	assert.True(t, repeated.Date.Equal(now))
	assert.Equal(t, core.Online, repeated.PaymentMethod)
	require.Len(t, pub.events, 1)

	err := svc.AddRecurringForThisMonth(ctx, admin, "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestNotes(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t, time.Now())

	assert.True(t, core.IsValidationError(svc.CreateNote(ctx, admin, "   ")))
	require.NoError(t, svc.CreateNote(ctx, admin, "  call supplier "))

	notes, err := svc.Notes(ctx)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "call supplier", notes[0].Text)

	require.NoError(t, svc.DeleteNote(ctx, admin, notes[0].ID))
	notes, _ = svc.Notes(ctx)
	assert.Empty(t, notes)
}

type failingStore struct{ *memory.Store }

func (failingStore) Create(context.Context, core.NewTransaction) error {
	return core.WrapStorage("create transaction", errors.New("disk full"))
}

func TestStorageFailureLeavesStateUnchanged(t *testing.T) {
	now := time.Now()
	st := failingStore{memory.New()}
	pub := &recordingPublisher{}
	svc := NewLedgerService(st, st, log.Discard(), WithPublisher(pub))

	err := svc.CreateTransaction(context.Background(), admin, submission(t, forms.TransactionForm{Amount: "9", Type: "income"}, now))
	assert.True(t, core.IsStorageError(err))
	txs, _ := svc.Transactions(context.Background())
	assert.Empty(t, txs)
	assert.Empty(t, pub.events)
}
