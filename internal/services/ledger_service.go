package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cafeledger/internal/amqp"
	"cafeledger/internal/auth"
	"cafeledger/internal/cache"
	"cafeledger/internal/core"
	"cafeledger/internal/forms"
	"cafeledger/internal/ledger"
	"cafeledger/internal/log"
	"cafeledger/internal/store"

	"github.com/google/uuid"
)

const (
	transactionsKey = "transactions"
	notesKey        = "notes"
)

// Publisher announces committed mutations.
type Publisher interface {
	Publish(ctx context.Context, e amqp.LedgerEvent) error
}

// LedgerService gates, performs and announces ledger mutations. Reads go
// through a short-lived cache that every mutation purges.
type LedgerService struct {
	txs       store.TransactionStore
	notes     store.NoteStore
	publisher Publisher
	txCache   *cache.LRUCache[[]core.Transaction]
	noteCache *cache.LRUCache[[]core.Note]
	logger    *log.Logger
	events    *log.StructuredLogger
	clock     func() time.Time
}

type Option func(*LedgerService)

// WithPublisher enables event publishing. A nil publisher disables it.
func WithPublisher(p Publisher) Option {
	return func(s *LedgerService) { s.publisher = p }
}

// WithCacheTTL sets how long list reads are reused. Zero disables caching.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *LedgerService) {
		s.txCache = cache.NewLRUCache[[]core.Transaction](1, ttl)
		s.noteCache = cache.NewLRUCache[[]core.Note](1, ttl)
	}
}

// WithClock sets the source of "now", including its location.
func WithClock(clock func() time.Time) Option {
	return func(s *LedgerService) { s.clock = clock }
}

func NewLedgerService(txs store.TransactionStore, notes store.NoteStore, logger *log.Logger, opts ...Option) *LedgerService {
	l := logger.WithComponent(log.ComponentLedger)
	s := &LedgerService{
		txs:       txs,
		notes:     notes,
		logger:    l,
		events:    log.NewStructuredLogger(l),
		clock:     time.Now,
		txCache:   cache.NewLRUCache[[]core.Transaction](1, 0),
		noteCache: cache.NewLRUCache[[]core.Note](1, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Caches returns the list caches for registration with a cache.Manager.
func (s *LedgerService) Caches() []cache.Cleaner {
	return []cache.Cleaner{s.txCache, s.noteCache}
}

// Now is the current time in the ledger's location.
func (s *LedgerService) Now() time.Time {
	return s.clock()
}

func (s *LedgerService) Transactions(ctx context.Context) ([]core.Transaction, error) {
	return s.txCache.GetOrLoad(transactionsKey, func() ([]core.Transaction, error) {
		return s.txs.List(ctx)
	})
}

func (s *LedgerService) Notes(ctx context.Context) ([]core.Note, error) {
	return s.noteCache.GetOrLoad(notesKey, func() ([]core.Note, error) {
		return s.notes.ListNotes(ctx)
	})
}

// CreateTransaction stores a normalized submission.
func (s *LedgerService) CreateTransaction(ctx context.Context, actor *auth.Identity, sub forms.Submission) error {
	if err := s.authorize(ctx, actor, auth.ActionCreateTransaction); err != nil {
		return err
	}
	return s.create(ctx, actor, sub.Input)
}

// AddRecurringForThisMonth repeats the recurring template id dated now.
func (s *LedgerService) AddRecurringForThisMonth(ctx context.Context, actor *auth.Identity, id string) error {
	if err := s.authorize(ctx, actor, auth.ActionAddRecurring); err != nil {
		return err
	}
	txs, err := s.Transactions(ctx)
	if err != nil {
		return err
	}
	for _, tx := range txs {
		if tx.ID == id && tx.IsRecurring {
			return s.create(ctx, actor, ledger.FromTemplate(tx, s.Now()))
		}
	}
	return fmt.Errorf("recurring template %s: %w", id, core.ErrNotFound)
}

func (s *LedgerService) create(ctx context.Context, actor *auth.Identity, in core.NewTransaction) error {
	if in.ID == "" {
		in.ID = uuid.NewString()
	}
	if err := s.txs.Create(ctx, in); err != nil {
		return err
	}
	s.txCache.Purge()
	s.events.LogTransactionCreated(ctx, string(in.Type), in.Category, in.Amount.String(), roleOf(actor))

	snapshot := core.Transaction{
		ID: in.ID, Amount: in.Amount, Type: in.Type, Category: in.Category, Date: in.Date,
		Note: in.Note, PaymentMethod: in.PaymentMethod, IsRecurring: in.IsRecurring, CreatedAt: s.Now(),
	}
	if txs, err := s.Transactions(ctx); err == nil {
		for _, tx := range txs {
			if tx.ID == in.ID {
				snapshot = tx
				break
			}
		}
	}
	s.publish(ctx, amqp.NewCreatedEvent(snapshot, s.Now()))
	return nil
}

// DeleteTransaction removes id. Unknown ids are not an error.
func (s *LedgerService) DeleteTransaction(ctx context.Context, actor *auth.Identity, id string) error {
	if err := s.authorize(ctx, actor, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.txs.Delete(ctx, id); err != nil {
		return err
	}
	s.txCache.Purge()
	s.logger.InfoContext(ctx, "Transaction deleted", log.FieldTransactionID, id, log.FieldRole, roleOf(actor))
	s.publish(ctx, amqp.NewDeletedEvent(id, s.Now()))
	return nil
}

// ClearAll removes every transaction.
func (s *LedgerService) ClearAll(ctx context.Context, actor *auth.Identity) error {
	if err := s.authorize(ctx, actor, auth.ActionClearAll); err != nil {
		return err
	}
	if err := s.txs.ClearAll(ctx); err != nil {
		return err
	}
	s.txCache.Purge()
	s.logger.WarnContext(ctx, "All transactions cleared", log.FieldRole, roleOf(actor))
	s.publish(ctx, amqp.NewClearedEvent(s.Now()))
	return nil
}

func (s *LedgerService) CreateNote(ctx context.Context, actor *auth.Identity, text string) error {
	if err := s.authorize(ctx, actor, auth.ActionAddNote); err != nil {
		return err
	}
	body, err := forms.NoteText(text)
	if err != nil {
		return err
	}
	if err := s.notes.CreateNote(ctx, body); err != nil {
		return err
	}
	s.noteCache.Purge()
	return nil
}

func (s *LedgerService) DeleteNote(ctx context.Context, actor *auth.Identity, id string) error {
	if err := s.authorize(ctx, actor, auth.ActionDelete); err != nil {
		return err
	}
	if err := s.notes.DeleteNote(ctx, id); err != nil {
		return err
	}
	s.noteCache.Purge()
	s.logger.InfoContext(ctx, "Note deleted", log.FieldNoteID, id)
	return nil
}

func (s *LedgerService) authorize(ctx context.Context, actor *auth.Identity, action auth.Action) error {
	err := auth.Authorize(actor, action)
	if errors.Is(err, core.ErrForbidden) {
		s.events.LogDenied(ctx, string(action), roleOf(actor))
	}
	return err
}

// publish never fails the caller. The write is already committed.
func (s *LedgerService) publish(ctx context.Context, e amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		fields := log.NewFields()
		fields[log.FieldEventKind] = string(e.Kind)
		if e.TransactionID != "" {
			fields[log.FieldTransactionID] = e.TransactionID
		}
		s.events.LogError(ctx, "Failed to publish ledger event", err, log.ComponentAMQP, log.OpPublish, fields)
	}
}

func roleOf(actor *auth.Identity) string {
	if actor == nil {
		return ""
	}
	return string(actor.Role)
}
