package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"cafeledger/internal/core"

	"github.com/google/uuid"
)

// Store keeps both record kinds in process memory.
type Store struct {
	mu       sync.Mutex
	txs      []core.Transaction
	notes    []core.Note
	profiles map[string]string
	now      func() time.Time
}

func New() *Store {
	return &Store{profiles: map[string]string{}, now: time.Now}
}

// NewFromFiles seeds the store from transactions.json and notes.json under
// base when present. Missing files leave the store empty.
func NewFromFiles(base string) (*Store, error) {
	s := New()
	if err := readJSON(filepath.Join(base, "transactions.json"), &s.txs); err != nil {
		return nil, err
	}
	if err := readJSON(filepath.Join(base, "notes.json"), &s.notes); err != nil {
		return nil, err
	}
	return s, nil
}

// WithClock replaces the creation-time source. Used by tests.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.txs)
	slices.SortStableFunc(out, func(a, b core.Transaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) Create(_ context.Context, in core.NewTransaction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.txs, func(t core.Transaction) bool { return t.ID == id }) {
		return core.WrapStorage("create transaction", fmt.Errorf("duplicate id %s", id))
	}
	s.txs = append(s.txs, core.Transaction{
		ID:             id,
		Amount:         in.Amount,
		Type:           in.Type,
		Category:       in.Category,
		Date:           in.Date,
		Note:           in.Note,
		CreatedAt:      s.now(),
		PaymentMethod:  in.PaymentMethod,
		IsRecurring:    in.IsRecurring,
		ReceiptDataURL: in.ReceiptDataURL,
	})
	return nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = slices.DeleteFunc(s.txs, func(t core.Transaction) bool { return t.ID == id })
	return nil
}

func (s *Store) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txs = nil
	return nil
}

func (s *Store) ListNotes(_ context.Context) ([]core.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.notes)
	slices.SortStableFunc(out, func(a, b core.Note) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out, nil
}

func (s *Store) CreateNote(_ context.Context, text string) error {
	if text == "" {
		return &core.ValidationError{Field: "text", Message: "Note cannot be empty", Err: core.ErrEmptyNote}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = append(s.notes, core.Note{ID: uuid.NewString(), Text: text, CreatedAt: s.now()})
	return nil
}

func (s *Store) DeleteNote(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notes = slices.DeleteFunc(s.notes, func(n core.Note) bool { return n.ID == id })
	return nil
}

func (s *Store) ProfileRole(_ context.Context, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profiles[userID], nil
}

func (s *Store) SetProfileRole(_ context.Context, userID, role string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[userID] = role
	return nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("decode seed %s: %w", path, err)
	}
	return nil
}
