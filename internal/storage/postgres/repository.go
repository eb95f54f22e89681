// Package postgres stores the ledger in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cafeledger/internal/core"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const selectTransactions = `SELECT id::text, amount::text, type, category, date, note, payment_method,
	is_recurring, receipt_data_url, created_at
	FROM transactions ORDER BY created_at DESC, id DESC`

type Repository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// Open connects to url, applies migrations and returns a repository.
func Open(ctx context.Context, url string) (*Repository, error) {
	if err := RunMigrations(url); err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return New(pool), nil
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool, now: time.Now}
}

func (r *Repository) Close() error {
	r.pool.Close()
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.pool.Query(ctx, selectTransactions)
	if err != nil {
		return nil, core.WrapStorage("list transactions", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		var (
			tx                    core.Transaction
			amount, typ           string
			note, method, receipt sql.NullString
			recurring             sql.NullBool
		)
		if err := rows.Scan(&tx.ID, &amount, &typ, &tx.Category, &tx.Date, &note, &method,
			&recurring, &receipt, &tx.CreatedAt); err != nil {
			return nil, core.WrapStorage("list transactions", err)
		}
		tx.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, core.WrapStorage("list transactions", fmt.Errorf("row %s amount: %w", tx.ID, err))
		}
		tx.Type = core.TransactionType(typ)
		tx.Note = note.String
		tx.PaymentMethod = core.PaymentMethod(method.String)
		tx.IsRecurring = recurring.Valid && recurring.Bool
		tx.ReceiptDataURL = receipt.String
		out = append(out, tx)
	}
	return out, core.WrapStorage("list transactions", rows.Err())
}

func (r *Repository) Create(ctx context.Context, in core.NewTransaction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	id := uuid.New()
	if in.ID != "" {
		parsed, err := uuid.Parse(in.ID)
		if err != nil {
			return core.NewValidationError("id", "Identifier must be a UUID")
		}
		id = parsed
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO transactions
		(id, amount, type, category, date, note, payment_method, is_recurring, receipt_data_url, created_at)
		VALUES ($1, $2::numeric, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, in.Amount.String(), string(in.Type), in.Category, in.Date,
		nullable(in.Note), nullable(string(in.PaymentMethod)),
		sql.NullBool{Bool: in.IsRecurring, Valid: in.IsRecurring},
		nullable(in.ReceiptDataURL), r.now())
	return core.WrapStorage("create transaction", err)
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		// Not a key this table can hold.
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM transactions WHERE id = $1`, id)
	return core.WrapStorage("delete transaction", err)
}

func (r *Repository) ClearAll(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM transactions`)
	return core.WrapStorage("clear transactions", err)
}

func (r *Repository) ListNotes(ctx context.Context) ([]core.Note, error) {
	rows, err := r.pool.Query(ctx, `SELECT id::text, text, created_at FROM notes ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, core.WrapStorage("list notes", err)
	}
	notes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (core.Note, error) {
		var n core.Note
		err := row.Scan(&n.ID, &n.Text, &n.CreatedAt)
		return n, err
	})
	if err != nil {
		return nil, core.WrapStorage("list notes", err)
	}
	return notes, nil
}

func (r *Repository) CreateNote(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &core.ValidationError{Field: "text", Message: "Note cannot be empty", Err: core.ErrEmptyNote}
	}
	_, err := r.pool.Exec(ctx, `INSERT INTO notes (id, text, created_at) VALUES ($1, $2, $3)`,
		uuid.New(), text, r.now())
	return core.WrapStorage("create note", err)
}

func (r *Repository) DeleteNote(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return nil
	}
	_, err := r.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, id)
	return core.WrapStorage("delete note", err)
}

func (r *Repository) ProfileRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.pool.QueryRow(ctx, `SELECT role FROM profiles WHERE user_id = $1`, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", core.WrapStorage("read profile", err)
	}
	return role, nil
}

func (r *Repository) SetProfileRole(ctx context.Context, userID, role string) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO profiles (user_id, role) VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET role = EXCLUDED.role`, userID, role)
	return core.WrapStorage("write profile", err)
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
