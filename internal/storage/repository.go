package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/log"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

const (
	insertTransaction = `INSERT INTO transactions
		(id, amount, type, category, date, note, payment_method, is_recurring, receipt_data_url, created_at)
		VALUES (:id, :amount, :type, :category, :date, :note, :payment_method, :is_recurring, :receipt_data_url, :created_at)`
	selectTransactions = `SELECT id, amount, type, category, date, note, payment_method, is_recurring, receipt_data_url, created_at
		FROM transactions ORDER BY created_at DESC, rowid DESC`
	insertNote  = `INSERT INTO notes (id, text, created_at) VALUES (:id, :text, :created_at)`
	selectNotes = `SELECT id, text, created_at FROM notes ORDER BY created_at DESC, rowid DESC`
)

// SQLiteRepository persists transactions, notes and profiles in SQLite.
type SQLiteRepository struct {
	db     *sqlx.DB
	now    func() time.Time
	logger *log.Logger
}

// DSN builds the connection string for a database file.
func DSN(dbPath string) string {
	return dbPath + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := DSN(dbPath)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:     db,
		now:    time.Now,
		logger: log.New(log.DefaultConfig()).WithComponent(log.ComponentStorage),
	}, nil
}

// WithLogger replaces the repository logger.
func (r *SQLiteRepository) WithLogger(l *log.Logger) *SQLiteRepository {
	r.logger = l.WithComponent(log.ComponentStorage)
	return r
}

// WithClock replaces the creation-time source. Used by tests.
func (r *SQLiteRepository) WithClock(now func() time.Time) *SQLiteRepository {
	r.now = now
	return r
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks database connectivity for readiness probes.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) List(ctx context.Context) ([]core.Transaction, error) {
	var rows []transactionRow
	if err := r.db.SelectContext(ctx, &rows, selectTransactions); err != nil {
		return nil, core.WrapStorage("list transactions", err)
	}
	out := make([]core.Transaction, 0, len(rows))
	for _, row := range rows {
		tx, err := row.toCore()
		if err != nil {
			return nil, core.WrapStorage("list transactions", err)
		}
		out = append(out, tx)
	}
	return out, nil
}

func (r *SQLiteRepository) Create(ctx context.Context, in core.NewTransaction) error {
	if err := in.Validate(); err != nil {
		return err
	}
	id := in.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := fromCore(id, in, r.now())
	if _, err := r.db.NamedExecContext(ctx, insertTransaction, row); err != nil {
		return core.WrapStorage("create transaction", err)
	}

	r.logger.InfoContext(ctx, "Transaction saved to SQLite",
		log.FieldTransactionID, row.ID,
		log.FieldTransactionType, row.Type,
		log.FieldCategory, row.Category,
		log.FieldAmount, row.Amount)
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return core.WrapStorage("delete transaction", err)
	}
	return nil
}

func (r *SQLiteRepository) ClearAll(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions`)
	if err != nil {
		return core.WrapStorage("clear transactions", err)
	}
	n, _ := res.RowsAffected()
	r.logger.InfoContext(ctx, "Transactions cleared", "rows", n)
	return nil
}

func (r *SQLiteRepository) ListNotes(ctx context.Context) ([]core.Note, error) {
	var rows []noteRow
	if err := r.db.SelectContext(ctx, &rows, selectNotes); err != nil {
		return nil, core.WrapStorage("list notes", err)
	}
	out := make([]core.Note, 0, len(rows))
	for _, row := range rows {
		n, err := row.toCore()
		if err != nil {
			return nil, core.WrapStorage("list notes", err)
		}
		out = append(out, n)
	}
	return out, nil
}

func (r *SQLiteRepository) CreateNote(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return &core.ValidationError{Field: "text", Message: "Note cannot be empty", Err: core.ErrEmptyNote}
	}
	row := noteRow{ID: uuid.NewString(), Text: text, CreatedAt: formatTime(r.now())}
	if _, err := r.db.NamedExecContext(ctx, insertNote, row); err != nil {
		return core.WrapStorage("create note", err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteNote(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ?`, id); err != nil {
		return core.WrapStorage("delete note", err)
	}
	return nil
}

func (r *SQLiteRepository) ProfileRole(ctx context.Context, userID string) (string, error) {
	var role string
	err := r.db.GetContext(ctx, &role, `SELECT role FROM profiles WHERE user_id = ?`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", core.WrapStorage("read profile", err)
	}
	return role, nil
}

func (r *SQLiteRepository) SetProfileRole(ctx context.Context, userID, role string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO profiles (user_id, role) VALUES (?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET role = excluded.role`, userID, role)
	return core.WrapStorage("write profile", err)
}
