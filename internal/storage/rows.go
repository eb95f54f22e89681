package storage

import (
	"database/sql"
	"fmt"
	"time"

	"cafeledger/internal/core"

	"github.com/shopspring/decimal"
)

// TimeLayout is fixed width so that TEXT ordering matches time ordering.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

type transactionRow struct {
	ID             string         `db:"id"`
	Amount         string         `db:"amount"`
	Type           string         `db:"type"`
	Category       string         `db:"category"`
	Date           string         `db:"date"`
	Note           sql.NullString `db:"note"`
	PaymentMethod  sql.NullString `db:"payment_method"`
	IsRecurring    sql.NullBool   `db:"is_recurring"`
	ReceiptDataURL sql.NullString `db:"receipt_data_url"`
	CreatedAt      string         `db:"created_at"`
}

type noteRow struct {
	ID        string `db:"id"`
	Text      string `db:"text"`
	CreatedAt string `db:"created_at"`
}

func formatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeLayout, s)
	if err != nil {
		// Rows written by other tools may carry plain RFC3339.
		return time.Parse(time.RFC3339Nano, s)
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func fromCore(id string, in core.NewTransaction, createdAt time.Time) transactionRow {
	return transactionRow{
		ID:             id,
		Amount:         in.Amount.String(),
		Type:           string(in.Type),
		Category:       in.Category,
		Date:           formatTime(in.Date),
		Note:           nullString(in.Note),
		PaymentMethod:  nullString(string(in.PaymentMethod)),
		IsRecurring:    sql.NullBool{Bool: in.IsRecurring, Valid: in.IsRecurring},
		ReceiptDataURL: nullString(in.ReceiptDataURL),
		CreatedAt:      formatTime(createdAt),
	}
}

func (r transactionRow) toCore() (core.Transaction, error) {
	amount, err := decimal.NewFromString(r.Amount)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: amount %q: %w", r.ID, r.Amount, err)
	}
	date, err := parseTime(r.Date)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: date: %w", r.ID, err)
	}
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("row %s: created_at: %w", r.ID, err)
	}
	return core.Transaction{
		ID:             r.ID,
		Amount:         amount,
		Type:           core.TransactionType(r.Type),
		Category:       r.Category,
		Date:           date,
		Note:           r.Note.String,
		CreatedAt:      created,
		PaymentMethod:  core.PaymentMethod(r.PaymentMethod.String),
		IsRecurring:    r.IsRecurring.Valid && r.IsRecurring.Bool,
		ReceiptDataURL: r.ReceiptDataURL.String,
	}, nil
}

func (r noteRow) toCore() (core.Note, error) {
	created, err := parseTime(r.CreatedAt)
	if err != nil {
		return core.Note{}, fmt.Errorf("note %s: created_at: %w", r.ID, err)
	}
	return core.Note{ID: r.ID, Text: r.Text, CreatedAt: created}, nil
}
