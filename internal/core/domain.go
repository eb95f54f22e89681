package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, matching the exported file format.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"

	Cash   PaymentMethod = "cash"
	Online PaymentMethod = "online"
)

// Fallback categories applied when a form leaves the category blank.
const (
	DefaultIncomeCategory  = "Food Sale"
	DefaultExpenseCategory = "Other"
	// UncategorizedLabel groups transactions without a category in rollups.
	UncategorizedLabel = "Other"
)

type (
	TransactionType string

	// PaymentMethod is empty when the entry predates payment tracking.
	PaymentMethod string

	Transaction struct {
		ID             string          `json:"id"`
		Amount         decimal.Decimal `json:"amount"`
		Type           TransactionType `json:"type"`
		Category       string          `json:"category"`
		Date           time.Time       `json:"date"`
		Note           string          `json:"note,omitempty"`
		CreatedAt      time.Time       `json:"createdAt"`
		PaymentMethod  PaymentMethod   `json:"paymentMethod,omitempty"`
		IsRecurring    bool            `json:"isRecurring,omitempty"`
		ReceiptDataURL string          `json:"receiptDataUrl,omitempty"`
	}

	// NewTransaction is the input accepted by stores. CreatedAt is assigned
	// by the adapter, and so is ID unless the caller sets one.
	NewTransaction struct {
		ID             string
		Amount         decimal.Decimal
		Type           TransactionType
		Category       string
		Date           time.Time
		Note           string
		PaymentMethod  PaymentMethod
		IsRecurring    bool
		ReceiptDataURL string
	}

	Note struct {
		ID        string    `json:"id"`
		Text      string    `json:"text"`
		CreatedAt time.Time `json:"createdAt"`
	}
)

var (
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidType     = errors.New("invalid transaction type")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidMethod   = errors.New("invalid payment method")
	ErrEmptyNote       = errors.New("empty note")
	ErrMissingDate     = errors.New("missing date")
	ErrCategoryTooLong = errors.New("category too long (max 100 characters)")
)

func (t TransactionType) Valid() bool {
	return t == Income || t == Expense
}

func (m PaymentMethod) Valid() bool {
	return m == "" || m == Cash || m == Online
}

// Effective returns the method used for cash accounting; absent means cash.
func (m PaymentMethod) Effective() PaymentMethod {
	if m == "" {
		return Cash
	}
	return m
}

// Method is the effective payment method of the transaction.
func (t Transaction) Method() PaymentMethod {
	return t.PaymentMethod.Effective()
}

func (n NewTransaction) Validate() error {
	if len(n.ID) > 64 {
		return NewValidationError("id", "Identifier is too long")
	}
	if !n.Amount.IsPositive() {
		return &ValidationError{Field: "amount", Message: "Amount must be a positive number", Err: ErrInvalidAmount}
	}
	if !n.Type.Valid() {
		return &ValidationError{Field: "type", Message: "Type must be income or expense", Err: ErrInvalidType}
	}
	category := strings.TrimSpace(n.Category)
	if category == "" {
		return &ValidationError{Field: "category", Message: "Category is required", Err: ErrEmptyCategory}
	}
	if len(category) > 100 {
		return &ValidationError{Field: "category", Message: ErrCategoryTooLong.Error(), Err: ErrCategoryTooLong}
	}
	if n.Date.IsZero() {
		return &ValidationError{Field: "date", Message: "Date is required", Err: ErrMissingDate}
	}
	if !n.PaymentMethod.Valid() {
		return &ValidationError{Field: "paymentMethod", Message: "Payment method must be cash or online", Err: ErrInvalidMethod}
	}
	return nil
}

// Template returns the creation input that reproduces t on a new date.
func (t Transaction) Template(date time.Time) NewTransaction {
	return NewTransaction{
		Amount:         t.Amount,
		Type:           t.Type,
		Category:       t.Category,
		Date:           date,
		Note:           t.Note,
		PaymentMethod:  t.PaymentMethod,
		IsRecurring:    t.IsRecurring,
		ReceiptDataURL: t.ReceiptDataURL,
	}
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateKey formats the calendar day of t as YYYY-MM-DD.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// TimestampLayout is the UTC millisecond form used by exports and the mirror.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
