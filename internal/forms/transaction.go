// Package forms validates and normalizes user input before it reaches a store.
package forms

import (
	"strings"
	"time"

	"cafeledger/internal/core"
)

// DefaultPaymentMethod is preselected on new entries.
const DefaultPaymentMethod = core.Online

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// TransactionForm carries the raw fields of the entry form.
type TransactionForm struct {
	Amount        string `json:"amount"`
	Type          string `json:"type"`
	Category      string `json:"category"`
	Date          string `json:"date"`
	Note          string `json:"note"`
	PaymentMethod string `json:"paymentMethod"`
	IsRecurring   bool   `json:"isRecurring"`
}

// Submission is a validated entry ready for the store. Warnings hold
// non-blocking problems such as an unreadable receipt.
type Submission struct {
	Input    core.NewTransaction
	Warnings []string
}

// Normalize validates f and fills defaults. A blank date means now; dates
// without a zone are read in now's location.
func (f TransactionForm) Normalize(now time.Time) (Submission, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return Submission{}, err
	}

	typ := core.TransactionType(strings.ToLower(strings.TrimSpace(f.Type)))
	if typ == "" {
		typ = core.Income
	}
	if !typ.Valid() {
		return Submission{}, &core.ValidationError{Field: "type", Message: "Type must be income or expense", Err: core.ErrInvalidType}
	}

	date, err := parseDate(f.Date, now)
	if err != nil {
		return Submission{}, err
	}

	method := core.PaymentMethod(strings.ToLower(strings.TrimSpace(f.PaymentMethod)))
	if method == "" {
		method = DefaultPaymentMethod
	}

	in := core.NewTransaction{
		Amount:        amount,
		Type:          typ,
		Category:      CategoryOrDefault(f.Category, typ),
		Date:          date,
		Note:          strings.TrimSpace(f.Note),
		PaymentMethod: method,
		IsRecurring:   f.IsRecurring,
	}
	if err := in.Validate(); err != nil {
		return Submission{}, err
	}
	return Submission{Input: in}, nil
}

// CategoryOrDefault trims category and falls back to the type's default.
func CategoryOrDefault(category string, typ core.TransactionType) string {
	if c := strings.TrimSpace(category); c != "" {
		return c
	}
	if typ == core.Expense {
		return core.DefaultExpenseCategory
	}
	return core.DefaultIncomeCategory
}

func parseDate(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return now, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.NewValidationError("date", "Date is not a valid date")
}

// QuickPicks returns the shortcut categories offered for typ.
func QuickPicks(typ core.TransactionType) []string {
	if typ == core.Expense {
		return []string{"Grocery", "Chicken", "Electricity Bill", "Salary", "Rent", "Vendor Payment"}
	}
	return []string{"Food Sale"}
}
