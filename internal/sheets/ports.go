// Package sheets mirrors ledger events into a spreadsheet.
package sheets

import (
	"context"

	"cafeledger/internal/core"
)

// Mirror is the outbound port the mirror worker writes to.
type Mirror interface {
	Append(ctx context.Context, tx core.Transaction) error
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
}

// Header names the mirror columns in order.
var Header = []string{"id", "date", "type", "category", "amount", "paymentMethod", "note"}

// Row renders tx in Header order.
func Row(tx core.Transaction) []string {
	return []string{
		tx.ID,
		core.FormatTimestamp(tx.Date),
		string(tx.Type),
		tx.Category,
		tx.Amount.String(),
		string(tx.Method()),
		tx.Note,
	}
}
