// Package export renders the ledger as CSV, JSON and the printable daily
// close report.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cafeledger/internal/core"
)

const (
	CSVFilename  = "cafe-ledger.csv"
	JSONFilename = "cafe-ledger.json"
)

// CSVHeader names the exported columns in order.
var CSVHeader = []string{"date", "type", "category", "amount", "paymentMethod", "note"}

// CSV renders txs in the given order. Every field is quoted and rows end
// with a newline.
func CSV(txs []core.Transaction) string {
	var b strings.Builder
	writeRow(&b, CSVHeader)
	for _, tx := range txs {
		writeRow(&b, []string{
			core.FormatTimestamp(tx.Date),
			string(tx.Type),
			tx.Category,
			tx.Amount.String(),
			string(tx.PaymentMethod),
			tx.Note,
		})
	}
	return b.String()
}

// WriteCSV writes CSV(txs) to w.
func WriteCSV(w io.Writer, txs []core.Transaction) error {
	if _, err := io.WriteString(w, CSV(txs)); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func writeRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
}

// WriteJSON writes txs as an indented JSON array.
func WriteJSON(w io.Writer, txs []core.Transaction) error {
	if txs == nil {
		txs = []core.Transaction{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(txs); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	return nil
}
