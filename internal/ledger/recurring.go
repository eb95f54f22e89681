package ledger

import (
	"time"

	"cafeledger/internal/core"
)

// RecurringReminders returns the recurring templates with no matching
// entry (same category, same type, amount within core.Tolerance) in now's
// calendar month.
func RecurringReminders(txs []core.Transaction, now time.Time) []core.Transaction {
	due := make([]core.Transaction, 0)
	loc := now.Location()
	year, month, _ := now.Date()

	var monthTx []core.Transaction
	for _, tx := range txs {
		y, m, _ := tx.Date.In(loc).Date()
		if y == year && m == month {
			monthTx = append(monthTx, tx)
		}
	}

	for _, tpl := range txs {
		if !tpl.IsRecurring {
			continue
		}
		if !repeatedIn(tpl, monthTx) {
			due = append(due, tpl)
		}
	}
	return due
}

func repeatedIn(tpl core.Transaction, monthTx []core.Transaction) bool {
	for _, tx := range monthTx {
		if tx.Category == tpl.Category &&
			tx.Type == tpl.Type &&
			tx.Amount.Sub(tpl.Amount).Abs().LessThan(core.Tolerance) {
			return true
		}
	}
	return false
}

// FromTemplate builds the entry that repeats tpl now.
func FromTemplate(tpl core.Transaction, now time.Time) core.NewTransaction {
	return tpl.Template(now)
}
