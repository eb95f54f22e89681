// Package ledger derives the read-only views of the cash book: totals,
// category rollups, the trailing week, cash reconciliation, recurring
// reminders and history filtering.
//
// Every function is pure and recomputed from the full transaction list.
// Calendar days are evaluated in the location of the supplied now.
package ledger

import (
	"slices"
	"time"

	"cafeledger/internal/core"

	"github.com/shopspring/decimal"
)

// Summary holds income, expense and their difference.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
}

// CategoryStat is one bucket of the category rollup.
type CategoryStat struct {
	Category string          `json:"category"`
	Income   decimal.Decimal `json:"income"`
	Expense  decimal.Decimal `json:"expense"`
	Count    int             `json:"count"`
}

// Totals sums income and expense over txs.
func Totals(txs []core.Transaction) Summary {
	s := Summary{Income: decimal.Zero, Expense: decimal.Zero}
	for _, tx := range txs {
		switch tx.Type {
		case core.Income:
			s.Income = s.Income.Add(tx.Amount)
		case core.Expense:
			s.Expense = s.Expense.Add(tx.Amount)
		}
	}
	s.Profit = s.Income.Sub(s.Expense)
	return s
}

// Today returns the transactions dated on now's calendar day.
func Today(txs []core.Transaction, now time.Time) []core.Transaction {
	return OnDay(txs, now)
}

// OnDay returns the transactions whose date falls on day's calendar day.
func OnDay(txs []core.Transaction, day time.Time) []core.Transaction {
	out := make([]core.Transaction, 0)
	for _, tx := range txs {
		if core.SameDay(tx.Date, day, day.Location()) {
			out = append(out, tx)
		}
	}
	return out
}

// TodayTotals is Totals restricted to now's calendar day.
func TodayTotals(txs []core.Transaction, now time.Time) Summary {
	return Totals(Today(txs, now))
}

// CategoryRollup groups txs by category, folding blank categories into
// "Other", and orders groups by expense, highest first. Groups with equal
// expense keep the order in which they were first seen.
func CategoryRollup(txs []core.Transaction) []CategoryStat {
	index := make(map[string]int)
	stats := make([]CategoryStat, 0)
	for _, tx := range txs {
		name := tx.Category
		if name == "" {
			name = core.UncategorizedLabel
		}
		i, ok := index[name]
		if !ok {
			i = len(stats)
			index[name] = i
			stats = append(stats, CategoryStat{Category: name, Income: decimal.Zero, Expense: decimal.Zero})
		}
		switch tx.Type {
		case core.Income:
			stats[i].Income = stats[i].Income.Add(tx.Amount)
		case core.Expense:
			stats[i].Expense = stats[i].Expense.Add(tx.Amount)
		}
		stats[i].Count++
	}
	slices.SortStableFunc(stats, func(a, b CategoryStat) int {
		return b.Expense.Cmp(a.Expense)
	})
	return stats
}
