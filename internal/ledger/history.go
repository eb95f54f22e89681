package ledger

import (
	"slices"
	"strings"
	"time"

	"cafeledger/internal/core"
)

// DefaultSuggestionLimit caps category suggestions.
const DefaultSuggestionLimit = 6

// HistoryFilter narrows the history list. Zero values disable a criterion.
// From and To are inclusive calendar days.
type HistoryFilter struct {
	Type   core.TransactionType
	From   time.Time
	To     time.Time
	Search string
}

// Filter applies f to txs, preserving order.
func Filter(txs []core.Transaction, f HistoryFilter) []core.Transaction {
	var from, to time.Time
	if !f.From.IsZero() {
		from = core.StartOfDay(f.From)
	}
	if !f.To.IsZero() {
		to = core.StartOfDay(f.To).AddDate(0, 0, 1)
	}
	q := strings.ToLower(strings.TrimSpace(f.Search))

	out := make([]core.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if !from.IsZero() && tx.Date.Before(from) {
			continue
		}
		if !to.IsZero() && !tx.Date.Before(to) {
			continue
		}
		if q != "" &&
			!strings.Contains(strings.ToLower(tx.Category), q) &&
			!strings.Contains(strings.ToLower(tx.Note), q) {
			continue
		}
		out = append(out, tx)
	}
	return out
}

// CategorySuggestions lists distinct non-empty categories containing query,
// case-insensitively, sorted and capped at limit.
func CategorySuggestions(txs []core.Transaction, query string, limit int) []string {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	seen := make(map[string]struct{})
	all := make([]string, 0)
	for _, tx := range txs {
		c := strings.TrimSpace(tx.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		all = append(all, c)
	}
	slices.Sort(all)

	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]string, 0, limit)
	for _, c := range all {
		if q != "" && !strings.Contains(strings.ToLower(c), q) {
			continue
		}
		out = append(out, c)
		if len(out) == limit {
			break
		}
	}
	return out
}
