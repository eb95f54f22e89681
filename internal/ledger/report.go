package ledger

import (
	"time"

	"cafeledger/internal/core"
)

// DailyReport is the end-of-day close for one calendar day.
type DailyReport struct {
	Day          time.Time          `json:"day"`
	Summary      Summary            `json:"summary"`
	Transactions []core.Transaction `json:"transactions"`
}

// DailyClose collects now's transactions and their totals.
func DailyClose(txs []core.Transaction, now time.Time) DailyReport {
	today := Today(txs, now)
	return DailyReport{
		Day:          core.StartOfDay(now),
		Summary:      Totals(today),
		Transactions: today,
	}
}
