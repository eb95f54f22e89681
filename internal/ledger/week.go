package ledger

import (
	"time"

	"cafeledger/internal/core"

	"github.com/shopspring/decimal"
)

// WeekDays is the length of the trailing series.
const WeekDays = 7

// DayProfit is one calendar day of the trailing series.
type DayProfit struct {
	Key     string          `json:"key"`
	Label   string          `json:"label"`
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Profit  decimal.Decimal `json:"profit"`
}

// Week is the trailing seven-day profit series ending today.
type Week struct {
	Days  [WeekDays]DayProfit `json:"days"`
	Best  DayProfit           `json:"best"`
	Worst DayProfit           `json:"worst"`
}

// WeekSeries buckets txs into the six days before now plus today.
// Best and worst are the first bucket holding the max and min profit.
func WeekSeries(txs []core.Transaction, now time.Time) Week {
	var w Week
	today := core.StartOfDay(now)
	keys := make(map[string]int, WeekDays)
	for i := 0; i < WeekDays; i++ {
		day := today.AddDate(0, 0, i-(WeekDays-1))
		key := core.DateKey(day)
		keys[key] = i
		w.Days[i] = DayProfit{
			Key:     key,
			Label:   day.Format("02 Jan"),
			Income:  decimal.Zero,
			Expense: decimal.Zero,
			Profit:  decimal.Zero,
		}
	}

	loc := now.Location()
	for _, tx := range txs {
		i, ok := keys[core.DateKey(tx.Date.In(loc))]
		if !ok {
			continue
		}
		switch tx.Type {
		case core.Income:
			w.Days[i].Income = w.Days[i].Income.Add(tx.Amount)
		case core.Expense:
			w.Days[i].Expense = w.Days[i].Expense.Add(tx.Amount)
		}
	}

	best, worst := 0, 0
	for i := range w.Days {
		w.Days[i].Profit = w.Days[i].Income.Sub(w.Days[i].Expense)
		if w.Days[i].Profit.GreaterThan(w.Days[best].Profit) {
			best = i
		}
		if w.Days[i].Profit.LessThan(w.Days[worst].Profit) {
			worst = i
		}
	}
	w.Best = w.Days[best]
	w.Worst = w.Days[worst]
	return w
}
