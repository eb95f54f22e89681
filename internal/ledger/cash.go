package ledger

import (
	"time"

	"cafeledger/internal/core"

	"github.com/shopspring/decimal"
)

// Cash is the drawer reconciliation for one day.
type Cash struct {
	StartingCash  decimal.Decimal `json:"startingCash"`
	CashSales     decimal.Decimal `json:"cashSales"`
	OnlineSales   decimal.Decimal `json:"onlineSales"`
	CashPaidOut   decimal.Decimal `json:"cashPaidOut"`
	OnlinePaidOut decimal.Decimal `json:"onlinePaidOut"`
	ExpectedCash  decimal.Decimal `json:"expectedCash"`
}

// CashReconciliation computes the expected drawer balance for now's day.
// Online transactions are reported but never touch ExpectedCash.
func CashReconciliation(txs []core.Transaction, startingCash decimal.Decimal, now time.Time) Cash {
	c := Cash{
		StartingCash:  startingCash,
		CashSales:     decimal.Zero,
		OnlineSales:   decimal.Zero,
		CashPaidOut:   decimal.Zero,
		OnlinePaidOut: decimal.Zero,
	}
	for _, tx := range Today(txs, now) {
		cash := tx.Method() == core.Cash
		switch {
		case tx.Type == core.Income && cash:
			c.CashSales = c.CashSales.Add(tx.Amount)
		case tx.Type == core.Income:
			c.OnlineSales = c.OnlineSales.Add(tx.Amount)
		case tx.Type == core.Expense && cash:
			c.CashPaidOut = c.CashPaidOut.Add(tx.Amount)
		case tx.Type == core.Expense:
			c.OnlinePaidOut = c.OnlinePaidOut.Add(tx.Amount)
		}
	}
	c.ExpectedCash = startingCash.Add(c.CashSales).Sub(c.CashPaidOut)
	return c
}
