package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderDailyClose(t *testing.T) {
	now := time.Date(2024, 3, 15, 18, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		{ID: "a", Type: core.Income, Category: "Coffee", Amount: decimal.NewFromInt(300), Date: now.Add(-2 * time.Hour)},
		{ID: "b", Type: core.Expense, Category: "Milk", Amount: decimal.NewFromInt(40), Date: now.Add(-time.Hour)},
		{ID: "c", Type: core.Income, Category: "Yesterday", Amount: decimal.NewFromInt(99), Date: now.AddDate(0, 0, -1)},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderDailyClose(&buf, ledger.DailyClose(txs, now)))
	out := buf.String()

	assert.Contains(t, out, "Friday, 15 March 2024")
	assert.Contains(t, out, "300.00")
	assert.Contains(t, out, "260.00")
	assert.Contains(t, out, "16:00")
	assert.NotContains(t, out, "Yesterday")
}

func TestRenderDailyCloseEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderDailyClose(&buf, ledger.DailyClose(nil, time.Now())))
	assert.Contains(t, buf.String(), "No transactions today.")
}

func TestRenderReminders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderReminders(&buf, nil))
	assert.Contains(t, buf.String(), "Nothing recurring")

	buf.Reset()
	due := []core.Transaction{{ID: "rent-1", Type: core.Expense, Category: "Rent", Amount: decimal.NewFromInt(9000), IsRecurring: true,
		Date: time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)}}
	require.NoError(t, RenderReminders(&buf, due))
	out := buf.String()
	assert.True(t, strings.Contains(out, "rent-1") && strings.Contains(out, "9000.00"), out)
}
