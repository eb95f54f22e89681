package memory

import (
	"context"
	"testing"
	"time"

	"cafeledger/internal/core"

	"github.com/shopspring/decimal"
)

func TestMirror(t *testing.T) {
	ctx := context.Background()
	m := New()
	date := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

	for _, id := range []string{"a", "b"} {
		tx := core.Transaction{ID: id, Amount: decimal.NewFromInt(100), Type: core.Income, Category: "Sales", Date: date}
		if err := m.Append(ctx, tx); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	rows := m.Rows()
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	want := []string{"a", "2024-01-01T10:00:00.000Z", "income", "Sales", "100", "cash", ""}
	for i, v := range want {
		if rows[0][i] != v {
			t.Errorf("column %d = %q, want %q", i, rows[0][i], v)
		}
	}

	_ = m.Delete(ctx, "a")
	_ = m.Delete(ctx, "missing")
	if rows := m.Rows(); len(rows) != 1 || rows[0][0] != "b" {
		t.Fatalf("after delete rows = %v", rows)
	}

	_ = m.Clear(ctx)
	if len(m.Rows()) != 0 {
		t.Fatal("expected no rows after Clear")
	}
}
