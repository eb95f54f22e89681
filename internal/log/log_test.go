package log

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerAddsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := NewText(&buf, slog.LevelInfo, ComponentLedger)
	l.Info("hello", FieldCategory, "Rent")
	out := buf.String()
	if !strings.Contains(out, "component=ledger") || !strings.Contains(out, "category=Rent") {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestContextLogger(t *testing.T) {
	l := Discard()
	if got := FromContext(NewContext(context.Background(), l)); got != l {
		t.Fatalf("expected logger from context")
	}
	if FromContext(context.Background()) == nil {
		t.Fatalf("expected fallback logger")
	}

	var buf bytes.Buffer
	ctx := RequestLogger(context.Background(), NewText(&buf, slog.LevelInfo, ComponentHTTP), "req_1")
	FromContext(ctx).Info("served")
	if !strings.Contains(buf.String(), "request_id=req_1") {
		t.Fatalf("request id missing from %q", buf.String())
	}
}

func TestLogFields(t *testing.T) {
	f := NewFields().WithTransaction("t1", "income", "Food Sale", "12.50").WithError(errors.New("boom")).WithError(nil)
	if f[FieldTransactionID] != "t1" || f[FieldAmount] != "12.50" || f[FieldError] != "boom" {
		t.Fatalf("unexpected fields %v", f)
	}
	if len(f.ToSlice()) != 2*len(f) {
		t.Fatalf("slice length mismatch")
	}
}
