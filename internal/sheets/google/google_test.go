package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/log"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
)

type call struct {
	method string
	path   string
	body   string
}

type fakeSheets struct {
	mu    sync.Mutex
	calls []call
	ids   [][]any
	head  [][]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.calls = append(f.calls, call{r.Method, r.URL.Path, string(body)})
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodGet && strings.HasSuffix(r.URL.Path, "!A:A"):
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.ids})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(map[string]any{"values": f.head})
	default:
		_, _ = w.Write([]byte(`{}`))
	}
}

func (f *fakeSheets) paths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	for i, c := range f.calls {
		out[i] = c.method + " " + c.path
	}
	return out
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{
		SpreadsheetID: "sheet-1",
		Options: []goption.ClientOption{
			goption.WithEndpoint(srv.URL + "/"),
			goption.WithoutAuthentication(),
			goption.WithHTTPClient(srv.Client()),
		},
	}, log.Discard())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Config{}, log.Discard())
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestNew_MissingCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAppendWritesHeaderOnce(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	tx := core.Transaction{
		ID: "tx-1", Amount: decimal.RequireFromString("12.50"), Type: core.Expense,
		Category: "Milk", Date: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC), PaymentMethod: core.Online,
	}

	for i := 0; i < 2; i++ {
		if err := c.Append(context.Background(), tx); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	got := fake.paths()
	want := []string{
		"GET /v4/spreadsheets/sheet-1/values/Ledger!A1:G1",
		"PUT /v4/spreadsheets/sheet-1/values/Ledger!A1:G1",
		"POST /v4/spreadsheets/sheet-1/values/Ledger!A:G:append",
		"POST /v4/spreadsheets/sheet-1/values/Ledger!A:G:append",
	}
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Fatalf("calls:\n%s\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if !strings.Contains(fake.calls[2].body, `["tx-1","2024-01-01T10:00:00.000Z","expense","Milk","12.5","online",""]`) {
		t.Errorf("append body = %s", fake.calls[2].body)
	}
}

func TestDeleteClearsMatchingRow(t *testing.T) {
	fake := &fakeSheets{ids: [][]any{{"id"}, {"a"}, {}, {"b"}}}
	c := newTestClient(t, fake)

	if err := c.Delete(context.Background(), "b"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := c.Delete(context.Background(), "missing"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}

	got := fake.paths()
	if len(got) != 3 || got[1] != "POST /v4/spreadsheets/sheet-1/values/Ledger!A4:G4:clear" {
		t.Fatalf("calls = %v", got)
	}
}

func TestClear(t *testing.T) {
	fake := &fakeSheets{}
	c := newTestClient(t, fake)
	if err := c.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if got := fake.paths(); len(got) != 1 || got[0] != "POST /v4/spreadsheets/sheet-1/values/Ledger!A2:G:clear" {
		t.Fatalf("calls = %v", got)
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{{"id"}, {" a "}, {}, {"b", "x"}}
	tests := []struct {
		id   string
		want int
	}{
		{"a", 2},
		{"b", 4},
		{"c", 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.id); got != tt.want {
			t.Errorf("findRow(%q) = %d, want %d", tt.id, got, tt.want)
		}
	}
}
