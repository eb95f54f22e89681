package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cafeledger/internal/auth"
	"cafeledger/internal/log"
	"cafeledger/internal/services"
	"cafeledger/internal/settings"
	"cafeledger/internal/store/memory"
)

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type testServer struct {
	*Server
	cookies []*http.Cookie
}

func newTestServer(t *testing.T, mutate func(*Deps)) *testServer {
	t.Helper()
	mem := memory.New()
	prefs, err := settings.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("settings store: %v", err)
	}
	d := Deps{
		Ledger:             services.NewLedgerService(mem, mem, log.Discard(), services.WithClock(func() time.Time { return fixedNow })),
		Settings:           prefs,
		Logger:             log.Discard(),
		RateLimitPerMinute: 1000,
	}
	if mutate != nil {
		mutate(&d)
	}
	srv, err := NewServer(":0", d)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testServer{Server: srv}
}

// do sends a request carrying the cookies collected so far.
func (ts *testServer) do(t *testing.T, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for _, c := range ts.cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	ts.Handler.ServeHTTP(rr, req)
	for _, c := range rr.Result().Cookies() {
		ts.cookies = append(ts.cookies, c)
	}
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return out
}

const jsonType = "application/json"

func TestIndexAndHealth(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodGet, "/", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("index status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "Cafe Ledger") {
		t.Fatalf("index body missing heading")
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Errorf("missing X-Request-ID")
	}
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("missing security headers")
	}

	for _, path := range []string{"/healthz", "/readyz", "/metrics", "/static/app.css"} {
		rr := ts.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	requests := decode(t, ts.do(t, http.MethodGet, "/metrics", "", ""))["requests"].(map[string]any)
	if _, ok := requests["averageDurationUs"]; !ok {
		t.Errorf("metrics requests = %v, want averageDurationUs", requests)
	}
}

func TestReadyReportsFailingChecks(t *testing.T) {
	ts := newTestServer(t, func(d *Deps) {
		d.Checks = []Check{
			{Name: "store", Ping: func(context.Context) error { return nil }},
			{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }},
		}
	})

	rr := ts.do(t, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	checks := decode(t, rr)["checks"].(map[string]any)
	if checks["store"] != "ok" || checks["redis"] != "connection refused" {
		t.Errorf("checks = %v", checks)
	}
}

func TestTransactionLifecycle(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded", "amount=abc&type=income")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid amount: status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodPost, "/api/transactions", jsonType,
		`{"amount":"250","type":"income","category":"Coffee","paymentMethod":"online","date":"2024-03-15T09:30"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Header().Get("HX-Trigger"), EventLedgerChanged) {
		t.Errorf("HX-Trigger = %q", rr.Header().Get("HX-Trigger"))
	}

	rr = ts.do(t, http.MethodPost, "/api/transactions", "application/x-www-form-urlencoded",
		"amount=40&type=expense&category=Milk&paymentMethod=cash&date=2024-03-15T10:00")
	if rr.Code != http.StatusCreated {
		t.Fatalf("create form: status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = ts.do(t, http.MethodGet, "/api/transactions?type=income", "", "")
	txs := decode(t, rr)["transactions"].([]any)
	if len(txs) != 1 {
		t.Fatalf("income filter returned %d", len(txs))
	}
	id := txs[0].(map[string]any)["id"].(string)

	rr = ts.do(t, http.MethodGet, "/api/summary", "", "")
	today := decode(t, rr)["today"].(map[string]any)
	if today["income"] != 250.0 || today["expense"] != 40.0 || today["profit"] != 210.0 {
		t.Errorf("today = %v", today)
	}

	rr = ts.do(t, http.MethodGet, "/api/export.csv", "", "")
	if got := rr.Header().Get("Content-Disposition"); got != `attachment; filename="cafe-ledger.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.Contains(rr.Body.String(), `"Coffee","250","online"`) {
		t.Errorf("csv = %s", rr.Body.String())
	}

	rr = ts.do(t, http.MethodGet, "/reports/daily-close", "", "")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `data-total="profit">210.00<`) {
		t.Errorf("daily close status=%d", rr.Code)
	}

	rr = ts.do(t, http.MethodDelete, "/api/transactions/"+url.PathEscape(id), "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete: status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/api/transactions", "", "")
	if n := len(decode(t, rr)["transactions"].([]any)); n != 1 {
		t.Fatalf("after delete %d transactions remain", n)
	}

	rr = ts.do(t, http.MethodDelete, "/api/transactions", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("clear: status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodGet, "/api/export.json", "", "")
	if strings.TrimSpace(rr.Body.String()) != "[]" {
		t.Errorf("export after clear = %q", rr.Body.String())
	}
}

func TestHistoryFilterRejectsBadType(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(t, http.MethodGet, "/api/transactions?type=refund", "", "")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestNotes(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPost, "/api/notes", "application/x-www-form-urlencoded", "text=+++")
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("blank note: status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodPost, "/api/notes", jsonType, `{"text":"Order more milk"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create note: status=%d", rr.Code)
	}
	notes := decode(t, ts.do(t, http.MethodGet, "/api/notes", "", ""))["notes"].([]any)
	if len(notes) != 1 || notes[0].(map[string]any)["text"] != "Order more milk" {
		t.Fatalf("notes = %v", notes)
	}
}

func TestSettingsArePerDevice(t *testing.T) {
	ts := newTestServer(t, nil)

	rr := ts.do(t, http.MethodPut, "/api/settings", jsonType, `{"dailyTarget":500}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put settings: status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = ts.do(t, http.MethodPut, "/api/settings/starting-cash/2024-03-15", jsonType, `{"amount":"200"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("put starting cash: status=%d body=%s", rr.Code, rr.Body.String())
	}

	got := decode(t, ts.do(t, http.MethodGet, "/api/settings", "", ""))
	if got["dailyTarget"] != 500.0 {
		t.Errorf("dailyTarget = %v", got["dailyTarget"])
	}
	cash := decode(t, ts.do(t, http.MethodGet, "/api/cash", "", ""))
	if cash["startingCash"] != 200.0 || cash["expectedCash"] != 200.0 {
		t.Errorf("cash = %v", cash)
	}

	// A fresh device starts from defaults.
	other := &testServer{Server: ts.Server}
	if v := decode(t, other.do(t, http.MethodGet, "/api/settings", "", ""))["dailyTarget"]; v != 0.0 {
		t.Errorf("other device dailyTarget = %v", v)
	}

	rr = ts.do(t, http.MethodPut, "/api/settings", jsonType, `{"dailyTarget":-1}`)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("negative target: status=%d", rr.Code)
	}
}

func TestRoleGating(t *testing.T) {
	resolver, err := auth.NewStaticResolver(
		map[string]auth.Role{"cashier": auth.RoleUser},
		map[string]string{"cashier": "pass"},
	)
	if err != nil {
		t.Fatal(err)
	}
	ts := newTestServer(t, func(d *Deps) {
		d.AuthEnabled = true
		d.Resolver = resolver
		d.Sessions = auth.NewSessions("0123456789abcdef0123", time.Hour)
	})
	entry := `{"amount":"10","type":"income"}`

	rr := ts.do(t, http.MethodPost, "/api/transactions", jsonType, entry)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: status=%d", rr.Code)
	}
	assertSignedOut(t, ts)

	rr = ts.do(t, http.MethodPost, "/auth/login", jsonType, `{"username":"cashier","password":"nope"}`)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login: status=%d", rr.Code)
	}
	rr = ts.do(t, http.MethodPost, "/auth/login", jsonType, `{"username":"cashier","password":"pass"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("login: status=%d", rr.Code)
	}

	session := decode(t, ts.do(t, http.MethodGet, "/auth/session", "", ""))
	perms := session["permissions"].(map[string]any)
	if session["authenticated"] != true || perms["create_transaction"] != true || perms["delete"] != false {
		t.Fatalf("session = %v", session)
	}

	if rr := ts.do(t, http.MethodPost, "/api/transactions", jsonType, entry); rr.Code != http.StatusCreated {
		t.Fatalf("user create: status=%d", rr.Code)
	}
	if rr := ts.do(t, http.MethodPost, "/api/notes", jsonType, `{"text":"hi"}`); rr.Code != http.StatusForbidden {
		t.Fatalf("user note: status=%d", rr.Code)
	}
	if rr := ts.do(t, http.MethodDelete, "/api/transactions", "", ""); rr.Code != http.StatusForbidden {
		t.Fatalf("user clear: status=%d", rr.Code)
	}
	txs := decode(t, ts.do(t, http.MethodGet, "/api/transactions", "", ""))["transactions"].([]any)
	if len(txs) != 1 {
		t.Fatalf("forbidden clear touched the ledger: %d left", len(txs))
	}

	if rr := ts.do(t, http.MethodGet, "/api/export.csv", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("signed-in export: status=%d", rr.Code)
	}

	ts.do(t, http.MethodPost, "/auth/logout", "", "")
	ts.cookies = nil
	if rr := ts.do(t, http.MethodPost, "/api/transactions", jsonType, entry); rr.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: status=%d", rr.Code)
	}
	assertSignedOut(t, ts)
}

// assertSignedOut checks that an anonymous caller sees no ledger data.
func assertSignedOut(t *testing.T, ts *testServer) {
	t.Helper()
	reads := []string{
		"/api/export.csv", "/api/export.json", "/api/transactions", "/api/notes",
		"/api/summary", "/api/insights", "/api/cash", "/api/recurring/reminders",
		"/api/categories/suggestions", "/reports/daily-close",
	}
	for _, path := range reads {
		rr := ts.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("anonymous GET %s: status=%d, want 401", path, rr.Code)
		}
	}

	rr := ts.do(t, http.MethodGet, "/", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("anonymous index: status=%d", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `hx-post="/auth/login"`) || strings.Contains(body, "New entry") || strings.Contains(body, "Export CSV") {
		t.Errorf("anonymous index leaks the ledger:\n%s", body)
	}
}

func TestRecurringEndpoints(t *testing.T) {
	ts := newTestServer(t, nil)
	rr := ts.do(t, http.MethodPost, "/api/transactions", jsonType,
		`{"amount":"9000","type":"expense","category":"Rent","isRecurring":true,"date":"2024-02-01T10:00"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: status=%d", rr.Code)
	}

	reminders := decode(t, ts.do(t, http.MethodGet, "/api/recurring/reminders", "", ""))["reminders"].([]any)
	if len(reminders) != 1 {
		t.Fatalf("reminders = %v", reminders)
	}
	id := reminders[0].(map[string]any)["id"].(string)

	if rr := ts.do(t, http.MethodPost, "/api/recurring/"+id+"/add", "", ""); rr.Code != http.StatusCreated {
		t.Fatalf("add recurring: status=%d", rr.Code)
	}
	reminders = decode(t, ts.do(t, http.MethodGet, "/api/recurring/reminders", "", ""))["reminders"].([]any)
	if len(reminders) != 0 {
		t.Fatalf("reminder still pending: %v", reminders)
	}
	if rr := ts.do(t, http.MethodPost, "/api/recurring/missing/add", "", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("missing template: status=%d", rr.Code)
	}
}

func TestSuggestions(t *testing.T) {
	ts := newTestServer(t, nil)
	ts.do(t, http.MethodPost, "/api/transactions", jsonType, `{"amount":"5","type":"expense","category":"Milk"}`)

	got := decode(t, ts.do(t, http.MethodGet, "/api/categories/suggestions?q=mi&type=expense", "", ""))
	if s := got["suggestions"].([]any); len(s) != 1 || s[0] != "Milk" {
		t.Errorf("suggestions = %v", s)
	}
	if picks := got["quickPicks"].([]any); len(picks) == 0 {
		t.Errorf("quickPicks empty")
	}
}
