package http

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"cafeledger/internal/core"
)

func TestParseHistoryFilter(t *testing.T) {
	loc := time.FixedZone("IST", 19800)
	tests := []struct {
		name     string
		query    url.Values
		wantType core.TransactionType
		wantFrom time.Time
		wantErr  bool
	}{
		{name: "empty", query: url.Values{}},
		{name: "all", query: url.Values{"type": {"all"}}},
		{name: "expense", query: url.Values{"type": {"Expense"}}, wantType: core.Expense},
		{name: "bad type", query: url.Values{"type": {"refund"}}, wantErr: true},
		{name: "from", query: url.Values{"from": {"2024-03-01"}}, wantFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, loc)},
		{name: "bad to", query: url.Values{"to": {"03/01/2024"}}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseHistoryFilter(tt.query, loc)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !core.IsValidationError(err) {
					t.Errorf("expected a validation error, got %T", err)
				}
				return
			}
			if f.Type != tt.wantType {
				t.Errorf("Type = %q, want %q", f.Type, tt.wantType)
			}
			if !f.From.Equal(tt.wantFrom) {
				t.Errorf("From = %v, want %v", f.From, tt.wantFrom)
			}
		})
	}
}

func TestRequestBodyParser(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantJSON bool
		amount   string
		rec      bool
	}{
		{"json", `{"amount": 12.5, "isRecurring": true}`, true, "12.5", true},
		{"form", "amount=7&isRecurring=on", false, "7", true},
		{"form control chars", "amount=%0B9%00", false, "9", false},
		{"empty", "", false, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			p := NewRequestBodyParser(r)
			if err := p.Parse(); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			if p.IsJSON() != tt.wantJSON {
				t.Errorf("IsJSON = %v", p.IsJSON())
			}
			if got := p.Get("amount"); got != tt.amount {
				t.Errorf("amount = %q, want %q", got, tt.amount)
			}
			if got := p.Bool("isRecurring"); got != tt.rec {
				t.Errorf("isRecurring = %v, want %v", got, tt.rec)
			}
		})
	}
}

func TestRequestBodyParserInvalidJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"amount":`))
	if err := NewRequestBodyParser(r).Parse(); err == nil {
		t.Fatal("expected a JSON error")
	}
}

func TestParseTransactionRequestMultipart(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("amount", "40")
	_ = mw.WriteField("type", "expense")
	_ = mw.WriteField("category", " Milk ")
	fw, _ := mw.CreateFormFile("receipt", "r.png")
	_, _ = fw.Write([]byte("\x89PNG\r\n\x1a\n"))
	_ = mw.Close()

	r := httptest.NewRequest(http.MethodPost, "/api/transactions", &buf)
	r.Header.Set("Content-Type", mw.FormDataContentType())

	form, file, err := ParseTransactionRequest(r, 1024)
	if err != nil {
		t.Fatalf("ParseTransactionRequest: %v", err)
	}
	if file == nil {
		t.Fatal("expected the receipt file")
	}
	defer file.Close()
	data, _ := io.ReadAll(file)
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("receipt = %q", data)
	}
	if form.Amount != "40" || form.Type != "expense" || form.Category != "Milk" || form.IsRecurring {
		t.Errorf("form = %+v", form)
	}
}

func TestParseTransactionRequestJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"amount":"100","type":"income","paymentMethod":"cash"}`))
	r.Header.Set("Content-Type", "application/json")

	form, file, err := ParseTransactionRequest(r, 1024)
	if err != nil || file != nil {
		t.Fatalf("err = %v file = %v", err, file)
	}
	if form.Amount != "100" || form.PaymentMethod != "cash" {
		t.Errorf("form = %+v", form)
	}
}
