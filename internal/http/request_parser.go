// This file implements utilities for parsing and validating HTTP request data.
// It supports JSON, url-encoded and multipart bodies, since the page posts
// forms through HTMX while scripts post JSON.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cafeledger/internal/core"
	"cafeledger/internal/forms"
	"cafeledger/internal/ledger"
)

// maxBodyBytes caps non-multipart request bodies.
const maxBodyBytes = 1 << 20

// ParseHistoryFilter reads type, from, to and q. Days are read in loc.
func ParseHistoryFilter(query url.Values, loc *time.Location) (ledger.HistoryFilter, error) {
	var f ledger.HistoryFilter
	switch typ := strings.ToLower(strings.TrimSpace(query.Get("type"))); typ {
	case "", "all":
	case string(core.Income), string(core.Expense):
		f.Type = core.TransactionType(typ)
	default:
		return f, &core.ValidationError{Field: "type", Message: "Type must be all, income or expense", Err: core.ErrInvalidType}
	}
	var err error
	if f.From, err = parseDay(query.Get("from"), loc); err != nil {
		return f, core.NewValidationError("from", "From must be a date like 2024-01-31")
	}
	if f.To, err = parseDay(query.Get("to"), loc); err != nil {
		return f, core.NewValidationError("to", "To must be a date like 2024-01-31")
	}
	f.Search = sanitizeInput(query.Get("q"))
	return f, nil
}

// parseDay parses YYYY-MM-DD in loc. Blank yields the zero time.
func parseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	return time.ParseInLocation("2006-01-02", s, loc)
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

// NewRequestBodyParser creates a parser for the given request.
// It reads the body once and stores it for subsequent parsing.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Bool reads a checkbox or JSON boolean.
func (p *RequestBodyParser) Bool(key string) bool {
	return truthy(p.Get(key))
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func truthy(s string) bool {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true
	}
	return false
}

// transactionFields lists the entry form inputs.
type transactionFields interface {
	Get(key string) string
}

func toTransactionForm(src transactionFields, recurring bool) forms.TransactionForm {
	return forms.TransactionForm{
		Amount:        src.Get("amount"),
		Type:          src.Get("type"),
		Category:      src.Get("category"),
		Date:          src.Get("date"),
		Note:          src.Get("note"),
		PaymentMethod: src.Get("paymentMethod"),
		IsRecurring:   recurring,
	}
}

type sanitizedValues url.Values

func (v sanitizedValues) Get(key string) string {
	return sanitizeInput(url.Values(v).Get(key))
}

// ParseTransactionRequest reads the entry form from a JSON, url-encoded or
// multipart body. The receipt file, when present, must be closed by the
// caller.
func ParseTransactionRequest(r *http.Request, receiptLimit int64) (forms.TransactionForm, multipart.File, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := r.ParseMultipartForm(receiptLimit + maxBodyBytes); err != nil {
			return forms.TransactionForm{}, nil, fmt.Errorf("parse multipart form: %w", err)
		}
		vals := sanitizedValues(r.MultipartForm.Value)
		form := toTransactionForm(vals, truthy(vals.Get("isRecurring")))
		file, _, err := r.FormFile("receipt")
		if errors.Is(err, http.ErrMissingFile) {
			return form, nil, nil
		}
		if err != nil {
			return form, nil, fmt.Errorf("read receipt: %w", err)
		}
		return form, file, nil
	}

	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return forms.TransactionForm{}, nil, fmt.Errorf("parse body: %w", err)
	}
	return toTransactionForm(p, p.Bool("isRecurring")), nil, nil
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return core.NewValidationError("body", "Request body must be valid JSON")
	}
	return nil
}
