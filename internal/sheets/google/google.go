package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"cafeledger/internal/core"
	"cafeledger/internal/log"
	ports "cafeledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const lastColumn = "G"

// Config selects the spreadsheet and how to authenticate to it. When
// Options is set the credentials fields are ignored. An OAuth client plus
// a saved user token take precedence over the service account.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthTokenFile     string
	Options            []goption.ClientOption
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string
	logger        *log.Logger

	mu        sync.Mutex
	hasHeader bool
}

var _ ports.Mirror = (*Client)(nil)

// New creates a Sheets client from service-account credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	sheet := strings.TrimSpace(cfg.SheetName)
	if sheet == "" {
		sheet = "Ledger"
	}
	opts := cfg.Options
	if len(opts) == 0 && cfg.OAuthClientJSON != "" && cfg.OAuthTokenFile != "" {
		ts, err := UserTokenSource(ctx, []byte(cfg.OAuthClientJSON), cfg.OAuthTokenFile)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{goption.WithTokenSource(ts)}
	}
	if len(opts) == 0 {
		creds, err := credentials(cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		sheet:         sheet,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func credentials(cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

func (c *Client) rng(cells string) string {
	return fmt.Sprintf("%s!%s", c.sheet, cells)
}

// EnsureHeader writes the column names to row 1 when it is empty.
func (c *Client) EnsureHeader(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hasHeader {
		return nil
	}
	rng := c.rng("A1:" + lastColumn + "1")
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 || len(resp.Values[0]) == 0 {
		vr := &gsheet.ValueRange{Values: [][]any{toCells(ports.Header)}}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("write header to %s: %w", c.sheet, err)
		}
	}
	c.hasHeader = true
	return nil
}

func (c *Client) Append(ctx context.Context, tx core.Transaction) error {
	if err := c.EnsureHeader(ctx); err != nil {
		return err
	}
	vr := &gsheet.ValueRange{Values: [][]any{toCells(ports.Row(tx))}}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.rng("A:"+lastColumn), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to sheet %s: %w", c.sheet, err)
	}
	c.logger.InfoContext(ctx, "Transaction mirrored", log.FieldTransactionID, tx.ID)
	return nil
}

// Delete clears the row holding id. A missing id is not an error.
func (c *Client) Delete(ctx context.Context, id string) error {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.rng("A:A")).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read ids from %s: %w", c.sheet, err)
	}
	row := findRow(resp.Values, id)
	if row == 0 {
		c.logger.WarnContext(ctx, "Mirrored row not found", log.FieldTransactionID, id)
		return nil
	}
	rng := c.rng(fmt.Sprintf("A%d:%s%d", row, lastColumn, row))
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// Clear empties every row below the header.
func (c *Client) Clear(ctx context.Context) error {
	rng := c.rng("A2:" + lastColumn)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", rng, err)
	}
	return nil
}

// findRow returns the 1-based row whose first cell is id, or 0.
func findRow(values [][]any, id string) int {
	for i, row := range values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == id {
			return i + 1
		}
	}
	return 0
}

func toCells(in []string) []any {
	out := make([]any, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}
