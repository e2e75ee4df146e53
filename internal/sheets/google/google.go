package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/log"
	ports "fintrack/internal/sheets"

	"golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Config selects the spreadsheet and the credentials used to reach it.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
}

// Client mirrors transactions into one sheet, one row per transaction with
// the transaction ID in column A.
type Client struct {
	values valuesAPI
	sheet  string
	logger *log.Logger
}

// Ensure interface conformance
var (
	_ ports.TransactionMirror = (*Client)(nil)
	_ ports.TransactionReader = (*Client)(nil)
)

// valuesAPI is the slice of the Sheets values API the mirror needs.
type valuesAPI interface {
	get(ctx context.Context, rng string) ([][]any, error)
	update(ctx context.Context, rng string, rows [][]any) error
	append(ctx context.Context, rng string, rows [][]any) error
	clear(ctx context.Context, rng string) error
}

// New creates a Sheets client authenticated with a service account. The
// inline JSON wins over the file; GOOGLE_APPLICATION_CREDENTIALS is the last
// fallback.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Default()
	}
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	raw, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	creds, err := google.CredentialsFromJSON(ctx, raw, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse service account credentials: %w", err)
	}
	svc, err := gsheet.NewService(ctx, goption.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	logger = logger.WithComponent(log.ComponentSheets)
	logger.InfoContext(ctx, "Google Sheets service created", "sheet", sheetName(cfg.SheetName))
	return newClient(&serviceValues{svc: svc, spreadsheetID: id}, cfg.SheetName, logger), nil
}

func newClient(values valuesAPI, sheet string, logger *log.Logger) *Client {
	return &Client{values: values, sheet: sheetName(sheet), logger: logger}
}

func sheetName(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "Transactions"
	}
	return s
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

// UpsertTransaction rewrites the row holding t, or appends one. An empty
// sheet gets the header row first.
func (c *Client) UpsertTransaction(ctx context.Context, t core.Transaction) error {
	ids, err := c.idColumn(ctx)
	if err != nil {
		return err
	}
	row := encodeRow(t)

	if n := findRow(ids, t.ID); n > 0 {
		if err := c.values.update(ctx, c.rowRange(n), [][]any{row}); err != nil {
			return fmt.Errorf("update row %d: %w", n, err)
		}
		c.logger.DebugContext(ctx, "Updated mirrored transaction", log.FieldTransactionID, t.ID, "row", n)
		return nil
	}

	rows := [][]any{row}
	if len(ids) == 0 {
		rows = [][]any{header(), row}
	}
	if err := c.values.append(ctx, c.sheetRange("A:H"), rows); err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	c.logger.DebugContext(ctx, "Appended mirrored transaction", log.FieldTransactionID, t.ID)
	return nil
}

// DeleteTransaction clears the row of id. A missing row or one that belongs
// to a different owner is left alone.
func (c *Client) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	rows, err := c.values.get(ctx, c.sheetRange("A:B"))
	if err != nil {
		return fmt.Errorf("read rows: %w", err)
	}
	n := findRow(toStrings(rows, 0), id)
	if n == 0 {
		return nil
	}
	if owner := safeGet(toStrings(rows, 1), n-1); owner != ownerID {
		c.logger.WarnContext(ctx, "Refusing to clear row owned by someone else",
			log.FieldTransactionID, id, log.FieldOwnerID, ownerID)
		return nil
	}
	if err := c.values.clear(ctx, c.rowRange(n)); err != nil {
		return fmt.Errorf("clear row %d: %w", n, err)
	}
	c.logger.DebugContext(ctx, "Cleared mirrored transaction", log.FieldTransactionID, id, "row", n)
	return nil
}

// MirroredTransactions reads back every row of ownerID, skipping the header,
// cleared rows and rows that do not decode.
func (c *Client) MirroredTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := c.values.get(ctx, c.sheetRange("A:H"))
	if err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}
	var out []core.Transaction
	for i, r := range rows {
		if i == 0 {
			continue
		}
		t, err := decodeRow(r)
		if err != nil {
			if !errors.Is(err, errEmptyRow) {
				c.logger.WarnContext(ctx, "Skipping unreadable row", "row", i+1, log.FieldError, err.Error())
			}
			continue
		}
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (c *Client) idColumn(ctx context.Context) ([]string, error) {
	rows, err := c.values.get(ctx, c.sheetRange("A:A"))
	if err != nil {
		return nil, fmt.Errorf("read id column: %w", err)
	}
	return toStrings(rows, 0), nil
}

func (c *Client) sheetRange(cols string) string {
	return fmt.Sprintf("'%s'!%s", c.sheet, cols)
}

func (c *Client) rowRange(n int) string {
	return c.sheetRange(fmt.Sprintf("A%d:H%d", n, n))
}

// serviceValues adapts the generated Sheets service to valuesAPI.
type serviceValues struct {
	svc           *gsheet.Service
	spreadsheetID string
}

func (s *serviceValues) get(ctx context.Context, rng string) ([][]any, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *serviceValues) update(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Update(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do()
	return err
}

func (s *serviceValues) append(ctx context.Context, rng string, rows [][]any) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	return err
}

func (s *serviceValues) clear(ctx context.Context, rng string) error {
	_, err := s.svc.Spreadsheets.Values.Clear(s.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	return err
}
