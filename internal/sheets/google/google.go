package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"salonledger/internal/log"
	"salonledger/internal/report"
	ports "salonledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// AttachmentPrefix marks image references in remote sheets; images are
// never uploaded.
const AttachmentPrefix = "[Ảnh] "

// Client pushes workbooks to one remote spreadsheet, one sheet per table.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
}

// Ensure interface conformance
var _ ports.WorkbookWriter = (*Client)(nil)

// NewFromEnv creates a Sheets client from environment variables.
// Required: GOOGLE_SPREADSHEET_ID
// Credentials: GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE or
// GOOGLE_APPLICATION_CREDENTIALS.
func NewFromEnv(ctx context.Context) (*Client, error) {
	return NewFromConfig(ctx,
		os.Getenv("GOOGLE_SPREADSHEET_ID"),
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
		os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}

// NewFromConfig creates a Sheets client authenticated with a service
// account given inline or as a file.
func NewFromConfig(ctx context.Context, spreadsheetID, inlineJSON, file, adcFile string) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := serviceAccountJSON(ctx, inlineJSON, file, adcFile)
	if err != nil {
		return nil, err
	}
	return New(ctx, spreadsheetID,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// New creates a client for spreadsheetID. opts carry credentials, or an
// endpoint override in tests.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	sheetsLogger(ctx).InfoContext(ctx, "Google Sheets service created", "spreadsheet_id", spreadsheetID)
	return &Client{svc: svc, spreadsheetID: spreadsheetID}, nil
}

// serviceAccountJSON resolves the credential bundle: inline JSON first,
// then a credentials file.
func serviceAccountJSON(ctx context.Context, inline, file, adcFile string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(adcFile)
	}

	switch {
	case inline != "":
		sheetsLogger(ctx).InfoContext(ctx, "Using inline JSON credentials")
		return []byte(inline), nil
	case file != "":
		sheetsLogger(ctx).InfoContext(ctx, "Reading credentials from file", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

func (c *Client) Name() string { return "google-sheets" }

// WriteWorkbook replaces the content of every target sheet, creating the
// ones that do not exist yet.
func (c *Client) WriteWorkbook(ctx context.Context, wb report.Workbook) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if err := c.ensureSheets(ctx, wb); err != nil {
		return err
	}
	for _, tbl := range wb.Tables {
		sheet := quoteSheet(tbl.Name)
		if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, sheet, &gsheet.ClearValuesRequest{}).
			Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to clear sheet %s: %w", tbl.Name, err)
		}

		vr := &gsheet.ValueRange{Values: toValues(tbl)}
		if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, sheet+"!A1", vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to update sheet %s: %w", tbl.Name, err)
		}
		sheetsLogger(ctx).DebugContext(ctx, "Sheet replaced", "sheet", tbl.Name, "rows", len(tbl.Rows))
	}
	sheetsLogger(ctx).InfoContext(ctx, "Workbook pushed to Google Sheets",
		"spreadsheet_id", c.spreadsheetID,
		"sheets", len(wb.Tables))
	return nil
}

func (c *Client) ensureSheets(ctx context.Context, wb report.Workbook) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	existing := map[string]struct{}{}
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = struct{}{}
		}
	}

	var reqs []*gsheet.Request
	for _, tbl := range wb.Tables {
		if _, ok := existing[tbl.Name]; ok {
			continue
		}
		reqs = append(reqs, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tbl.Name}},
		})
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add %d sheets: %w", len(reqs), err)
	}
	sheetsLogger(ctx).InfoContext(ctx, "Created missing sheets", "count", len(reqs))
	return nil
}

func toValues(tbl report.Table) [][]any {
	grid := tbl.Values()
	out := make([][]any, len(grid))
	for i, row := range grid {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = cellValue(v)
		}
		out[i] = cells
	}
	return out
}

func cellValue(v any) any {
	switch x := v.(type) {
	case report.Attachment:
		return AttachmentPrefix + string(x)
	case nil:
		return ""
	}
	return v
}

// quoteSheet returns an A1-notation sheet reference.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func sheetsLogger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentSheets)
}
