package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"findash/internal/core"
	"findash/internal/log"
	ports "findash/internal/sheets"
)

// Config selects the spreadsheet and credentials.
type Config struct {
	SpreadsheetID string
	// SourceRange is the A1 range holding the transactions table, header first.
	SourceRange string
	// SummarySheet is the base name of the per-year summary tabs; the year is
	// prefixed automatically ("2024 Summary").
	SummarySheet string
	// CredentialsJSON or CredentialsFile hold a service account key. When
	// both are empty GOOGLE_APPLICATION_CREDENTIALS is used.
	CredentialsJSON string
	CredentialsFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sourceRange   string
	summaryBase   string
	logger        *log.Logger
}

var (
	_ ports.TransactionSource = (*Client)(nil)
	_ ports.SummaryWriter     = (*Client)(nil)
)

// New creates a Sheets client authenticated with a service account. Extra
// client options are appended after the credentials.
func New(ctx context.Context, cfg Config, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	creds, err := credentials(cfg)
	if err != nil {
		return nil, err
	}
	all := append([]goption.ClientOption{
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)
	svc, err := gsheet.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger), nil
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) *Client {
	sourceRange := strings.TrimSpace(cfg.SourceRange)
	if sourceRange == "" {
		sourceRange = "Transactions!A:E"
	}
	summary := strings.TrimSpace(cfg.SummarySheet)
	if summary == "" {
		summary = "Summary"
	}
	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(cfg.SpreadsheetID),
		sourceRange:   sourceRange,
		summaryBase:   summary,
		logger:        logger.WithComponent(log.ComponentSheets),
	}
}

func credentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return data, nil
}

// ReadRecords implements sheets.TransactionSource. Cells are read as
// formatted text so dates and amounts go through the same parsing as CSV.
func (c *Client) ReadRecords(ctx context.Context) ([]string, [][]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, c.sourceRange).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", c.sourceRange, err)
	}
	header, rows := toRecords(resp.Values)
	c.logger.InfoContext(ctx, "Transactions read from Google Sheets",
		"range", c.sourceRange, log.FieldRows, len(rows))
	return header, rows, nil
}

// WriteYearSummary implements sheets.SummaryWriter. The year's tab is
// created when missing and fully rewritten.
func (c *Client) WriteYearSummary(ctx context.Context, s core.YearSummary) (string, error) {
	sheet := yearPrefixedName(c.summaryBase, s.Totals.Year)
	if err := c.ensureSheet(ctx, sheet); err != nil {
		return "", err
	}

	clearRange := quoteSheet(sheet) + "!A:Z"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := quoteSheet(sheet) + "!A1"
	vr := &gsheet.ValueRange{Values: summaryValues(s)}
	resp, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("update %s: %w", rng, err)
	}

	c.logger.InfoContext(ctx, "Year summary written",
		log.FieldYear, s.Totals.Year, "range", resp.UpdatedRange, log.FieldRows, resp.UpdatedRows)
	return resp.UpdatedRange, nil
}

func (c *Client) ensureSheet(ctx context.Context, title string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet: %w", err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return nil
		}
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %q: %w", title, err)
	}
	c.logger.InfoContext(ctx, "Summary sheet created", "sheet", title)
	return nil
}
