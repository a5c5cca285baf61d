// Package ledger loads bank transactions from CSV, XLSX or raw spreadsheet
// records into core transactions with derived calendar fields.
package ledger

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"findash/internal/core"
)

// Schema names the header columns of the transactions file.
type Schema struct {
	Date        string
	Description string
	Category    string
	Amount      string
	Label       string
}

// DefaultSchema matches the categorized bank export the dashboard was built for.
func DefaultSchema() Schema {
	return Schema{
		Date:        "Date",
		Description: "Name / Description",
		Category:    "Category",
		Amount:      "Amount (EGP)",
		Label:       "Expense/Income",
	}
}

func (s Schema) columns() []string {
	return []string{s.Date, s.Description, s.Category, s.Amount, s.Label}
}

// DefaultMaxUploadBytes bounds uploaded files when no limit is configured.
const DefaultMaxUploadBytes = 5 << 20

// Loader converts transaction files into datasets.
type Loader struct {
	schema         Schema
	maxUploadBytes int64
}

// NewLoader creates a loader for the given schema. A non-positive
// maxUploadBytes selects DefaultMaxUploadBytes.
func NewLoader(schema Schema, maxUploadBytes int64) *Loader {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	return &Loader{schema: schema, maxUploadBytes: maxUploadBytes}
}

// Schema returns the column names the loader expects.
func (l *Loader) Schema() Schema {
	return l.schema
}

// dateLayouts are tried in order; the first successful parse wins.
// Numeric day/month dates are month-first whatever the separator.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1-2-2006",
	"02-Jan-2006",
	"Jan 2, 2006",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"1/2/06",
}

// ParseDate parses a calendar date in any of the supported layouts.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format")
}

// LoadFile reads a CSV or XLSX file from disk, choosing the decoder by extension.
func (l *Loader) LoadFile(path string) (*core.Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions file: %w", err)
	}
	defer f.Close()

	var txs []core.Transaction
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		txs, err = l.ParseXLSX(f)
	default:
		txs, err = l.ParseCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return core.NewDataset(filepath.Base(path), SourceFile, txs), nil
}

// Dataset sources.
const (
	SourceFile   = "file"
	SourceUpload = "upload"
	SourceSheets = "sheets"
)

// ParseCSV decodes a CSV stream whose first row is the header.
func (l *Loader) ParseCSV(r io.Reader) ([]core.Transaction, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyFile
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", len(rows)+2, err)
		}
		rows = append(rows, row)
	}
	return l.FromRecords(header, rows)
}

// FromRecords maps a header and its data rows to transactions. It is shared
// by every decoder so all inputs obey the same column rules.
func (l *Loader) FromRecords(header []string, rows [][]string) ([]core.Transaction, error) {
	return l.fromRecords(header, rows, ParseDate)
}

func (l *Loader) fromRecords(header []string, rows [][]string, parseDate func(string) (time.Time, error)) ([]core.Transaction, error) {
	if len(header) == 0 {
		return nil, ErrEmptyFile
	}
	idx, err := l.indexHeader(header)
	if err != nil {
		return nil, err
	}

	txs := make([]core.Transaction, 0, len(rows))
	for i, row := range rows {
		if isEmptyRow(row) {
			continue
		}
		rowNum := i + 2
		cell := func(col string) string {
			j := idx[col]
			if j >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[j])
		}

		rawDate := cell(l.schema.Date)
		date, err := parseDate(rawDate)
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: l.schema.Date, Value: rawDate, Err: err}
		}
		rawAmount := cell(l.schema.Amount)
		cents, err := core.ParseDecimalToCents(rawAmount)
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: l.schema.Amount, Value: rawAmount, Err: err}
		}
		rawLabel := cell(l.schema.Label)
		label, err := core.ParseLabel(rawLabel)
		if err != nil {
			return nil, &ParseError{Row: rowNum, Column: l.schema.Label, Value: rawLabel, Err: err}
		}

		txs = append(txs, core.Transaction{
			Date:        core.Date{Time: date},
			Description: cell(l.schema.Description),
			Category:    cell(l.schema.Category),
			Amount:      core.Money{Cents: cents},
			Label:       label,
		})
	}
	return txs, nil
}

// indexHeader resolves every schema column to its position, matching names
// case-insensitively and ignoring a UTF-8 byte order mark.
func (l *Loader) indexHeader(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		key := strings.ToLower(strings.TrimSpace(h))
		if _, dup := positions[key]; !dup {
			positions[key] = i
		}
	}

	idx := make(map[string]int, 5)
	var missing []string
	for _, col := range l.schema.columns() {
		pos, ok := positions[strings.ToLower(strings.TrimSpace(col))]
		if !ok {
			missing = append(missing, col)
			continue
		}
		idx[col] = pos
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing}
	}
	return idx, nil
}

func isEmptyRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
