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

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"findash/internal/core"
	"findash/internal/log"
)

// fakeSheets emulates the handful of Sheets API endpoints the client uses.
type fakeSheets struct {
	mu       sync.Mutex
	titles   []string
	values   [][]interface{}
	requests []string
	updated  map[string]any
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	f.requests = append(f.requests, r.Method+" "+path)
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		_ = json.NewEncoder(w).Encode(map[string]any{"range": "Transactions!A1:E9", "values": f.values})
	case r.Method == http.MethodGet:
		sheets := make([]map[string]any, 0, len(f.titles))
		for _, t := range f.titles {
			sheets = append(sheets, map[string]any{"properties": map[string]any{"title": t}})
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-id", "sheets": sheets})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		var req gsheet.BatchUpdateSpreadsheetRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		for _, rq := range req.Requests {
			if rq.AddSheet != nil {
				f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-id"})
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
		_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "sheet-id"})
	case r.Method == http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		var vr map[string]any
		_ = json.Unmarshal(body, &vr)
		f.updated = vr
		rows := 0
		if v, ok := vr["values"].([]any); ok {
			rows = len(v)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"updatedRange": "'2024 Summary'!A1:D5", "updatedRows": rows})
	default:
		http.Error(w, "unexpected "+r.Method+" "+path, http.StatusNotFound)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := gsheet.NewService(context.Background(),
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return NewWithService(svc, Config{SpreadsheetID: "sheet-id"}, log.Discard())
}

func TestReadRecords(t *testing.T) {
	fake := &fakeSheets{values: [][]interface{}{
		{"Date", "Name / Description", "Category", "Amount (EGP)", "Expense/Income"},
		{"2024-01-05", "Salary", "", "1,000.00", "Income"},
	}}
	c := newTestClient(t, fake)

	header, rows, err := c.ReadRecords(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(header) != 5 || len(rows) != 1 || rows[0][3] != "1,000.00" {
		t.Fatalf("unexpected records: %v %v", header, rows)
	}
}

func TestWriteYearSummaryCreatesSheet(t *testing.T) {
	fake := &fakeSheets{titles: []string{"Transactions"}}
	c := newTestClient(t, fake)

	sum := core.YearSummary{
		Totals: core.YearTotals{Year: 2024, Income: core.Money{Cents: 1000}},
		Months: []core.MonthSummary{{Month: 1, MonthName: "Jan", Income: core.Money{Cents: 1000}}},
	}
	ref, err := c.WriteYearSummary(context.Background(), sum)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if ref == "" {
		t.Fatalf("expected updated range reference")
	}
	if len(fake.titles) != 2 || fake.titles[1] != "2024 Summary" {
		t.Fatalf("summary sheet not created: %v", fake.titles)
	}
	if fake.updated == nil {
		t.Fatalf("no values written")
	}

	// second write finds the sheet and does not add it again
	if _, err := c.WriteYearSummary(context.Background(), sum); err != nil {
		t.Fatalf("second write: %v", err)
	}
	if len(fake.titles) != 2 {
		t.Fatalf("sheet added twice: %v", fake.titles)
	}
}

func TestNewRequiresSpreadsheetAndCredentials(t *testing.T) {
	if _, err := New(context.Background(), Config{}, log.Discard()); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}

	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	_, err := New(context.Background(), Config{SpreadsheetID: "x"}, log.Discard())
	if err == nil || !strings.Contains(err.Error(), "credentials") {
		t.Fatalf("expected credentials error, got %v", err)
	}
}
