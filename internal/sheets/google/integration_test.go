//go:build integration

package google

import (
	"context"
	"errors"
	"os"
	"testing"

	"findash/internal/analytics"
	"findash/internal/ledger"
	"findash/internal/log"
)

// Integration tests require a real spreadsheet and a service account key.
// Run with: go test -tags=integration ./internal/sheets/google

func integrationClient(t *testing.T) *Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	cfg := Config{
		SpreadsheetID:   spreadsheetID,
		SourceRange:     os.Getenv("GOOGLE_SOURCE_RANGE"),
		SummarySheet:    os.Getenv("GOOGLE_SUMMARY_SHEET"),
		CredentialsJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		CredentialsFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	}
	client, err := New(context.Background(), cfg, log.Discard())
	if err != nil {
		t.Skipf("cannot create client: %v", err)
	}
	return client
}

func TestIntegration_ReadAndSummarize(t *testing.T) {
	client := integrationClient(t)
	ctx := context.Background()

	header, rows, err := client.ReadRecords(ctx)
	if err != nil {
		t.Fatalf("ReadRecords: %v", err)
	}
	t.Logf("Read %d rows with header %v", len(rows), header)

	txs, err := ledger.NewLoader(ledger.DefaultSchema(), 0).FromRecords(header, rows)
	if err != nil {
		t.Fatalf("spreadsheet rows do not match the default schema: %v", err)
	}
	if len(txs) == 0 {
		t.Skip("spreadsheet has no transactions")
	}

	summaries := analytics.YearSummaries(txs)
	latest := summaries[len(summaries)-1]
	ref, err := client.WriteYearSummary(ctx, latest)
	if err != nil {
		t.Fatalf("WriteYearSummary(%d): %v", latest.Totals.Year, err)
	}
	if ref == "" {
		t.Error("expected the updated range")
	}
	t.Logf("Summary for %d written to %s", latest.Totals.Year, ref)
}

func TestIntegration_ContextCancellation(t *testing.T) {
	client := integrationClient(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, _, err := client.ReadRecords(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context cancellation, got %v", err)
	}
}
