package ledger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestDetectFormat(t *testing.T) {
	cases := []struct {
		filename    string
		contentType string
		want        Format
		ok          bool
	}{
		{"bank.csv", "text/csv", FormatCSV, true},
		{"bank.CSV", "text/csv; charset=utf-8", FormatCSV, true},
		{"bank.csv", "", FormatCSV, true},
		{"bank.csv", "application/vnd.ms-excel", FormatCSV, true},
		{"bank.xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", FormatXLSX, true},
		{"bank.xlsx", "application/octet-stream", FormatXLSX, true},
		{"bank.pdf", "application/pdf", "", false},
		{"bank", "text/csv", "", false},
		{"bank.csv", "image/png", "", false},
		{"bank.xlsx", "text/csv", "", false},
	}
	for _, tc := range cases {
		got, err := DetectFormat(tc.filename, tc.contentType)
		if !tc.ok {
			var upErr *UploadError
			assert.True(t, errors.As(err, &upErr), "%s %s: expected UploadError", tc.filename, tc.contentType)
			continue
		}
		require.NoError(t, err, tc.filename)
		assert.Equal(t, tc.want, got, tc.filename)
	}
}

func TestLoadUploadCSV(t *testing.T) {
	ds, err := newTestLoader().LoadUpload(Upload{
		Filename:    "statement.csv",
		ContentType: "text/csv",
		Body:        strings.NewReader(sampleCSV),
	})
	require.NoError(t, err)
	assert.Equal(t, SourceUpload, ds.Source)
	assert.Equal(t, "statement.csv", ds.Name)
	assert.Equal(t, 4, ds.Len())
}

func TestLoadUploadRejects(t *testing.T) {
	header := "Date,Name / Description,Category,Amount (EGP),Expense/Income\n"
	cases := []struct {
		name   string
		upload Upload
		loader *Loader
	}{
		{"empty body", Upload{Filename: "a.csv", Body: strings.NewReader("")}, newTestLoader()},
		{"header only", Upload{Filename: "a.csv", Body: strings.NewReader(header)}, newTestLoader()},
		{"bad row", Upload{Filename: "a.csv", Body: strings.NewReader(header + "x,y,z,1,Income\n")}, newTestLoader()},
		{"too large", Upload{Filename: "a.csv", Body: strings.NewReader(sampleCSV)}, NewLoader(DefaultSchema(), 16)},
		{"wrong extension", Upload{Filename: "a.txt", Body: strings.NewReader(sampleCSV)}, newTestLoader()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.loader.LoadUpload(tc.upload)
			var upErr *UploadError
			require.True(t, errors.As(err, &upErr), "expected UploadError, got %v", err)
			assert.NotEmpty(t, upErr.Reason)
		})
	}
}

func TestLoadUploadReasonCarriesCause(t *testing.T) {
	_, err := newTestLoader().LoadUpload(Upload{
		Filename: "a.csv",
		Body:     strings.NewReader("Date,Amount (EGP)\n2024-01-01,5\n"),
	})
	var colErr *MissingColumnError
	require.True(t, errors.As(err, &colErr))
	assert.Contains(t, UserMessage(err), "Expense/Income")
}

func buildWorkbook(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestLoadUploadXLSX(t *testing.T) {
	data := buildWorkbook(t, [][]any{
		{"Date", "Name / Description", "Category", "Amount (EGP)", "Expense/Income"},
		{"2024-01-05", "Salary", "", 10000, "Income"},
		{45300, "Rent", "Home", 4000.5, "Expense"}, // Excel serial for 2024-01-09
	})

	ds, err := newTestLoader().LoadUpload(Upload{
		Filename:    "statement.xlsx",
		ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		Body:        bytes.NewReader(data),
	})
	require.NoError(t, err)
	require.Equal(t, 2, ds.Len())

	assert.Equal(t, int64(1000000), ds.Transactions[0].Amount.Cents)
	rent := ds.Transactions[1]
	assert.Equal(t, 2024, rent.Year())
	assert.Equal(t, 1, rent.Month())
	assert.Equal(t, 9, rent.Date.Day())
	assert.Equal(t, int64(400050), rent.Amount.Cents)
}

func TestLoadUploadCorruptXLSX(t *testing.T) {
	_, err := newTestLoader().LoadUpload(Upload{
		Filename: "statement.xlsx",
		Body:     strings.NewReader("not a zip"),
	})
	var upErr *UploadError
	assert.True(t, errors.As(err, &upErr))
}
