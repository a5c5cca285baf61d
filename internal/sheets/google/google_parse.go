package google

import (
	"fmt"
	"strconv"
	"strings"

	"findash/internal/core"
)

// toRecords splits a values matrix into its header and data rows, dropping
// trailing rows that are entirely blank.
func toRecords(values [][]interface{}) ([]string, [][]string) {
	if len(values) == 0 {
		return nil, nil
	}
	header := toStrings(values[0])
	rows := make([][]string, 0, len(values)-1)
	for _, v := range values[1:] {
		rows = append(rows, toStrings(v))
	}
	for len(rows) > 0 && blank(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	return header, rows
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func blank(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}

// summaryValues lays out a year summary as a sheet table: one row per
// month, then totals and the saving rate.
func summaryValues(s core.YearSummary) [][]interface{} {
	values := [][]interface{}{{"Month", "Income", "Expense", "Net"}}
	for _, m := range s.Months {
		values = append(values, []interface{}{m.MonthName, m.Income.Units(), m.Expense.Units(), m.Net().Units()})
	}
	t := s.Totals
	values = append(values,
		[]interface{}{"Total", t.Income.Units(), t.Expense.Units(), t.Net().Units()},
		[]interface{}{"Saving rate", fmt.Sprintf("%d%%", t.SavingRate())},
	)
	return values
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}

// quoteSheet quotes a sheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}
