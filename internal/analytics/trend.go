package analytics

import "findash/internal/core"

// ExpenseByYearMonth groups every expense across all years by (year, month),
// one series per year in ascending year order. Each series holds only the
// months that have expenses, ascending.
func ExpenseByYearMonth(txs []core.Transaction) []core.YearSeries {
	years := Years(txs)
	out := make([]core.YearSeries, 0, len(years))
	for _, y := range years {
		points := ByMonth(txs, y, core.Expense)
		if len(points) == 0 {
			continue
		}
		out = append(out, core.YearSeries{Year: y, Points: points})
	}
	return out
}

// YearSummaries builds the month-by-month income/expense table for every
// year present. Months with no activity are omitted.
func YearSummaries(txs []core.Transaction) []core.YearSummary {
	years := Years(txs)
	out := make([]core.YearSummary, 0, len(years))
	for _, y := range years {
		var months [13]core.MonthSummary
		var seen [13]bool
		for _, t := range txs {
			if t.Year() != y {
				continue
			}
			m := t.Month()
			months[m].Month = m
			months[m].MonthName = core.MonthName(m)
			switch t.Label {
			case core.Income:
				months[m].Income = months[m].Income.Add(t.Amount)
			case core.Expense:
				months[m].Expense = months[m].Expense.Add(t.Amount)
			}
			seen[m] = true
		}

		summary := core.YearSummary{Totals: Totals(txs, y)}
		for m := 1; m <= 12; m++ {
			if seen[m] {
				summary.Months = append(summary.Months, months[m])
			}
		}
		out = append(out, summary)
	}
	return out
}
