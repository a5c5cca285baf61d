// Package analytics groups transactions into the sums the charts are drawn
// from. Every function is pure and recomputes from the full transaction list.
package analytics

import (
	"sort"

	"findash/internal/core"
)

// ByCategory sums the amounts of the (year, label) transactions per category.
// Categories are ordered by amount, largest first; equal amounts keep their
// order of first appearance.
func ByCategory(txs []core.Transaction, year int, label core.Label) []core.CategoryAmount {
	index := make(map[string]int)
	var out []core.CategoryAmount
	for _, t := range txs {
		if t.Year() != year || t.Label != label {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, core.CategoryAmount{Name: t.Category})
		}
		out[i].Amount = out[i].Amount.Add(t.Amount)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Amount.Cents > out[j].Amount.Cents
	})
	return out
}

// ByMonth sums the amounts of the (year, label) transactions per month,
// ascending by month number. Months without transactions are omitted.
func ByMonth(txs []core.Transaction, year int, label core.Label) []core.MonthAmount {
	var sums [13]core.Money
	var seen [13]bool
	for _, t := range txs {
		if t.Year() != year || t.Label != label {
			continue
		}
		m := t.Month()
		sums[m] = sums[m].Add(t.Amount)
		seen[m] = true
	}

	var out []core.MonthAmount
	for m := 1; m <= 12; m++ {
		if !seen[m] {
			continue
		}
		out = append(out, core.MonthAmount{Month: m, MonthName: core.MonthName(m), Amount: sums[m]})
	}
	return out
}

// Totals returns the income and expense totals for year.
func Totals(txs []core.Transaction, year int) core.YearTotals {
	totals := core.YearTotals{Year: year}
	for _, t := range txs {
		if t.Year() != year {
			continue
		}
		switch t.Label {
		case core.Income:
			totals.Income = totals.Income.Add(t.Amount)
		case core.Expense:
			totals.Expense = totals.Expense.Add(t.Amount)
		}
	}
	return totals
}

// Sum adds up a category aggregate.
func Sum(cats []core.CategoryAmount) core.Money {
	var total core.Money
	for _, c := range cats {
		total = total.Add(c.Amount)
	}
	return total
}

// SumMonths adds up a month aggregate.
func SumMonths(months []core.MonthAmount) core.Money {
	var total core.Money
	for _, m := range months {
		total = total.Add(m.Amount)
	}
	return total
}

// Years returns the distinct years present, ascending.
func Years(txs []core.Transaction) []int {
	set := make(map[int]struct{})
	for _, t := range txs {
		set[t.Year()] = struct{}{}
	}
	years := make([]int, 0, len(set))
	for y := range set {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

// LatestYear returns the most recent year present. ok is false for an
// empty transaction list.
func LatestYear(txs []core.Transaction) (year int, ok bool) {
	for _, t := range txs {
		if !ok || t.Year() > year {
			year, ok = t.Year(), true
		}
	}
	return year, ok
}

// HasYear reports whether any transaction falls in year.
func HasYear(txs []core.Transaction, year int) bool {
	for _, t := range txs {
		if t.Year() == year {
			return true
		}
	}
	return false
}
