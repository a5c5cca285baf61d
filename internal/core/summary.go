package core

import "math"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthAmount is an amount aggregated by calendar month.
type MonthAmount struct {
	Month     int // 1-12
	MonthName string
	Amount    Money
}

// YearSeries holds per-month amounts for one year, ordered by month.
type YearSeries struct {
	Year   int
	Points []MonthAmount
}

// YearTotals are the income and expense totals of a single year.
type YearTotals struct {
	Year    int
	Income  Money
	Expense Money
}

// Total returns the total for the given label.
func (t YearTotals) Total(l Label) Money {
	if l == Income {
		return t.Income
	}
	return t.Expense
}

// Net is income minus expense.
func (t YearTotals) Net() Money {
	return Money{Cents: t.Income.Cents - t.Expense.Cents}
}

// SavingRate returns (income - expense) / income as a whole percentage,
// rounded half to even. A year without income has a rate of 0.
func (t YearTotals) SavingRate() int {
	if t.Income.Cents == 0 {
		return 0
	}
	rate := float64(t.Income.Cents-t.Expense.Cents) * 100 / float64(t.Income.Cents)
	return int(math.RoundToEven(rate))
}

// MonthSummary is one row of a yearly summary.
type MonthSummary struct {
	Month     int
	MonthName string
	Income    Money
	Expense   Money
}

// Net is income minus expense for the month.
func (m MonthSummary) Net() Money {
	return Money{Cents: m.Income.Cents - m.Expense.Cents}
}

// YearSummary is the month-by-month income/expense table of one year.
type YearSummary struct {
	Totals YearTotals
	Months []MonthSummary
}
