package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findash/internal/core"
)

func money(units int64) core.Money {
	return core.Money{Cents: units * 100}
}

func tx(y, m, d int, desc, cat string, units int64, label core.Label) core.Transaction {
	return core.Transaction{
		Date:        core.NewDate(y, m, d),
		Description: desc,
		Category:    cat,
		Amount:      money(units),
		Label:       label,
	}
}

func exampleTransactions() []core.Transaction {
	return core.Categorize([]core.Transaction{
		tx(2024, 1, 5, "Salary", "", 1000, core.Income),
		tx(2024, 1, 10, "Groceries", "Food", 200, core.Expense),
		tx(2024, 2, 1, "Rent", "Housing", 300, core.Expense),
	})
}

func TestExampleAggregates(t *testing.T) {
	txs := exampleTransactions()

	cats := ByCategory(txs, 2024, core.Expense)
	assert.Equal(t, []core.CategoryAmount{
		{Name: "Housing", Amount: money(300)},
		{Name: "Food", Amount: money(200)},
	}, cats)

	months := ByMonth(txs, 2024, core.Expense)
	assert.Equal(t, []core.MonthAmount{
		{Month: 1, MonthName: "Jan", Amount: money(200)},
		{Month: 2, MonthName: "Feb", Amount: money(300)},
	}, months)

	totals := Totals(txs, 2024)
	assert.Equal(t, money(1000), totals.Income)
	assert.Equal(t, money(500), totals.Expense)
	assert.Equal(t, 50, totals.SavingRate())
}

func TestIncomeCategoriesFollowDescription(t *testing.T) {
	txs := core.Categorize([]core.Transaction{
		tx(2024, 3, 1, "Salary", "Payroll", 1000, core.Income),
		tx(2024, 4, 1, "Salary", "Payroll", 1000, core.Income),
		tx(2024, 4, 2, "Dividends", "Payroll", 50, core.Income),
	})
	cats := ByCategory(txs, 2024, core.Income)
	require.Len(t, cats, 2)
	assert.Equal(t, "Salary", cats[0].Name)
	assert.Equal(t, money(2000), cats[0].Amount)
	assert.Equal(t, "Dividends", cats[1].Name)
}

func TestByCategoryLargestFirst(t *testing.T) {
	txs := core.Categorize([]core.Transaction{
		tx(2024, 1, 3, "Cafe", "Food", 25, core.Expense),
		tx(2024, 1, 9, "Uber", "Transport", 70, core.Expense),
		tx(2024, 2, 1, "Books", "Leisure", 70, core.Expense),
		tx(2024, 3, 21, "Pharmacy", "Health", 120, core.Expense),
		tx(2024, 4, 2, "Cafe", "Food", 30, core.Expense),
	})
	cats := ByCategory(txs, 2024, core.Expense)
	assert.Equal(t, []core.CategoryAmount{
		{Name: "Health", Amount: money(120)},
		{Name: "Transport", Amount: money(70)},
		{Name: "Leisure", Amount: money(70)},
		{Name: "Food", Amount: money(55)},
	}, cats, "ties keep first appearance")
}

func TestGroupingsReconcile(t *testing.T) {
	txs := core.Categorize([]core.Transaction{
		tx(2023, 12, 30, "Cafe", "Food", 40, core.Expense),
		tx(2024, 1, 3, "Cafe", "Food", 25, core.Expense),
		tx(2024, 1, 9, "Uber", "Transport", 70, core.Expense),
		tx(2024, 3, 9, "Uber", "Transport", 15, core.Expense),
		tx(2024, 3, 21, "Pharmacy", "Health", 120, core.Expense),
		tx(2024, 12, 1, "Gift", "Other", 500, core.Expense),
		tx(2024, 1, 1, "Salary", "", 5000, core.Income),
		tx(2024, 6, 1, "Bonus", "", 900, core.Income),
	})
	for _, year := range []int{2023, 2024, 2025} {
		for _, label := range core.Labels() {
			byCat := Sum(ByCategory(txs, year, label))
			byMonth := SumMonths(ByMonth(txs, year, label))
			assert.Equal(t, byCat, byMonth, "year=%d label=%s", year, label)
			assert.Equal(t, Totals(txs, year).Total(label), byCat, "year=%d label=%s", year, label)
		}
	}
}

func TestEmptySelection(t *testing.T) {
	txs := exampleTransactions()
	assert.Empty(t, ByCategory(txs, 1999, core.Expense))
	assert.Empty(t, ByMonth(txs, 1999, core.Income))
	assert.Empty(t, ByCategory(nil, 2024, core.Income))

	totals := Totals(nil, 2024)
	assert.Zero(t, totals.Income.Cents)
	assert.Equal(t, 0, totals.SavingRate())
}

func TestYears(t *testing.T) {
	txs := []core.Transaction{
		tx(2024, 1, 1, "a", "x", 1, core.Expense),
		tx(2022, 1, 1, "b", "x", 1, core.Expense),
		tx(2024, 5, 1, "c", "x", 1, core.Income),
		tx(2023, 1, 1, "d", "x", 1, core.Expense),
	}
	assert.Equal(t, []int{2022, 2023, 2024}, Years(txs))

	latest, ok := LatestYear(txs)
	assert.True(t, ok)
	assert.Equal(t, 2024, latest)

	_, ok = LatestYear(nil)
	assert.False(t, ok)

	assert.True(t, HasYear(txs, 2023))
	assert.False(t, HasYear(txs, 2021))
}
