package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"findash/internal/core"
)

func TestExpenseByYearMonth(t *testing.T) {
	txs := []core.Transaction{
		tx(2023, 11, 2, "Rent", "Housing", 300, core.Expense),
		tx(2023, 11, 20, "Food", "Food", 50, core.Expense),
		tx(2024, 2, 1, "Rent", "Housing", 320, core.Expense),
		tx(2024, 1, 1, "Salary", "", 1000, core.Income),
		tx(2025, 1, 1, "Salary", "", 1000, core.Income), // no expenses this year
	}
	series := ExpenseByYearMonth(txs)
	require.Len(t, series, 2)

	assert.Equal(t, 2023, series[0].Year)
	assert.Equal(t, []core.MonthAmount{{Month: 11, MonthName: "Nov", Amount: money(350)}}, series[0].Points)
	assert.Equal(t, 2024, series[1].Year)
	assert.Equal(t, 2, series[1].Points[0].Month)

	assert.Empty(t, ExpenseByYearMonth(nil))
}

func TestYearSummaries(t *testing.T) {
	txs := exampleTransactions()
	txs = append(txs, tx(2023, 7, 4, "Trip", "Travel", 800, core.Expense))

	sums := YearSummaries(txs)
	require.Len(t, sums, 2)

	y2023 := sums[0]
	assert.Equal(t, 2023, y2023.Totals.Year)
	assert.Equal(t, 0, y2023.Totals.SavingRate(), "no income clamps to zero")
	require.Len(t, y2023.Months, 1)
	assert.Equal(t, "Jul", y2023.Months[0].MonthName)

	y2024 := sums[1]
	assert.Equal(t, 50, y2024.Totals.SavingRate())
	require.Len(t, y2024.Months, 2)
	jan := y2024.Months[0]
	assert.Equal(t, money(1000), jan.Income)
	assert.Equal(t, money(200), jan.Expense)
	assert.Equal(t, money(800), jan.Net())
}
