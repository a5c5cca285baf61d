package core

import (
	"testing"
	"time"
)

func TestParseLabel(t *testing.T) {
	cases := []struct {
		in   string
		want Label
		ok   bool
	}{
		{"Income", Income, true},
		{"expense", Expense, true},
		{"  EXPENSE ", Expense, true},
		{"Transfer", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseLabel(tc.in)
		if tc.ok {
			if err != nil || got != tc.want {
				t.Fatalf("%q expected %q, got %q (err=%v)", tc.in, tc.want, got, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestDateDerivedFields(t *testing.T) {
	d := NewDate(2024, 2, 1)
	if d.Year() != 2024 || d.Month() != 2 || d.MonthName() != "Feb" {
		t.Fatalf("unexpected derived fields: %d %d %s", d.Year(), d.Month(), d.MonthName())
	}
	if MonthName(12) != "Dec" || MonthName(0) != "" || MonthName(13) != "" {
		t.Fatalf("unexpected MonthName results")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{Date: NewDate(2024, 1, 5), Description: "Salary", Amount: Money{Cents: 100000}, Label: Income}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bads := []Transaction{
		{Date: Date{Time: time.Time{}}, Label: Income},
		{Date: NewDate(2024, 1, 5), Label: "Transfer"},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCategorize(t *testing.T) {
	in := []Transaction{
		{Date: NewDate(2024, 1, 5), Description: "Salary", Category: "", Label: Income},
		{Date: NewDate(2024, 1, 10), Description: "Groceries", Category: "Food", Label: Expense},
		{Date: NewDate(2024, 1, 20), Description: "Freelance", Category: "Side", Label: Income},
	}
	out := Categorize(in)
	if out[0].Category != "Salary" || out[2].Category != "Freelance" {
		t.Fatalf("income rows must take description as category: %+v", out)
	}
	if out[1].Category != "Food" {
		t.Fatalf("expense row must keep category, got %q", out[1].Category)
	}
	if in[0].Category != "" {
		t.Fatalf("input slice must not be modified")
	}
}

func TestSavingRate(t *testing.T) {
	cases := []struct {
		income, expense int64
		want            int
	}{
		{100000, 50000, 50},
		{0, 50000, 0},
		{0, 0, 0},
		{100000, 150000, -50},
		{800, 796, 0}, // 0.5 rounds to even
		{800, 788, 2}, // 1.5 rounds to even
		{300000, 100000, 67},
	}
	for _, tc := range cases {
		got := YearTotals{Income: Money{Cents: tc.income}, Expense: Money{Cents: tc.expense}}.SavingRate()
		if got != tc.want {
			t.Fatalf("income=%d expense=%d expected %d, got %d", tc.income, tc.expense, tc.want, got)
		}
	}
}

func TestNewDatasetCategorizes(t *testing.T) {
	ds := NewDataset("t.csv", "upload", []Transaction{
		{Date: NewDate(2024, 1, 5), Description: "Salary", Label: Income},
	})
	if ds.Len() != 1 || ds.Transactions[0].Category != "Salary" {
		t.Fatalf("unexpected dataset: %+v", ds)
	}
	var nilDS *Dataset
	if nilDS.Len() != 0 {
		t.Fatalf("nil dataset must have zero length")
	}
}
