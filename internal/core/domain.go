package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  Label = "Income"
	Expense Label = "Expense"
)

type (
	// Label is the Income/Expense classification of a transaction.
	Label string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Transaction struct {
		Date        Date
		Description string
		Category    string
		Amount      Money
		Label       Label
	}

	// Dataset is the full set of transactions the dashboard works on.
	// A Dataset is never mutated after construction; replacing data means
	// building a new one.
	Dataset struct {
		ID           int64 // storage ID, zero when not persisted
		Name         string
		Source       string
		LoadedAt     time.Time
		Transactions []Transaction
	}

	// DatasetMeta describes a stored dataset without its transactions.
	DatasetMeta struct {
		ID       int64
		Name     string
		Source   string
		Rows     int
		LoadedAt time.Time
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidLabel  = errors.New("invalid label: must be Income or Expense")
	ErrEmptyDataset  = errors.New("dataset has no transactions")
)

// Labels lists the labels in tab order.
func Labels() []Label {
	return []Label{Income, Expense}
}

// ParseLabel matches s case-insensitively against the known labels.
func ParseLabel(s string) (Label, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return Income, nil
	case "expense":
		return Expense, nil
	default:
		return "", ErrInvalidLabel
	}
}

func (l Label) Valid() bool {
	return l == Income || l == Expense
}

func (l Label) String() string {
	return string(l)
}

// Month returns the month number (1-12)
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year
func (d Date) Year() int {
	return d.Time.Year()
}

// MonthName returns the abbreviated English month name, e.g. "Jan".
func (d Date) MonthName() string {
	return d.Time.Format("Jan")
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// MonthName returns the abbreviated name for a month number (1-12).
func MonthName(month int) string {
	if month < 1 || month > 12 {
		return ""
	}
	return time.Month(month).String()[:3]
}

func (t Transaction) Year() int         { return t.Date.Year() }
func (t Transaction) Month() int        { return t.Date.Month() }
func (t Transaction) MonthName() string { return t.Date.MonthName() }

func (t Transaction) Validate() error {
	if t.Date.IsZero() {
		return errors.New("date cannot be zero")
	}
	if !t.Label.Valid() {
		return ErrInvalidLabel
	}
	return nil
}

// NewDataset builds a dataset from freshly loaded transactions, applying
// the income categorization rule.
func NewDataset(name, source string, txs []Transaction) *Dataset {
	return &Dataset{
		Name:         name,
		Source:       source,
		LoadedAt:     time.Now(),
		Transactions: Categorize(txs),
	}
}

// Meta returns the descriptive fields of d.
func (d *Dataset) Meta() DatasetMeta {
	return DatasetMeta{ID: d.ID, Name: d.Name, Source: d.Source, Rows: d.Len(), LoadedAt: d.LoadedAt}
}

// Len returns the number of transactions, tolerating a nil dataset.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Transactions)
}
