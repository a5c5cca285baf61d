// Package charts turns aggregates into renderable chart descriptions. The
// builders are pure and accept empty input, returning an empty chart.
package charts

import (
	"fmt"
	"strconv"

	"findash/internal/core"
)

const (
	KindPie  = "pie"
	KindBar  = "bar"
	KindLine = "line"
)

// Options carries display settings shared by every builder.
type Options struct {
	Currency    string // symbol used in totals, e.g. "E£"
	AmountLabel string // value axis title
}

// DefaultOptions matches the column naming of the default schema.
func DefaultOptions() Options {
	return Options{Currency: "E£", AmountLabel: "Amount (EGP)"}
}

type Slice struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// Pie is a donut chart of one label's categories for one year.
type Pie struct {
	Kind       string     `json:"kind"`
	Label      core.Label `json:"label"`
	Year       int        `json:"year"`
	Title      string     `json:"title"`
	Slices     []Slice    `json:"slices"`
	Hole       float64    `json:"hole"`
	Direction  string     `json:"direction"`
	TextInfo   string     `json:"textInfo"`
	Annotation string     `json:"annotation"`
	Total      float64    `json:"total"`
	SavingRate *int       `json:"savingRate,omitempty"`
	Empty      bool       `json:"empty"`
}

type BarPoint struct {
	Month int     `json:"month"`
	X     string  `json:"x"`
	Y     float64 `json:"y"`
	Text  string  `json:"text"`
	Color string  `json:"color"`
}

// Bar is a per-month column chart for one label and year, colored by magnitude.
type Bar struct {
	Kind       string     `json:"kind"`
	Label      core.Label `json:"label"`
	Year       int        `json:"year"`
	Title      string     `json:"title"`
	XTitle     string     `json:"xTitle"`
	YTitle     string     `json:"yTitle"`
	Bars       []BarPoint `json:"bars"`
	ColorScale []string   `json:"colorScale"`
	Min        float64    `json:"min"`
	Max        float64    `json:"max"`
	Empty      bool       `json:"empty"`
}

type LinePoint struct {
	Month int     `json:"month"`
	Y     float64 `json:"y"`
}

type LineSeries struct {
	Name   string      `json:"name"`
	Year   int         `json:"year"`
	Color  string      `json:"color"`
	Points []LinePoint `json:"points"`
}

// Line plots one expense series per year against the month index.
type Line struct {
	Kind    string       `json:"kind"`
	Title   string       `json:"title"`
	XLabels []string     `json:"xLabels"`
	YTitle  string       `json:"yTitle"`
	Series  []LineSeries `json:"series"`
	Empty   bool         `json:"empty"`
}

// NewPie builds the category breakdown of label for year. totals must be the
// year's totals; for Expense the title carries the saving rate.
func NewPie(label core.Label, year int, cats []core.CategoryAmount, totals core.YearTotals, opts Options) Pie {
	total := totals.Total(label).Units()
	pie := Pie{
		Kind:       KindPie,
		Label:      label,
		Year:       year,
		Title:      fmt.Sprintf("%s Breakdown %d", label, year),
		Slices:     make([]Slice, 0, len(cats)),
		Hole:       0.3,
		Direction:  "clockwise",
		TextInfo:   "label+percent",
		Annotation: FormatCurrency(opts.Currency, total),
		Total:      total,
		Empty:      len(cats) == 0,
	}
	for i, c := range cats {
		pie.Slices = append(pie.Slices, Slice{
			Label: c.Name,
			Value: c.Amount.Units(),
			Color: QualitativeColor(i),
		})
	}
	if label == core.Expense {
		rate := totals.SavingRate()
		pie.SavingRate = &rate
		pie.Title += ": Saving rate " + strconv.Itoa(rate) + "%"
	}
	return pie
}

// NewBar builds the per-month chart of label for year. months must be
// ascending by month number.
func NewBar(label core.Label, year int, months []core.MonthAmount, opts Options) Bar {
	bar := Bar{
		Kind:       KindBar,
		Label:      label,
		Year:       year,
		Title:      fmt.Sprintf("%s per month", label),
		XTitle:     "Month Name",
		YTitle:     opts.AmountLabel,
		Bars:       make([]BarPoint, 0, len(months)),
		ColorScale: RampColors(label),
		Empty:      len(months) == 0,
	}
	if bar.Empty {
		return bar
	}

	bar.Min, bar.Max = months[0].Amount.Units(), months[0].Amount.Units()
	for _, m := range months[1:] {
		v := m.Amount.Units()
		bar.Min = min(bar.Min, v)
		bar.Max = max(bar.Max, v)
	}
	for _, m := range months {
		v := m.Amount.Units()
		bar.Bars = append(bar.Bars, BarPoint{
			Month: m.Month,
			X:     m.MonthName,
			Y:     v,
			Text:  FormatSI(v),
			Color: scaleColor(label, v, bar.Min, bar.Max),
		})
	}
	return bar
}

// NewLine builds the cross-year expense trend.
func NewLine(series []core.YearSeries, opts Options) Line {
	line := Line{
		Kind:    KindLine,
		Title:   "Expense per month by year",
		XLabels: make([]string, 12),
		YTitle:  opts.AmountLabel,
		Series:  make([]LineSeries, 0, len(series)),
		Empty:   len(series) == 0,
	}
	for m := 1; m <= 12; m++ {
		line.XLabels[m-1] = core.MonthName(m)
	}
	for i, s := range series {
		ls := LineSeries{
			Name:   strconv.Itoa(s.Year),
			Year:   s.Year,
			Color:  QualitativeColor(i),
			Points: make([]LinePoint, 0, len(s.Points)),
		}
		for _, p := range s.Points {
			ls.Points = append(ls.Points, LinePoint{Month: p.Month, Y: p.Amount.Units()})
		}
		line.Series = append(line.Series, ls)
	}
	return line
}
