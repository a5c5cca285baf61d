package charts

import (
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency renders amount rounded half to even to a whole number,
// thousands-grouped and prefixed with symbol, e.g. "E£ 12,345".
func FormatCurrency(symbol string, amount float64) string {
	n := int64(math.RoundToEven(amount))
	if symbol == "" {
		return printer.Sprintf("%d", n)
	}
	return symbol + " " + printer.Sprintf("%d", n)
}

// FormatSI renders v with two significant digits and an SI prefix, the
// way bar labels are shown: 1234 -> "1.2k", 200 -> "200", 999 -> "1.0k".
func FormatSI(v float64) string {
	if v == 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	scaled, prefix := humanize.ComputeSI(roundSignificant(v, 2))
	decimals := 0
	if scaled < 10 {
		decimals = 1
	}
	return sign + strconv.FormatFloat(scaled, 'f', decimals, 64) + prefix
}

func roundSignificant(v float64, digits int) float64 {
	exp := math.Floor(math.Log10(v))
	scale := math.Pow(10, exp-float64(digits-1))
	return math.Round(v/scale) * scale
}
