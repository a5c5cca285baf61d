// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// and converting between cents and unit representations.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseDecimalToCents converts a decimal string to signed cents with proper rounding.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted. When
// both appear, the last one is the decimal point and the other groups
// thousands (1,234.50 or 1.234,50). A lone comma followed by exactly three
// digits groups thousands (12,500); followed by one or two digits it is the
// decimal point. Repeated separators must form groups of three digits.
// A leading sign is honoured and any non-numeric prefix or suffix such as a
// currency symbol is ignored. Half-up rounding is applied on the third
// decimal place.
//
// Examples:
//
//	ParseDecimalToCents("12.34")     -> 1234, nil
//	ParseDecimalToCents("12,34")     -> 1234, nil
//	ParseDecimalToCents("12,500")    -> 1250000, nil
//	ParseDecimalToCents("1.234,56")  -> 123456, nil
//	ParseDecimalToCents("1,234.5")   -> 123450, nil
//	ParseDecimalToCents("-12.346")   -> -1235, nil
//	ParseDecimalToCents("E£ 300")    -> 30000, nil
func ParseDecimalToCents(s string) (int64, error) {
	s = stripCurrency(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}
	intPart, fracPart, ok := splitAmount(s)
	if !ok {
		return 0, ErrInvalidAmount
	}
	if intPart == "" && fracPart == "" {
		return 0, ErrInvalidAmount
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if r < '0' || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	// Prevent overflow when multiplying by 100
	const maxSafeInt64 = (1<<63 - 1) / 100
	if iv > maxSafeInt64 {
		return 0, ErrInvalidAmount
	}
	// Take first two fractional digits; then half-up rounding on third
	var fracCents int64
	if len(fracPart) > 0 {
		fracCents = int64(fracPart[0]-'0') * 10
		if len(fracPart) > 1 {
			fracCents += int64(fracPart[1] - '0')
			if len(fracPart) > 2 && fracPart[2] >= '5' {
				fracCents++
			}
		}
	}
	cents := iv*100 + fracCents
	if neg {
		cents = -cents
	}
	return cents, nil
}

// splitAmount separates the integer and fractional digits of an unsigned
// amount, removing thousands separators.
func splitAmount(s string) (intPart, fracPart string, ok bool) {
	dot := strings.LastIndexByte(s, '.')
	comma := strings.LastIndexByte(s, ',')
	switch {
	case dot >= 0 && comma >= 0:
		decimal, group := ".", ","
		if comma > dot {
			decimal, group = ",", "."
		}
		if strings.Count(s, decimal) > 1 {
			return "", "", false
		}
		i := strings.LastIndex(s, decimal)
		intPart, ok = ungroup(s[:i], group)
		return intPart, s[i+1:], ok
	case comma >= 0:
		if strings.Count(s, ",") == 1 && len(s)-comma-1 <= 2 {
			return s[:comma], s[comma+1:], true
		}
		intPart, ok = ungroup(s, ",")
		return intPart, "", ok
	case dot >= 0:
		if strings.Count(s, ".") == 1 {
			return s[:dot], s[dot+1:], true
		}
		intPart, ok = ungroup(s, ".")
		return intPart, "", ok
	}
	return s, "", true
}

// ungroup drops sep from s when it splits s into thousands groups.
func ungroup(s, sep string) (string, bool) {
	groups := strings.Split(s, sep)
	if len(groups) == 1 {
		return s, true
	}
	for i, g := range groups {
		if (i == 0 && (g == "" || len(g) > 3)) || (i > 0 && len(g) != 3) {
			return "", false
		}
	}
	return strings.Join(groups, ""), true
}

// stripCurrency trims whitespace and any leading or trailing characters that
// cannot be part of a number.
func stripCurrency(s string) string {
	isNum := func(r rune) bool {
		return unicode.IsDigit(r) || r == '-' || r == '+' || r == '.' || r == ','
	}
	s = strings.TrimFunc(s, func(r rune) bool { return !isNum(r) })
	// "12." carries no fractional digits
	return strings.TrimRight(s, ".,")
}

// Units returns the value in major currency units as a float64 for display.
// Use cents for calculations to avoid floating-point precision issues.
func (m Money) Units() float64 {
	return float64(m.Cents) / 100.0
}

// Add returns the sum of two amounts.
func (m Money) Add(o Money) Money {
	return Money{Cents: m.Cents + o.Cents}
}
