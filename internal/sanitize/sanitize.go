// Package sanitize converts raw ledger cells into typed values.
//
// These functions handle the messy reality of exported accounting files:
//   - French decimal commas and space or dot thousands separators
//   - Currency symbols and accounting parentheses for negatives
//   - Day-first dates alongside ISO dates
//   - Excel formula wrappers (="value") and stray control characters
//
// Amounts never fail: an empty or unreadable amount is zero. Dates never
// fail: an unreadable date is nil.
package sanitize

import (
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// DefaultMaxTextRunes caps free-text fields.
const DefaultMaxTextRunes = 512

// MaxAmountDigits bounds the digits of an amount cell. Longer cells are not
// read; exponent notation is never accepted.
const MaxAmountDigits = 24

// numericRegex validates an amount after cleanup.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)

// TwoDigitYearPivot defines how 2-digit years are interpreted. Years more
// than this many years in the future are moved to the previous century.
var TwoDigitYearPivot = 20

// Date layouts, day first. Four-digit years are tried before two-digit ones.
var (
	fourDigitYearLayouts = []string{
		"2006-01-02", "2006/01/02", "2006.01.02",
		"02/01/2006", "2/1/2006", "02-01-2006", "2-1-2006", "02.01.2006", "2.1.2006",
		time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "02/01/2006 15:04:05", "02/01/2006 15:04",
		"20060102",
	}
	twoDigitYearLayouts = []string{
		"02/01/06", "2/1/06", "02-01-06", "2-1-06", "02.01.06", "2.1.06",
	}
)

// Amount parses a ledger amount. Whitespace of every kind is removed, a
// comma is read as the decimal separator, and when both comma and dot occur
// the rightmost one is the decimal separator. Empty or unparsable input is
// zero.
func Amount(s string) decimal.Decimal {
	d, _ := ParseAmount(s)
	return d
}

// ParseAmount is Amount that also reports whether the cell was read. A blank
// cell is read as zero; a non-blank cell that is not a number is not read.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = stripSpaces(cleanCell(s))
	if s == "" {
		return decimal.Zero, true
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}

	s = strings.NewReplacer("€", "", "$", "", "£", "", "EUR", "", "eur", "").Replace(s)
	if strings.HasSuffix(s, "-") {
		negative = !negative
		s = strings.TrimSuffix(s, "-")
	}

	s = normalizeSeparators(s)
	if !numericRegex.MatchString(s) || countDigits(s) > MaxAmountDigits {
		return decimal.Zero, false
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// normalizeSeparators rewrites s so that '.' is the only decimal separator.
func normalizeSeparators(s string) string {
	comma := strings.LastIndex(s, ",")
	dot := strings.LastIndex(s, ".")

	switch {
	case comma >= 0 && dot >= 0 && comma > dot:
		// 1.234,56
		s = strings.ReplaceAll(s, ".", "")
	case comma >= 0 && dot >= 0:
		// 1,234.56
		s = strings.ReplaceAll(s, ",", "")
		return s
	}
	return strings.ReplaceAll(s, ",", ".")
}

// Date parses a ledger date. Slashed dates are day first, so 03/04/2024 is
// 3 April. ISO dates are accepted too. Unparsable input is nil.
func Date(s string) *time.Time {
	d, _ := ParseDate(s)
	return d
}

// ParseDate is Date that also reports whether the cell was read. A blank
// cell is read as no date.
func ParseDate(s string) (*time.Time, bool) {
	s = cleanCell(s)
	if s == "" {
		return nil, true
	}

	for _, layout := range fourDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return midnight(t), true
		}
	}

	pivotYear := time.Now().Year() + TwoDigitYearPivot
	for _, layout := range twoDigitYearLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() > pivotYear {
				t = t.AddDate(-100, 0, 0)
			}
			return midnight(t), true
		}
	}

	return nil, false
}

func midnight(t time.Time) *time.Time {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d
}

// Text trims s, removes control characters and Excel formula wrappers, and
// caps it at DefaultMaxTextRunes runes.
func Text(s string) string {
	return TextN(s, DefaultMaxTextRunes)
}

// TextN is Text with an explicit rune cap. A cap of zero or less disables
// truncation.
func TextN(s string, maxRunes int) string {
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\t' || r == '\u00a0' || r == '\u202f':
			return ' '
		case unicode.IsControl(r), r == '\ufeff', r == '\u200b':
			return -1
		}
		return r
	}, s)
	s = cleanCell(s)

	if maxRunes > 0 && utf8.RuneCountInString(s) > maxRunes {
		s = strings.TrimSpace(string([]rune(s)[:maxRunes]))
	}
	return s
}

// IsBlank reports whether a raw cell carries no value after cleanup.
func IsBlank(s string) bool {
	return TextN(s, 0) == ""
}

// cleanCell trims whitespace and unwraps Excel formula text (="0042").
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, `="`) && strings.HasSuffix(s, `"`) && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return strings.TrimSpace(s)
}

// stripSpaces removes every whitespace rune, including non-breaking and
// narrow no-break spaces used as French thousands separators.
func stripSpaces(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\u202f' || r == '\u00a0' || r == '\'' {
			return -1
		}
		return r
	}, s)
}
