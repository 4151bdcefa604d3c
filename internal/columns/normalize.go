// Package columns maps the headers of a source file onto canonical ledger
// fields.
//
// Exports from French accounting software label the same column many ways
// ("N° Compte", "Numéro de compte", "Compte"), often with stray BOMs,
// non-breaking spaces and mixed accents. Headers are normalized first and
// then matched against an ordered synonym dictionary.
package columns

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks decomposes text and drops combining marks, turning "é" into "e".
// A chain carries state, so each call builds its own.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// Normalize reduces a header or synonym to its comparison form: BOM removed,
// every kind of whitespace collapsed to one space, trimmed, lowercased and
// without diacritics.
func Normalize(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '\ufeff', '\u200b':
			return -1
		case '\u00a0', '\u202f', '\u2007', '\t':
			return ' '
		}
		return r
	}, s)

	s = strings.Join(strings.Fields(s), " ")
	s = strings.ToLower(s)

	out, _, err := transform.String(stripMarks(), s)
	if err != nil {
		return s
	}
	return out
}
