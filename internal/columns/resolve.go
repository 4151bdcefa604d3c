package columns

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/schollz/closestmatch"
)

// minContainRunes is the shortest string allowed on the inner side of a
// containment match. Shorter synonyms ("dr", "cr") only match exactly.
const minContainRunes = 3

// resolutionOrder fixes which field claims a header first when two fields
// could match it.
var resolutionOrder = []Field{
	Date, AccountNumber, Balance, Debit, Credit, Reference, AccountName, Description, Category,
}

// Diagnostic reports an expected field that could not be mapped by name.
type Diagnostic struct {
	Field      Field  `json:"field"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

func (d Diagnostic) String() string {
	if d.Suggestion != "" {
		return fmt.Sprintf("%s: %s (closest header: %q)", d.Field, d.Message, d.Suggestion)
	}
	return fmt.Sprintf("%s: %s", d.Field, d.Message)
}

// Mapping is the result of resolving headers against expected fields.
type Mapping struct {
	Index       map[Field]int
	Headers     []string
	Recognized  int
	Positional  bool
	Diagnostics []Diagnostic
}

// Has reports whether f is mapped to a column.
func (m Mapping) Has(f Field) bool {
	_, ok := m.Index[f]
	return ok
}

// Cell returns the raw cell of row for f, or "" when f is unmapped or the
// row is short.
func (m Mapping) Cell(row []string, f Field) string {
	i, ok := m.Index[f]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// Resolver maps file headers to canonical fields.
type Resolver struct {
	dict *Dictionary

	// Positional maps expected fields to header positions, in order, when
	// no field resolves by name.
	Positional bool
}

// NewResolver returns a Resolver using dict, or the default dictionary when
// dict is nil. Positional fallback is enabled.
func NewResolver(dict *Dictionary) *Resolver {
	if dict == nil {
		dict = DefaultDictionary()
	}
	return &Resolver{dict: dict, Positional: true}
}

// Resolve maps each expected field to a header index.
//
// A header matches a synonym when their normalized forms are equal, or when
// one contains the other. All exact matches are claimed before any
// containment match. Within a pass, synonyms are tried in priority order and
// the first unclaimed header satisfying a synonym wins. A header is claimed
// by at most one field.
//
// Missing fields never fail resolution; they are reported as diagnostics.
func (r *Resolver) Resolve(headers []string, expected []Field) Mapping {
	m := Mapping{
		Index:   make(map[Field]int, len(expected)),
		Headers: headers,
	}

	normalized := make([]string, len(headers))
	for i, h := range headers {
		normalized[i] = Normalize(h)
	}

	want := make(map[Field]bool, len(expected))
	for _, f := range expected {
		want[f] = true
	}

	claimed := make([]bool, len(headers))
	for _, match := range []func(h, syn string) bool{exactMatch, containMatch} {
		for _, f := range resolutionOrder {
			if !want[f] || m.Has(f) {
				continue
			}
			if i, ok := r.find(f, normalized, claimed, match); ok {
				m.Index[f] = i
				claimed[i] = true
			}
		}
	}
	m.Recognized = len(m.Index)

	if m.Recognized == 0 && r.Positional && len(headers) > 0 && len(expected) > 0 {
		for i, f := range expected {
			if i >= len(headers) {
				break
			}
			m.Index[f] = i
		}
		m.Positional = true
		m.Diagnostics = append(m.Diagnostics, Diagnostic{
			Field:   expected[0],
			Message: "no header recognized; columns mapped by position",
		})
		return m
	}

	var suggester *closestmatch.ClosestMatch
	for _, f := range expected {
		if m.Has(f) {
			continue
		}
		d := Diagnostic{Field: f, Message: "column not found"}
		if suggester == nil {
			suggester = newSuggester(normalized, claimed)
		}
		if suggester != nil {
			d.Suggestion = suggest(suggester, f, headers, normalized, r.dict)
		}
		m.Diagnostics = append(m.Diagnostics, d)
	}

	return m
}

func (r *Resolver) find(f Field, headers []string, claimed []bool, match func(h, syn string) bool) (int, bool) {
	for _, syn := range r.dict.Synonyms(f) {
		for i, h := range headers {
			if claimed[i] || h == "" {
				continue
			}
			if match(h, syn) {
				return i, true
			}
		}
	}
	return 0, false
}

func exactMatch(h, syn string) bool {
	return h == syn
}

func containMatch(h, syn string) bool {
	if utf8.RuneCountInString(syn) >= minContainRunes && strings.Contains(h, syn) {
		return true
	}
	return utf8.RuneCountInString(h) >= minContainRunes && strings.Contains(syn, h)
}

// newSuggester indexes the unclaimed headers, or returns nil when there are
// none.
func newSuggester(normalized []string, claimed []bool) *closestmatch.ClosestMatch {
	var free []string
	for i, h := range normalized {
		if !claimed[i] && h != "" {
			free = append(free, h)
		}
	}
	if len(free) == 0 {
		return nil
	}
	return closestmatch.New(free, []int{2, 3})
}

// suggest returns the original header closest to the field's primary
// synonym.
func suggest(cm *closestmatch.ClosestMatch, f Field, headers, normalized []string, dict *Dictionary) string {
	target := Normalize(f.String())
	if syns := dict.Synonyms(f); len(syns) > 0 {
		target = syns[0]
	}
	best := cm.Closest(target)
	if best == "" {
		return ""
	}
	for i, n := range normalized {
		if n == best {
			return headers[i]
		}
	}
	return ""
}
