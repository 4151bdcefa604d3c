// Package dedupe drops ledger entries that were already imported.
//
// Two entries are the same when they share a signature: a hash of the date,
// account number, label (description, else account name), reference, debit
// and credit, each normalized so that cosmetic differences between two
// exports of the same ledger (case, accents, spacing, trailing zeros) do not
// defeat the match.
package dedupe

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

const sep = "\x1f"

// Signature returns the deduplication signature of e. It depends only on the
// fields that identify an accounting movement, never on IDs or provenance.
func Signature(e ledger.Entry) string {
	date := ""
	if e.Date != nil {
		date = e.Date.Format("2006-01-02")
	}

	key := strings.Join([]string{
		date,
		compact(e.AccountNumber),
		columns.Normalize(e.Label()),
		columns.Normalize(e.Reference),
		amount(e.Debit),
		amount(e.Credit),
	}, sep)

	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// compact removes whitespace from account numbers ("411 000" == "411000").
func compact(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// amount renders d canonically: 1.50 and 1.5 give the same string.
func amount(d decimal.Decimal) string {
	return d.String()
}

// SignatureSet is an append-only set of known signatures. It is not safe
// for concurrent use.
type SignatureSet struct {
	seen map[string]struct{}
}

// NewSignatureSet returns a set seeded with the signatures of entries.
func NewSignatureSet(entries ...ledger.Entry) *SignatureSet {
	s := &SignatureSet{seen: make(map[string]struct{}, len(entries))}
	s.AddEntries(entries...)
	return s
}

// Add inserts sig and reports whether it was new.
func (s *SignatureSet) Add(sig string) bool {
	if _, ok := s.seen[sig]; ok {
		return false
	}
	s.seen[sig] = struct{}{}
	return true
}

// AddEntries inserts the signature of every entry. A stored Signature is
// used as is, since a store may round the amounts it was computed from;
// entries without one get it recomputed.
func (s *SignatureSet) AddEntries(entries ...ledger.Entry) {
	for _, e := range entries {
		sig := e.Signature
		if sig == "" {
			sig = Signature(e)
		}
		s.seen[sig] = struct{}{}
	}
}

// Contains reports whether sig is known.
func (s *SignatureSet) Contains(sig string) bool {
	_, ok := s.seen[sig]
	return ok
}

// Len returns the number of known signatures.
func (s *SignatureSet) Len() int {
	return len(s.seen)
}

// Merge adds every signature of other to s.
func (s *SignatureSet) Merge(other *SignatureSet) {
	if other == nil {
		return
	}
	for sig := range other.seen {
		s.seen[sig] = struct{}{}
	}
}

// Clone returns an independent copy of s.
func (s *SignatureSet) Clone() *SignatureSet {
	c := &SignatureSet{seen: make(map[string]struct{}, len(s.seen))}
	c.Merge(s)
	return c
}

// Result splits a batch into entries to persist and entries to skip.
type Result struct {
	Unique     []ledger.Entry
	Duplicates []ledger.Entry
}

// Filter keeps the entries whose signature is not in known, in input order.
// The first occurrence of a signature within the batch wins. known grows
// with every kept entry.
func Filter(entries []ledger.Entry, known *SignatureSet) Result {
	var res Result
	for _, e := range entries {
		sig := Signature(e)
		if !known.Add(sig) {
			res.Duplicates = append(res.Duplicates, e)
			continue
		}
		e.Signature = sig
		res.Unique = append(res.Unique, e)
	}
	return res
}
