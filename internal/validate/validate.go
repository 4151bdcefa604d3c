// Package validate decides which data rows become ledger entries.
//
// Validation is deliberately lenient: ledger exports carry partial rows
// (subtotals, opening balances without dates, label-only lines) that still
// matter. A row is rejected only when it carries no value at all. Rejected
// rows are kept with their errors so callers can report them.
package validate

import (
	"fmt"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/sanitize"
)

// ValidationError represents a single validation error for a row.
type ValidationError struct {
	Field   string // Column name, empty for row-level errors
	Value   string // The offending value
	Message string // Human-readable error message
}

func (e ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// Unwrap ties every validation error to ledger.ErrRowInvalid.
func (e ValidationError) Unwrap() error {
	return ledger.ErrRowInvalid
}

// Result contains the outcome of validating one row.
type Result struct {
	Valid  bool
	Errors []ValidationError
}

// RowResult pairs a row with its validation outcome.
type RowResult struct {
	Line   int // 1-based source line, 0 when unknown
	Row    []string
	Result Result
}

// Validator checks rows before they are built into entries.
type Validator struct{}

// New returns a Validator.
func New() *Validator {
	return &Validator{}
}

// Validate checks a single row.
func (v *Validator) Validate(row []string) Result {
	for _, cell := range row {
		if !sanitize.IsBlank(cell) {
			return Result{Valid: true}
		}
	}
	return Result{
		Errors: []ValidationError{{Message: "row is empty"}},
	}
}

// ValidateAll validates every row, keeping invalid rows in the output.
// lines holds the source line of each row and may be nil.
func (v *Validator) ValidateAll(rows [][]string, lines []int) []RowResult {
	results := make([]RowResult, len(rows))
	for i, row := range rows {
		line := 0
		if i < len(lines) {
			line = lines[i]
		}
		results[i] = RowResult{
			Line:   line,
			Row:    row,
			Result: v.Validate(row),
		}
	}
	return results
}

// CountInvalid returns how many results are invalid.
func CountInvalid(results []RowResult) int {
	n := 0
	for _, r := range results {
		if !r.Result.Valid {
			n++
		}
	}
	return n
}
