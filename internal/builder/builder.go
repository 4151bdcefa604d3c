// Package builder turns validated rows into canonical ledger entries.
package builder

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/dedupe"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/sanitize"
	"github.com/JonMunkholm/ledgerrecon/internal/validate"
)

// Options configures a Builder. Zero values select defaults.
type Options struct {
	// MaxTextRunes caps text fields (default sanitize.DefaultMaxTextRunes).
	MaxTextRunes int

	// Now stamps the batch (default time.Now).
	Now func() time.Time

	// NewID generates entry and batch IDs (default uuid.NewString).
	NewID func() string
}

// Builder builds the entries of one import batch.
type Builder struct {
	scope ledger.Scope
	opts  Options
}

// Batch is the output of one Build call.
type Batch struct {
	ImportID   string
	ImportedAt time.Time
	Entries    []ledger.Entry

	// UnreadAmounts counts non-blank amount cells that were not numbers and
	// were read as zero.
	UnreadAmounts int

	// UnreadDates counts non-blank date cells that were not dates and were
	// read as no date.
	UnreadDates int
}

// New returns a Builder for entries of scope.
func New(scope ledger.Scope, opts Options) *Builder {
	if opts.MaxTextRunes <= 0 {
		opts.MaxTextRunes = sanitize.DefaultMaxTextRunes
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Builder{scope: scope, opts: opts}
}

// Build creates one entry per valid row. Invalid rows are skipped. Entries
// are numbered in order from zero and share one import ID. A balance column
// in the file is ignored: Balance is always Debit minus Credit.
func (b *Builder) Build(rows []validate.RowResult, m columns.Mapping) Batch {
	batch := Batch{
		ImportID:   b.opts.NewID(),
		ImportedAt: b.opts.Now().UTC(),
	}

	for _, r := range rows {
		if !r.Result.Valid {
			continue
		}
		row := r.Row

		date, ok := sanitize.ParseDate(m.Cell(row, columns.Date))
		if !ok {
			batch.UnreadDates++
		}
		debit, ok := sanitize.ParseAmount(m.Cell(row, columns.Debit))
		if !ok {
			batch.UnreadAmounts++
		}
		credit, ok := sanitize.ParseAmount(m.Cell(row, columns.Credit))
		if !ok {
			batch.UnreadAmounts++
		}

		e := ledger.Entry{
			ID:            b.opts.NewID(),
			Date:          date,
			AccountNumber: b.text(row, m, columns.AccountNumber),
			AccountName:   b.text(row, m, columns.AccountName),
			Description:   b.text(row, m, columns.Description),
			Reference:     b.text(row, m, columns.Reference),
			Category:      b.text(row, m, columns.Category),
			Debit:         debit,
			Credit:        credit,
			ClientID:      b.scope.ClientID,
			Period:        b.scope.Period,
			ImportID:      batch.ImportID,
			ImportIndex:   len(batch.Entries),
			ImportedAt:    batch.ImportedAt,
		}
		e.Rebalance()
		e.Signature = dedupe.Signature(e)

		batch.Entries = append(batch.Entries, e)
	}

	return batch
}

func (b *Builder) text(row []string, m columns.Mapping, f columns.Field) string {
	return sanitize.TextN(m.Cell(row, f), b.opts.MaxTextRunes)
}
