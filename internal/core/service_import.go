package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/JonMunkholm/ledgerrecon/internal/builder"
	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/dedupe"
	"github.com/JonMunkholm/ledgerrecon/internal/events"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
	"github.com/JonMunkholm/ledgerrecon/internal/validate"
)

// ImportRequest is one file to import into a client's period.
type ImportRequest struct {
	ClientID string
	Period   string
	FileName string
	Data     []byte

	// Profile selects the expected columns. Ignored when Columns is set.
	// Defaults to the general ledger profile.
	Profile string

	// Columns lists the expected canonical columns explicitly.
	Columns []columns.Field

	// Clear deletes the period's entries before importing.
	Clear bool
}

// InvalidRow reports one row rejected by validation.
type InvalidRow struct {
	Line   int      `json:"line"`
	Errors []string `json:"errors"`
}

// ImportResult reports the outcome of an import. Imported, skipped and
// invalid counts are always reported separately so a caller can tell "all
// duplicates" from "nothing recognized".
type ImportResult struct {
	ImportID              string         `json:"importId"`
	ClientID              string         `json:"clientId"`
	Period                string         `json:"period"`
	ImportedCount         int            `json:"importedCount"`
	SkippedDuplicateCount int            `json:"skippedDuplicateCount"`
	InvalidRowCount       int            `json:"invalidRowCount"`
	ClearedCount          int            `json:"clearedCount,omitempty"`
	RecognizedColumnCount int            `json:"recognizedColumnCount"`
	Columns               map[string]int `json:"columns"`
	PositionalColumns     bool           `json:"positionalColumns,omitempty"`
	Encoding              string         `json:"encoding"`
	Delimiter             string         `json:"delimiter"`
	Diagnostics           []string       `json:"diagnostics,omitempty"`
	InvalidRows           []InvalidRow   `json:"invalidRows,omitempty"`
	Entries               []ledger.Entry `json:"entries"`

	// Persisted is true when the new entries were written to the store.
	Persisted bool `json:"persisted"`

	// Degraded is true when the store could not be reached. Entries are
	// returned but were not saved, and duplicates were checked against the
	// last known signatures only.
	Degraded bool `json:"degraded"`
}

// Import decodes, validates, deduplicates and stores one file.
//
// Unsupported and empty files fail the whole import. Invalid rows and
// duplicates are counted and never fail it. When the store is unreachable
// Import returns the populated result together with an error wrapping
// ledger.ErrPersistenceUnavailable; the result's entries were not saved.
func (s *Service) Import(ctx context.Context, req ImportRequest) (*ImportResult, error) {
	expected, err := s.expectedColumns(req)
	if err != nil {
		return nil, err
	}
	if int64(len(req.Data)) > s.opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, len(req.Data), s.opts.MaxFileSize)
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.limiter.Release()

	scope := ledger.Scope{ClientID: req.ClientID, Period: req.Period}
	log := logging.WithFields(ctx,
		"client_id", scope.ClientID,
		"period", scope.Period,
		"file", req.FileName,
	)
	start := time.Now()

	table, decoded, err := s.decoder.Parse(req.Data, req.FileName)
	if err != nil {
		log.Warn("import rejected", "error", err)
		return nil, fmt.Errorf("read %s: %w", req.FileName, err)
	}

	mapping := s.resolver.Resolve(table.Headers, expected)
	rows := s.validator.ValidateAll(table.Rows, table.Lines)

	res := &ImportResult{
		ClientID:              scope.ClientID,
		Period:                scope.Period,
		InvalidRowCount:       validate.CountInvalid(rows),
		RecognizedColumnCount: mapping.Recognized,
		Columns:               columnIndex(mapping),
		PositionalColumns:     mapping.Positional,
		Encoding:              decoded.Encoding,
		Delimiter:             string(table.Delimiter),
		InvalidRows:           s.invalidRows(rows),
	}
	for _, d := range mapping.Diagnostics {
		res.Diagnostics = append(res.Diagnostics, d.String())
	}

	var degraded error
	if req.Clear {
		n, err := s.clearForImport(ctx, scope)
		if err != nil {
			if !errors.Is(err, ledger.ErrPersistenceUnavailable) {
				return nil, err
			}
			degraded = err
		}
		res.ClearedCount = n
	}

	batch := builder.New(scope, builder.Options{MaxTextRunes: s.opts.MaxTextRunes}).Build(rows, mapping)
	res.ImportID = batch.ImportID
	if batch.UnreadAmounts > 0 {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("%d amount cells could not be read and were counted as 0", batch.UnreadAmounts))
	}
	if batch.UnreadDates > 0 {
		res.Diagnostics = append(res.Diagnostics,
			fmt.Sprintf("%d date cells could not be read and were left empty", batch.UnreadDates))
	}

	known, err := s.cache.Known(ctx, scope, func(ctx context.Context) ([]ledger.Entry, error) {
		ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
		defer cancel()
		entries, err := s.store.ListEntries(ctx, scope.ClientID, scope.Period)
		if err != nil {
			return nil, err
		}
		return inScope(entries, scope), nil
	})
	if err != nil {
		if !errors.Is(err, ledger.ErrPersistenceUnavailable) {
			return nil, err
		}
		degraded = err
	}

	filtered := dedupe.Filter(batch.Entries, known)
	res.Entries = filtered.Unique
	res.ImportedCount = len(filtered.Unique)
	res.SkippedDuplicateCount = len(filtered.Duplicates)

	if degraded == nil {
		if err := s.save(ctx, filtered.Unique); err != nil {
			if !errors.Is(err, ledger.ErrPersistenceUnavailable) {
				return nil, err
			}
			degraded = err
		} else {
			res.Persisted = true
			s.cache.Add(filtered.Unique)
		}
	}
	res.Degraded = degraded != nil

	log.Info("import completed",
		"import_id", res.ImportID,
		"encoding", res.Encoding,
		"delimiter", res.Delimiter,
		"recognized_columns", res.RecognizedColumnCount,
		"imported", res.ImportedCount,
		"skipped_duplicates", res.SkippedDuplicateCount,
		"invalid_rows", res.InvalidRowCount,
		"persisted", res.Persisted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	s.publish(ctx, events.TopicImportCompleted, events.ImportCompleted{
		ImportID:              res.ImportID,
		ClientID:              scope.ClientID,
		Period:                scope.Period,
		FileName:              req.FileName,
		Profile:               req.Profile,
		ImportedCount:         res.ImportedCount,
		SkippedDuplicateCount: res.SkippedDuplicateCount,
		InvalidRowCount:       res.InvalidRowCount,
		Persisted:             res.Persisted,
		OccurredAt:            batch.ImportedAt,
	})

	if degraded != nil {
		log.Warn("import not persisted", "error", degraded)
		return res, fmt.Errorf("import %s: %w", res.ImportID, degraded)
	}
	return res, nil
}

// expectedColumns validates req and returns the columns to resolve.
func (s *Service) expectedColumns(req ImportRequest) ([]columns.Field, error) {
	if strings.TrimSpace(req.ClientID) == "" {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidRequest)
	}
	if req.Clear && req.Period == "" {
		return nil, fmt.Errorf("%w: clearing before import needs a period", ErrInvalidRequest)
	}
	if req.Data == nil {
		return nil, ErrNoFile
	}
	if len(req.Columns) > 0 {
		return req.Columns, nil
	}

	key := req.Profile
	if key == "" {
		key = ProfileGeneralLedger
	}
	p, ok := s.registry.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProfile, key)
	}
	return p.Columns, nil
}

// inScope keeps the entries stored under exactly scope. The store reads an
// empty period as every period, while an import into the empty period only
// sees its own partition.
func inScope(entries []ledger.Entry, scope ledger.Scope) []ledger.Entry {
	out := entries[:0:0]
	for _, e := range entries {
		if e.Scope() == scope {
			out = append(out, e)
		}
	}
	return out
}

func (s *Service) clearForImport(ctx context.Context, scope ledger.Scope) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	n, err := s.store.ClearEntries(ctx, scope.ClientID, scope.Period)
	s.cache.Invalidate(scope.ClientID, scope.Period)
	if err != nil {
		return 0, fmt.Errorf("clear before import: %w", err)
	}
	return n, nil
}

func (s *Service) save(ctx context.Context, entries []ledger.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	if _, err := s.store.SaveEntries(ctx, entries); err != nil {
		if errors.Is(err, ledger.ErrPersistenceUnavailable) || ctx.Err() != nil {
			return fmt.Errorf("save entries: %w", err)
		}
		return fmt.Errorf("%w: %w", ErrSaveRejected, err)
	}
	return nil
}

func (s *Service) invalidRows(rows []validate.RowResult) []InvalidRow {
	var out []InvalidRow
	for _, r := range rows {
		if r.Result.Valid {
			continue
		}
		if len(out) == s.opts.MaxInvalidRows {
			break
		}
		ir := InvalidRow{Line: r.Line}
		for _, e := range r.Result.Errors {
			ir.Errors = append(ir.Errors, e.Error())
		}
		out = append(out, ir)
	}
	return out
}

// columnIndex renders a mapping as display name to column position.
func columnIndex(m columns.Mapping) map[string]int {
	out := make(map[string]int, len(m.Index))
	for f, i := range m.Index {
		out[f.String()] = i
	}
	return out
}
