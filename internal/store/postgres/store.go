// Package postgres implements store.Store on PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/store"
)

// PoolOptions tunes the connection pool. Zero values keep pgx defaults.
type PoolOptions struct {
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Connect parses url, applies opts, opens a pool and pings it.
func Connect(ctx context.Context, url string, opts PoolOptions) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %w", ledger.ErrPersistenceUnavailable, err)
	}
	return pool, nil
}

// Store persists entries in the ledger_entries table.
type Store struct {
	pool *pgxpool.Pool
}

// New returns a Store backed by pool. Run Migrate before first use.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

var entryColumns = []string{
	"id", "client_id", "period", "import_id", "import_index", "imported_at",
	"entry_date", "account_number", "account_name", "description", "reference",
	"category", "debit", "credit", "balance", "signature", "ai_meta",
}

const selectEntries = `
SELECT id, client_id, period, import_id, import_index, imported_at,
       entry_date, account_number, account_name, description, reference,
       category, debit, credit, balance, signature, ai_meta
FROM ledger_entries
WHERE client_id = $1 AND ($2 = '' OR period = $2)
ORDER BY imported_at, import_id, import_index`

// ListEntries returns the entries of one period, or of every period of the
// client when period is empty.
func (s *Store) ListEntries(ctx context.Context, clientID, period string) ([]ledger.Entry, error) {
	rows, err := s.pool.Query(ctx, selectEntries, clientID, period)
	if err != nil {
		return nil, classify("list entries", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var (
			e                      ledger.Entry
			date                   pgtype.Date
			debit, credit, balance pgtype.Numeric
			aiMeta                 []byte
		)
		if err := rows.Scan(
			&e.ID, &e.ClientID, &e.Period, &e.ImportID, &e.ImportIndex, &e.ImportedAt,
			&date, &e.AccountNumber, &e.AccountName, &e.Description, &e.Reference,
			&e.Category, &debit, &credit, &balance, &e.Signature, &aiMeta,
		); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.Date = FromPgDate(date)
		e.Debit = FromPgNumeric(debit)
		e.Credit = FromPgNumeric(credit)
		e.Balance = FromPgNumeric(balance)
		if len(aiMeta) > 0 {
			e.AIMeta = aiMeta
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list entries", err)
	}
	return out, nil
}

// SaveEntries copies entries into the table inside one transaction. Either
// every entry is written or none is.
func (s *Store) SaveEntries(ctx context.Context, entries []ledger.Entry) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, classify("begin transaction", err)
	}
	defer tx.Rollback(ctx)

	rows := make([][]any, len(entries))
	for i, e := range entries {
		var aiMeta any
		if len(e.AIMeta) > 0 {
			aiMeta = []byte(e.AIMeta)
		}
		rows[i] = []any{
			e.ID, e.ClientID, e.Period, e.ImportID, int32(e.ImportIndex), e.ImportedAt,
			ToPgDate(e.Date), e.AccountNumber, e.AccountName, e.Description, e.Reference,
			e.Category, ToPgNumeric(e.Debit), ToPgNumeric(e.Credit), ToPgNumeric(e.Balance),
			e.Signature, aiMeta,
		}
	}

	n, err := tx.CopyFrom(ctx, pgx.Identifier{"ledger_entries"}, entryColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return 0, classify("copy entries", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, classify("commit entries", err)
	}
	return int(n), nil
}

// ClearEntries deletes the entries of one period, or of every period of the
// client when period is empty.
func (s *Store) ClearEntries(ctx context.Context, clientID, period string) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM ledger_entries WHERE client_id = $1 AND ($2 = '' OR period = $2)`,
		clientID, period)
	if err != nil {
		return 0, classify("clear entries", err)
	}
	return int(tag.RowsAffected()), nil
}

// Ping checks the pool can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return classify("ping", err)
	}
	return nil
}

// classify wraps err with op. Errors reported by the server itself (bad
// SQL, constraint violations) are returned as is; anything else means the
// server could not be reached and wraps ledger.ErrPersistenceUnavailable.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%w: %s: %w", ledger.ErrPersistenceUnavailable, op, err)
}

/* ----------------------------------------
	Pgx Helpers
---------------------------------------- */

// ToPgNumeric converts a decimal to a pgtype.Numeric without going through
// a string.
func ToPgNumeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}

// FromPgNumeric converts back. NULL, NaN and infinities read as zero.
func FromPgNumeric(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid || n.NaN || n.InfinityModifier != pgtype.Finite || n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}

// ToPgDate converts an optional date; nil is NULL.
func ToPgDate(t *time.Time) pgtype.Date {
	if t == nil {
		return pgtype.Date{Valid: false}
	}
	return pgtype.Date{Time: *t, Valid: true}
}

// FromPgDate converts back to midnight UTC, or nil for NULL.
func FromPgDate(d pgtype.Date) *time.Time {
	if !d.Valid {
		return nil
	}
	t := time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
	return &t
}

var _ store.Store = (*Store)(nil)
