// Package store defines the persistence contract of the import engine.
//
// Entries are partitioned by client and period. Implementations live in
// the memory and postgres subpackages.
package store

import (
	"context"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// Store persists ledger entries keyed by client and period.
//
// An empty period on ListEntries or ClearEntries means every period of the
// client. Failures caused by the backing store being unreachable wrap
// ledger.ErrPersistenceUnavailable.
type Store interface {
	// ListEntries returns stored entries ordered by import time, then
	// position within the import.
	ListEntries(ctx context.Context, clientID, period string) ([]ledger.Entry, error)

	// SaveEntries appends entries and returns how many were written.
	SaveEntries(ctx context.Context, entries []ledger.Entry) (int, error)

	// ClearEntries deletes entries and returns how many were removed.
	ClearEntries(ctx context.Context, clientID, period string) (int, error)

	// Ping reports whether the store is reachable.
	Ping(ctx context.Context) error
}
