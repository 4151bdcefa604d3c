// Package memory is an in-process implementation of store.Store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/store"
)

// Store keeps entries in memory, one slice per client and period. It is
// safe for concurrent use.
type Store struct {
	mu      sync.RWMutex
	entries map[ledger.Scope][]ledger.Entry
}

// New returns an empty Store.
func New() *Store {
	return &Store{entries: make(map[ledger.Scope][]ledger.Entry)}
}

// ListEntries returns the entries of one period, or of every period of the
// client when period is empty.
func (s *Store) ListEntries(ctx context.Context, clientID, period string) ([]ledger.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []ledger.Entry
	for scope, entries := range s.entries {
		if matches(scope, clientID, period) {
			out = append(out, entries...)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ImportedAt.Equal(out[j].ImportedAt) {
			return out[i].ImportedAt.Before(out[j].ImportedAt)
		}
		if out[i].ImportID != out[j].ImportID {
			return out[i].ImportID < out[j].ImportID
		}
		return out[i].ImportIndex < out[j].ImportIndex
	})
	return out, nil
}

// SaveEntries appends entries to their scope.
func (s *Store) SaveEntries(ctx context.Context, entries []ledger.Entry) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range entries {
		scope := e.Scope()
		s.entries[scope] = append(s.entries[scope], e)
	}
	return len(entries), nil
}

// ClearEntries removes the entries of one period, or of every period of the
// client when period is empty.
func (s *Store) ClearEntries(ctx context.Context, clientID, period string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for scope, entries := range s.entries {
		if matches(scope, clientID, period) {
			removed += len(entries)
			delete(s.entries, scope)
		}
	}
	return removed, nil
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

func matches(scope ledger.Scope, clientID, period string) bool {
	if scope.ClientID != clientID {
		return false
	}
	return period == "" || scope.Period == period
}

var _ store.Store = (*Store)(nil)
