package core

// signature_cache.go keeps the last known signature set of every scope the
// service has imported into.
//
// Signatures are always reloaded from the store before an import so that
// entries written by other processes are seen. The cache serves two
// purposes: concurrent loads of the same scope share one store query, and
// when the store is unreachable the last loaded set still catches
// duplicates in degraded mode.

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"

	"github.com/JonMunkholm/ledgerrecon/internal/dedupe"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

// LoadFunc lists the stored entries of one scope.
type LoadFunc func(ctx context.Context) ([]ledger.Entry, error)

// SignatureCache maps scopes to known signatures. It is owned by one
// Service and safe for concurrent use.
type SignatureCache struct {
	mu    sync.Mutex
	sets  map[ledger.Scope]*cachedSet
	group singleflight.Group
	now   func() time.Time
}

type cachedSet struct {
	set      *dedupe.SignatureSet
	lastUsed time.Time
}

// NewSignatureCache returns an empty cache.
func NewSignatureCache() *SignatureCache {
	return &SignatureCache{
		sets: make(map[ledger.Scope]*cachedSet),
		now:  time.Now,
	}
}

// Known loads the signatures of scope with load and caches them. The
// returned set belongs to the caller.
//
// When load fails with ledger.ErrPersistenceUnavailable, Known returns the
// last cached set for scope (or an empty set) together with the error, so
// the caller can go on in degraded mode. Other load errors return a nil set.
func (c *SignatureCache) Known(ctx context.Context, scope ledger.Scope, load LoadFunc) (*dedupe.SignatureSet, error) {
	v, err, _ := c.group.Do(scope.Key(), func() (any, error) {
		// Shared by every caller waiting on scope; one caller leaving must
		// not fail the others. load applies its own timeout.
		entries, err := load(context.WithoutCancel(ctx))
		if err != nil {
			return nil, err
		}
		set := dedupe.NewSignatureSet(entries...)
		c.put(scope, set.Clone())
		return set, nil
	})
	if err == nil {
		return v.(*dedupe.SignatureSet).Clone(), nil
	}

	if !errors.Is(err, ledger.ErrPersistenceUnavailable) {
		return nil, fmt.Errorf("load signatures: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if cs, ok := c.sets[scope]; ok {
		cs.lastUsed = c.now()
		return cs.set.Clone(), err
	}
	return dedupe.NewSignatureSet(), err
}

func (c *SignatureCache) put(scope ledger.Scope, set *dedupe.SignatureSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sets[scope] = &cachedSet{set: set, lastUsed: c.now()}
}

// Add records the signatures of persisted entries in the cached set of
// their scope. Scopes that are not cached are left alone; their next load
// reads the entries from the store.
func (c *SignatureCache) Add(entries []ledger.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		if cs, ok := c.sets[e.Scope()]; ok {
			cs.set.AddEntries(e)
			cs.lastUsed = c.now()
		}
	}
}

// Invalidate drops the cached set of one period, or of every period of the
// client when period is empty.
func (c *SignatureCache) Invalidate(clientID, period string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for scope := range c.sets {
		if scope.ClientID == clientID && (period == "" || scope.Period == period) {
			delete(c.sets, scope)
			n++
		}
	}
	return n
}

// Sweep drops sets not used for maxIdle and returns how many were dropped.
func (c *SignatureCache) Sweep(maxIdle time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-maxIdle)
	n := 0
	for scope, cs := range c.sets {
		if cs.lastUsed.Before(cutoff) {
			delete(c.sets, scope)
			n++
		}
	}
	return n
}

// Len returns the number of cached scopes.
func (c *SignatureCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sets)
}

// StartSweeper runs Sweep on a cron schedule (for example "@every 10m")
// until ctx is canceled.
func (c *SignatureCache) StartSweeper(ctx context.Context, schedule string, maxIdle time.Duration) error {
	sched := cron.New()
	if _, err := sched.AddFunc(schedule, func() {
		start := time.Now()
		dropped := c.Sweep(maxIdle)
		slog.Debug("signature cache swept",
			"dropped", dropped,
			"remaining", c.Len(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}); err != nil {
		return fmt.Errorf("schedule cache sweep %q: %w", schedule, err)
	}

	sched.Start()
	slog.Info("signature cache sweeper started", "schedule", schedule, "max_idle", maxIdle)

	go func() {
		<-ctx.Done()
		<-sched.Stop().Done()
		slog.Info("signature cache sweeper stopped")
	}()
	return nil
}
