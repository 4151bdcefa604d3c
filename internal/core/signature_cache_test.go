package core

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/ledgerrecon/internal/dedupe"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

func cacheEntry(client, period, account string) ledger.Entry {
	return ledger.Entry{ClientID: client, Period: period, AccountNumber: account, Debit: decimal.NewFromInt(1)}
}

func TestSignatureCache_Known(t *testing.T) {
	c := NewSignatureCache()
	scope := ledger.Scope{ClientID: "c1", Period: "2024-01"}
	stored := []ledger.Entry{cacheEntry("c1", "2024-01", "411000")}

	set, err := c.Known(context.Background(), scope, func(context.Context) ([]ledger.Entry, error) {
		return stored, nil
	})
	require.NoError(t, err)
	assert.True(t, set.Contains(dedupe.Signature(stored[0])))
	assert.Equal(t, 1, c.Len())

	set.Add("caller-owned")
	again, err := c.Known(context.Background(), scope, func(context.Context) ([]ledger.Entry, error) {
		return stored, nil
	})
	require.NoError(t, err)
	assert.False(t, again.Contains("caller-owned"), "returned sets are independent")
}

func TestSignatureCache_FallbackWhenUnavailable(t *testing.T) {
	c := NewSignatureCache()
	scope := ledger.Scope{ClientID: "c1", Period: "2024-01"}
	e := cacheEntry("c1", "2024-01", "411000")

	_, err := c.Known(context.Background(), scope, func(context.Context) ([]ledger.Entry, error) {
		return []ledger.Entry{e}, nil
	})
	require.NoError(t, err)

	down := func(context.Context) ([]ledger.Entry, error) {
		return nil, ledger.ErrPersistenceUnavailable
	}

	set, err := c.Known(context.Background(), scope, down)
	assert.ErrorIs(t, err, ledger.ErrPersistenceUnavailable)
	require.NotNil(t, set)
	assert.True(t, set.Contains(dedupe.Signature(e)), "falls back to the cached set")

	empty, err := c.Known(context.Background(), ledger.Scope{ClientID: "c2"}, down)
	assert.ErrorIs(t, err, ledger.ErrPersistenceUnavailable)
	require.NotNil(t, empty)
	assert.Equal(t, 0, empty.Len())
}

func TestSignatureCache_OtherErrors(t *testing.T) {
	c := NewSignatureCache()
	boom := errors.New("syntax error")

	set, err := c.Known(context.Background(), ledger.Scope{ClientID: "c1"}, func(context.Context) ([]ledger.Entry, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, set)
}

func TestSignatureCache_ConcurrentLoadsShareQuery(t *testing.T) {
	c := NewSignatureCache()
	scope := ledger.Scope{ClientID: "c1", Period: "p"}

	var calls atomic.Int32
	release := make(chan struct{})
	load := func(context.Context) ([]ledger.Entry, error) {
		calls.Add(1)
		<-release
		return []ledger.Entry{cacheEntry("c1", "p", "512000")}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := c.Known(context.Background(), scope, load)
			assert.NoError(t, err)
			assert.Equal(t, 1, set.Len())
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(5))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestSignatureCache_AddInvalidateSweep(t *testing.T) {
	c := NewSignatureCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	load := func(context.Context) ([]ledger.Entry, error) { return nil, nil }
	ctx := context.Background()
	_, _ = c.Known(ctx, ledger.Scope{ClientID: "c1", Period: "2024-01"}, load)
	_, _ = c.Known(ctx, ledger.Scope{ClientID: "c1", Period: "2024-02"}, load)
	_, _ = c.Known(ctx, ledger.Scope{ClientID: "c2", Period: "2024-01"}, load)
	require.Equal(t, 3, c.Len())

	added := cacheEntry("c1", "2024-01", "401000")
	c.Add([]ledger.Entry{added, cacheEntry("c9", "x", "1")})

	down := func(context.Context) ([]ledger.Entry, error) { return nil, ledger.ErrPersistenceUnavailable }
	set, _ := c.Known(ctx, ledger.Scope{ClientID: "c1", Period: "2024-01"}, down)
	assert.True(t, set.Contains(dedupe.Signature(added)))
	assert.Equal(t, 3, c.Len(), "Add does not create scopes")

	assert.Equal(t, 1, c.Invalidate("c1", "2024-02"))
	assert.Equal(t, 2, c.Len())

	now = now.Add(time.Hour)
	_, _ = c.Known(ctx, ledger.Scope{ClientID: "c2", Period: "2024-01"}, load)
	assert.Equal(t, 1, c.Sweep(30*time.Minute), "only the idle scope is dropped")
	assert.Equal(t, 1, c.Len())

	assert.Equal(t, 1, c.Invalidate("c2", ""))
	assert.Equal(t, 0, c.Len())
}

func TestSignatureCache_StartSweeper(t *testing.T) {
	c := NewSignatureCache()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	assert.Error(t, c.StartSweeper(ctx, "not a schedule", time.Minute))
	assert.NoError(t, c.StartSweeper(ctx, "@every 1h", time.Minute))
}

func TestSignatureCache_LoadIgnoresCallerCancellation(t *testing.T) {
	c := NewSignatureCache()
	scope := ledger.Scope{ClientID: "c1", Period: "2024-01"}
	e := cacheEntry("c1", "2024-01", "411000")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	set, err := c.Known(ctx, scope, func(ctx context.Context) ([]ledger.Entry, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return []ledger.Entry{e}, nil
	})
	require.NoError(t, err)
	assert.True(t, set.Contains(dedupe.Signature(e)))
}
