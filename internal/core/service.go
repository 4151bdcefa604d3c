package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/events"
	"github.com/JonMunkholm/ledgerrecon/internal/indicators"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
	"github.com/JonMunkholm/ledgerrecon/internal/store"
	"github.com/JonMunkholm/ledgerrecon/internal/tabular"
	"github.com/JonMunkholm/ledgerrecon/internal/validate"
)

var (
	// ErrFileTooLarge is returned when a payload exceeds Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrInvalidRequest is returned for malformed requests (missing client,
	// unknown column names).
	ErrInvalidRequest = errors.New("invalid request")

	// ErrSaveRejected wraps store errors that are not outages: the store
	// answered and refused the write.
	ErrSaveRejected = errors.New("entries rejected by store")
)

// Options configures a Service. Zero values select defaults.
type Options struct {
	MaxFileSize    int64         // bytes, default 20 MiB
	MaxTextRunes   int           // per text field, default 512
	StoreTimeout   time.Duration // per persistence call, default 10s
	MaxConcurrent  int           // concurrent imports
	MaxWait        time.Duration // wait for an import slot
	MaxInvalidRows int           // invalid rows reported back, default 100
	SniffBytes     int           // encoding sniff window, default 4096

	Dictionary *columns.Dictionary
	Registry   *Registry
	Publisher  events.Publisher
	Cache      *SignatureCache
	Limiter    *ImportLimiter
}

// Defaults.
const (
	DefaultMaxFileSize    = 20 << 20
	DefaultStoreTimeout   = 10 * time.Second
	DefaultMaxInvalidRows = 100
)

// Service runs imports and answers ledger queries for every client. It
// holds no per-client state besides the signature cache.
type Service struct {
	store     store.Store
	registry  *Registry
	resolver  *columns.Resolver
	decoder   tabular.Decoder
	validator *validate.Validator
	cache     *SignatureCache
	limiter   *ImportLimiter
	publisher events.Publisher
	opts      Options
}

// NewService returns a Service persisting to st.
func NewService(st store.Store, opts Options) (*Service, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.StoreTimeout <= 0 {
		opts.StoreTimeout = DefaultStoreTimeout
	}
	if opts.MaxInvalidRows <= 0 {
		opts.MaxInvalidRows = DefaultMaxInvalidRows
	}
	if opts.Registry == nil {
		opts.Registry = DefaultRegistry()
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop{}
	}
	if opts.Cache == nil {
		opts.Cache = NewSignatureCache()
	}
	if opts.Limiter == nil {
		opts.Limiter = NewImportLimiter(opts.MaxConcurrent, opts.MaxWait)
	}

	return &Service{
		store:     st,
		registry:  opts.Registry,
		resolver:  columns.NewResolver(opts.Dictionary),
		decoder:   tabular.Decoder{SniffBytes: opts.SniffBytes},
		validator: validate.New(),
		cache:     opts.Cache,
		limiter:   opts.Limiter,
		publisher: opts.Publisher,
		opts:      opts,
	}, nil
}

// Profiles lists the import profiles.
func (s *Service) Profiles() []Profile {
	return s.registry.All()
}

// Cache returns the service's signature cache.
func (s *Service) Cache() *SignatureCache {
	return s.cache
}

// LimiterStatus reports import slot usage.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForImports blocks until running imports finish or ctx ends.
func (s *Service) WaitForImports(ctx context.Context) error {
	return s.limiter.Wait(ctx)
}

// Ping checks the store.
func (s *Service) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()
	return s.store.Ping(ctx)
}

// Entries returns the stored entries of one period, or of every period of
// the client when period is empty.
func (s *Service) Entries(ctx context.Context, clientID, period string) ([]ledger.Entry, error) {
	if clientID == "" {
		return nil, fmt.Errorf("%w: client id is required", ErrInvalidRequest)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	entries, err := s.store.ListEntries(ctx, clientID, period)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	return entries, nil
}

// Indicators computes indicators over the stored entries of a period.
func (s *Service) Indicators(ctx context.Context, clientID, period string) (indicators.Indicators, error) {
	entries, err := s.Entries(ctx, clientID, period)
	if err != nil {
		return indicators.Indicators{}, err
	}
	return indicators.Compute(entries), nil
}

// Clear deletes the entries of one period, or of every period of the
// client when period is empty, and forgets their signatures.
func (s *Service) Clear(ctx context.Context, clientID, period string) (int, error) {
	if clientID == "" {
		return 0, fmt.Errorf("%w: client id is required", ErrInvalidRequest)
	}

	log := logging.FromContext(ctx)

	storeCtx, cancel := context.WithTimeout(ctx, s.opts.StoreTimeout)
	defer cancel()

	removed, err := s.store.ClearEntries(storeCtx, clientID, period)
	s.cache.Invalidate(clientID, period)
	if err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}

	log.Info("entries cleared", "client_id", clientID, "period", period, "removed", removed)

	s.publish(ctx, events.TopicPeriodCleared, events.PeriodCleared{
		ClientID:     clientID,
		Period:       period,
		RemovedCount: removed,
		OccurredAt:   time.Now().UTC(),
	})
	return removed, nil
}

// publish sends an event. Failures are logged and never reach the caller.
func (s *Service) publish(ctx context.Context, topic string, event any) {
	if err := s.publisher.Publish(ctx, topic, event); err != nil {
		logging.FromContext(ctx).Warn("event publish failed", "topic", topic, "error", err)
	}
}
