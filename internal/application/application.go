// Package application wires a core.Service from configuration. The server
// and the ledgerctl command share it so both talk to the same store, cache
// and event stream the same way.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/config"
	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/events"
	"github.com/JonMunkholm/ledgerrecon/internal/events/kafka"
	"github.com/JonMunkholm/ledgerrecon/internal/store"
	"github.com/JonMunkholm/ledgerrecon/internal/store/memory"
	"github.com/JonMunkholm/ledgerrecon/internal/store/postgres"
)

// App is a configured Service and the resources behind it.
type App struct {
	Service *core.Service
	Config  *config.Config

	closers []func()
}

// New opens the configured store and event publisher and builds the
// service. Call Close when done.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	app := &App{Config: cfg}

	var dict *columns.Dictionary
	if cfg.Import.SynonymsFile != "" {
		d, err := columns.LoadDictionary(cfg.Import.SynonymsFile)
		if err != nil {
			return nil, err
		}
		dict = d
		slog.Info("header synonyms loaded", "file", cfg.Import.SynonymsFile)
	}

	st, err := app.openStore(ctx)
	if err != nil {
		app.Close()
		return nil, err
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.EventsEnabled() {
		p := kafka.NewPublisher(cfg.Events.KafkaBrokers, cfg.Events.TopicPrefix, cfg.Events.WriteTimeout)
		app.closers = append(app.closers, func() {
			if err := p.Close(); err != nil {
				slog.Warn("event publisher close failed", "error", err)
			}
		})
		publisher = p
		slog.Info("event publishing enabled", "brokers", len(cfg.Events.KafkaBrokers), "prefix", cfg.Events.TopicPrefix)
	}

	svc, err := core.NewService(st, core.Options{
		MaxFileSize:    cfg.Import.MaxFileSize,
		MaxTextRunes:   cfg.Import.MaxTextRunes,
		StoreTimeout:   cfg.Store.Timeout,
		MaxConcurrent:  cfg.Import.MaxConcurrent,
		MaxWait:        cfg.Import.MaxWaitTime,
		MaxInvalidRows: cfg.Import.MaxInvalidRows,
		SniffBytes:     cfg.Import.SniffBytes,
		Dictionary:     dict,
		Publisher:      publisher,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("create service: %w", err)
	}
	app.Service = svc

	slog.Info("service ready",
		"store", cfg.Store.Driver,
		"profiles", len(svc.Profiles()),
		"max_concurrent_imports", cfg.Import.MaxConcurrent,
	)
	return app, nil
}

// StartBackground starts the signature cache sweeper until ctx ends.
func (a *App) StartBackground(ctx context.Context) error {
	return a.Service.Cache().StartSweeper(ctx, a.Config.Cache.SweepSchedule, a.Config.Cache.MaxIdle)
}

// Close releases the store and publisher in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func (a *App) openStore(ctx context.Context) (store.Store, error) {
	cfg := a.Config
	if cfg.Store.Driver != config.DriverPostgres {
		slog.Warn("using in-memory store; entries are lost on exit")
		return memory.New(), nil
	}

	if cfg.Database.Migrate {
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return nil, err
		}
	}

	pool, err := postgres.Connect(ctx, cfg.Database.URL, postgres.PoolOptions{
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, pool.Close)

	slog.Info("connected to database", "name", databaseName(cfg.Database.URL))
	return postgres.New(pool), nil
}

// databaseName returns the database part of a connection URL for logging.
func databaseName(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(u.Path, "/")
}
