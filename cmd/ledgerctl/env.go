package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/JonMunkholm/ledgerrecon/internal/application"
	"github.com/JonMunkholm/ledgerrecon/internal/config"
	"github.com/JonMunkholm/ledgerrecon/internal/logging"
)

// storeFlags are shared by every command that touches entries.
type storeFlags struct {
	db       string
	client   string
	period   string
	currency string
	verbose  bool
}

func (s *storeFlags) register(f *flag.FlagSet) {
	f.StringVar(&s.db, "db", "", "PostgreSQL URL. Defaults to DATABASE_URL; in-memory when both are empty.")
	f.StringVar(&s.client, "client", "", "Client identifier (required).")
	f.StringVar(&s.period, "period", "", "Accounting period, e.g. 2024 or 2024-Q1.")
	f.StringVar(&s.currency, "currency", "EUR", "ISO 4217 code used to display amounts.")
	f.BoolVar(&s.verbose, "v", false, "Log debug output to stderr.")
}

// lookup layers the flags over the process environment.
func (s *storeFlags) lookup() config.LookupFunc {
	overrides := map[string]string{}
	dbURL := s.db
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}
	if dbURL != "" {
		overrides["DATABASE_URL"] = dbURL
		if _, set := os.LookupEnv("STORE_DRIVER"); !set || s.db != "" {
			overrides["STORE_DRIVER"] = config.DriverPostgres
		}
	}
	// The sweeper never matters for a single run.
	overrides["CACHE_SWEEP_SCHEDULE"] = "@every 1h"

	return func(key string) (string, bool) {
		if v, ok := overrides[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	}
}

// open loads configuration and wires the application. Logs go to stderr so
// stdout stays clean for tables.
func (s *storeFlags) open(ctx context.Context) (*application.App, error) {
	if s.client == "" {
		return nil, fmt.Errorf("-client is required")
	}

	cfg, err := config.LoadFrom(s.lookup())
	if err != nil {
		return nil, err
	}

	level := "warn"
	if s.verbose {
		level = "debug"
	}
	slog.SetDefault(logging.New(level, "text", os.Stderr))

	return application.New(ctx, cfg)
}
