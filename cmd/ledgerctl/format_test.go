package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/indicators"
	"github.com/JonMunkholm/ledgerrecon/internal/ledger"
)

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name   string
		amount string
		code   string
		want   string
	}{
		{"thousands", "1234.56", "USD", "$1,234.56"},
		{"negative", "-40", "USD", "-$40.00"},
		{"rounds to cents", "10.005", "USD", "$10.01"},
		{"lower case code", "5", "usd", "$5.00"},
		{"unknown currency", "12.5", "ZZZ", "12.50 ZZZ"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatAmount(decimal.RequireFromString(tt.amount), tt.code)
			if got != tt.want {
				t.Errorf("formatAmount(%s, %s) = %q, want %q", tt.amount, tt.code, got, tt.want)
			}
		})
	}
}

func TestFormatOptional(t *testing.T) {
	if got := formatOptional(decimal.Zero, "USD"); got != "" {
		t.Errorf("zero should be blank, got %q", got)
	}
	if got := formatOptional(decimal.NewFromInt(3), "USD"); got != "$3.00" {
		t.Errorf("got %q", got)
	}
}

func TestDescribeError(t *testing.T) {
	if got := describeError(ledger.ErrEmptyFile); !strings.Contains(got, "FILE003") {
		t.Errorf("expected support code, got %q", got)
	}
	if got := describeError(errors.New("boom")); got != "boom" {
		t.Errorf("got %q", got)
	}
}

func TestPrintEntries(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	entries := []ledger.Entry{
		{Date: &day, AccountNumber: "512000", AccountName: "Bank", Debit: decimal.NewFromInt(100)},
		{AccountNumber: "707000", Description: "Sales", Credit: decimal.NewFromInt(100)},
	}
	for i := range entries {
		entries[i].Rebalance()
	}

	var buf bytes.Buffer
	if err := printEntries(&buf, entries, "USD"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"2024-03-01", "512000", "Bank", "Sales", "$100.00", "-$100.00"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if lines := strings.Count(out, "\n"); lines != 3 {
		t.Errorf("expected header and 2 rows, got %d lines", lines)
	}
}

func TestPrintIndicators(t *testing.T) {
	ind := indicators.Indicators{
		TotalAssets:  decimal.NewFromInt(50000),
		CurrentRatio: decimal.RequireFromString("1.5"),
		ProfitMargin: decimal.RequireFromString("12.3456"),
		EntryCount:   7,
	}

	var buf bytes.Buffer
	if err := printIndicators(&buf, ind, "USD"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"Total assets", "$50,000.00", "1.5000", "12.35%", "7"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, "gl.csv", &core.ImportResult{
		ImportedCount:         2,
		SkippedDuplicateCount: 1,
		InvalidRowCount:       1,
		InvalidRows:           []core.InvalidRow{{Line: 4, Errors: []string{"empty row"}}},
		Degraded:              true,
	})
	out := buf.String()
	for _, want := range []string{"gl.csv: 2 imported, 1 duplicates skipped, 1 invalid rows", "line 4: empty row", "not saved"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStoreFlagsLookup(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("STORE_DRIVER", "")
	os.Unsetenv("DATABASE_URL")
	os.Unsetenv("STORE_DRIVER")

	s := storeFlags{}
	lookup := s.lookup()
	if _, ok := lookup("STORE_DRIVER"); ok {
		t.Error("driver should stay unset without a database URL")
	}

	s.db = "postgres://u:p@localhost/ledger"
	lookup = s.lookup()
	if v, _ := lookup("STORE_DRIVER"); v != "postgres" {
		t.Errorf("STORE_DRIVER = %q, want postgres", v)
	}
	if v, _ := lookup("DATABASE_URL"); v != s.db {
		t.Errorf("DATABASE_URL = %q", v)
	}
}

func TestImportFiles(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	os.Unsetenv("DATABASE_URL")

	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	if err := os.WriteFile(first, []byte("Account;Debit;Credit\n512000;100;0\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(second, []byte("Account;Debit;Credit\n512000;100;0\n401000;0;60\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	s := storeFlags{client: "c1", period: "2024"}
	ctx := context.Background()
	app, err := s.open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	defer app.Close()

	results := importFiles(ctx, app.Service, []string{first, second, filepath.Join(dir, "missing.csv")},
		core.ImportRequest{ClientID: "c1", Period: "2024"})
	if len(results) != 3 {
		t.Fatalf("got %d results", len(results))
	}
	if results[0].Err != nil || results[0].Result.ImportedCount != 1 {
		t.Errorf("first file: %+v", results[0])
	}
	if results[1].Err != nil || results[1].Result.ImportedCount != 1 || results[1].Result.SkippedDuplicateCount != 1 {
		t.Errorf("second file: %+v", results[1])
	}
	if results[2].Err == nil {
		t.Error("missing file should fail")
	}
}

func TestOpenRequiresClient(t *testing.T) {
	s := storeFlags{}
	if _, err := s.open(context.Background()); err == nil {
		t.Error("expected error without -client")
	}
}

func TestCommandsRegisterFlags(t *testing.T) {
	for _, c := range commands {
		f := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(f)
		if c.Synopsis() == "" || c.Usage() == "" {
			t.Errorf("%s: missing help text", c.Name())
		}
	}
}
