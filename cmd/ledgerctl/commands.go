package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/JonMunkholm/ledgerrecon/internal/application"
	"github.com/JonMunkholm/ledgerrecon/internal/columns"
	"github.com/JonMunkholm/ledgerrecon/internal/config"
	"github.com/JonMunkholm/ledgerrecon/internal/core"
	"github.com/JonMunkholm/ledgerrecon/internal/export"
)

// --- importCmd ---

type importCmd struct {
	storeFlags
	profile string
	columns string
	clear   bool
	dir     string
	export  string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "imports ledger export files into a client's period" }
func (*importCmd) Usage() string {
	return `import -client <id> [-period <p>] [-profile <key> | -columns <a,b,..>] [-clear] [-export <out.xlsx>] <file>...
import -client <id> [-period <p>] -dir <directory>

Imports CSV or TXT ledger exports. Lines already stored for the same
client and period are skipped. With the in-memory store the indicators of
the imported entries are printed, since nothing outlives the run.
`
}

func (c *importCmd) SetFlags(f *flag.FlagSet) {
	c.storeFlags.register(f)
	f.StringVar(&c.profile, "profile", "", "Import profile: general_ledger, trial_balance or bank_statement.")
	f.StringVar(&c.columns, "columns", "", "Comma-separated expected columns; overrides -profile.")
	f.BoolVar(&c.clear, "clear", false, "Delete the period's entries before importing. Needs -period.")
	f.StringVar(&c.dir, "dir", "", "Import every .csv and .txt file in this directory.")
	f.StringVar(&c.export, "export", "", "Write the period's entries and indicators to this XLSX file.")
}

func (c *importCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if (c.dir == "") == (f.NArg() == 0) {
		fmt.Fprintln(os.Stderr, "Error: give either -dir or one or more files.")
		return subcommands.ExitUsageError
	}

	base := core.ImportRequest{
		ClientID: c.client,
		Period:   c.period,
		Profile:  c.profile,
		Clear:    c.clear,
	}
	if c.columns != "" {
		fields, err := columns.ParseFields(strings.Split(c.columns, ","))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitUsageError
		}
		base.Columns = fields
	}

	app, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	var results []application.FileResult
	if c.dir != "" {
		results, err = application.ImportDir(ctx, app.Service, c.dir, base)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
			return subcommands.ExitFailure
		}
	} else {
		results = importFiles(ctx, app.Service, f.Args(), base)
	}

	status := subcommands.ExitSuccess
	for _, r := range results {
		if r.Result != nil {
			printResult(os.Stdout, r.File, r.Result)
		}
		if r.Err != nil {
			if r.Result == nil {
				fmt.Fprintf(os.Stdout, "%s: failed\n", r.File)
			}
			fmt.Fprintf(os.Stderr, "  %s\n", describeError(r.Err))
			status = subcommands.ExitFailure
		}
	}

	if app.Config.Store.Driver == config.DriverMemory {
		fmt.Println()
		if printScopeIndicators(ctx, app, c.storeFlags) != nil {
			status = subcommands.ExitFailure
		}
	}

	if c.export != "" {
		if err := writeExport(ctx, app, c.storeFlags, c.export); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing %s: %s\n", c.export, describeError(err))
			return subcommands.ExitFailure
		}
		fmt.Printf("\nWrote %s\n", c.export)
	}
	return status
}

// importFiles imports paths in order. Only the first file clears.
func importFiles(ctx context.Context, svc *core.Service, paths []string, base core.ImportRequest) []application.FileResult {
	results := make([]application.FileResult, 0, len(paths))
	for _, p := range paths {
		res := application.FileResult{File: filepath.Base(p)}
		data, err := os.ReadFile(p)
		if err != nil {
			res.Err = fmt.Errorf("read %s: %w", p, err)
		} else {
			req := base
			req.FileName = res.File
			req.Data = data
			res.Result, res.Err = svc.Import(ctx, req)
			base.Clear = false
		}
		results = append(results, res)
	}
	return results
}

func printScopeIndicators(ctx context.Context, app *application.App, s storeFlags) error {
	ind, err := app.Service.Indicators(ctx, s.client, s.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		return err
	}
	return printIndicators(os.Stdout, ind, s.currency)
}

func writeExport(ctx context.Context, app *application.App, s storeFlags, path string) error {
	entries, err := app.Service.Entries(ctx, s.client, s.period)
	if err != nil {
		return err
	}
	ind, err := app.Service.Indicators(ctx, s.client, s.period)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteWorkbook(&buf, entries, ind); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// --- entriesCmd ---

type entriesCmd struct {
	storeFlags
}

func (*entriesCmd) Name() string     { return "entries" }
func (*entriesCmd) Synopsis() string { return "lists the stored entries of a client's period" }
func (*entriesCmd) Usage() string {
	return `entries -client <id> [-period <p>] [-currency <code>]

Lists entries in import order. Without -period every period of the client
is listed.
`
}
func (c *entriesCmd) SetFlags(f *flag.FlagSet) { c.storeFlags.register(f) }

func (c *entriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	entries, err := app.Service.Entries(ctx, c.client, c.period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		return subcommands.ExitFailure
	}
	if len(entries) == 0 {
		fmt.Println("No entries.")
		return subcommands.ExitSuccess
	}
	if err := printEntries(os.Stdout, entries, c.currency); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- indicatorsCmd ---

type indicatorsCmd struct {
	storeFlags
}

func (*indicatorsCmd) Name() string     { return "indicators" }
func (*indicatorsCmd) Synopsis() string { return "prints the financial indicators of a client's period" }
func (*indicatorsCmd) Usage() string {
	return `indicators -client <id> [-period <p>] [-currency <code>]
`
}
func (c *indicatorsCmd) SetFlags(f *flag.FlagSet) { c.storeFlags.register(f) }

func (c *indicatorsCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	app, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	if err := printScopeIndicators(ctx, app, c.storeFlags); err != nil {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- clearCmd ---

type clearCmd struct {
	storeFlags
	all bool
}

func (*clearCmd) Name() string     { return "clear" }
func (*clearCmd) Synopsis() string { return "deletes the stored entries of a client's period" }
func (*clearCmd) Usage() string {
	return `clear -client <id> (-period <p> | -all)

Deletes the entries of one period, or with -all every entry of the client.
`
}
func (c *clearCmd) SetFlags(f *flag.FlagSet) {
	c.storeFlags.register(f)
	f.BoolVar(&c.all, "all", false, "Delete every period of the client.")
}

func (c *clearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.period == "" && !c.all {
		fmt.Fprintln(os.Stderr, "Error: -period or -all is required.")
		return subcommands.ExitUsageError
	}

	app, err := c.open(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer app.Close()

	period := c.period
	if c.all {
		period = ""
	}
	n, err := app.Service.Clear(ctx, c.client, period)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", describeError(err))
		return subcommands.ExitFailure
	}
	fmt.Printf("Removed %d entries.\n", n)
	return subcommands.ExitSuccess
}

// --- profilesCmd ---

type profilesCmd struct{}

func (*profilesCmd) Name() string             { return "profiles" }
func (*profilesCmd) Synopsis() string         { return "lists the import profiles and their columns" }
func (*profilesCmd) Usage() string            { return "profiles\n" }
func (*profilesCmd) SetFlags(_ *flag.FlagSet) {}

func (*profilesCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	for _, p := range core.DefaultProfiles() {
		names := make([]string, len(p.Columns))
		for i, f := range p.Columns {
			names[i] = f.String()
		}
		fmt.Printf("%-16s %s\n  %s\n", p.Key, p.Label, strings.Join(names, ", "))
	}
	return subcommands.ExitSuccess
}
