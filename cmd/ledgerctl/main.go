// Command ledgerctl imports ledger exports and inspects stored entries from
// the command line. It uses the same configuration as the server; -db
// selects the PostgreSQL store, otherwise entries live in memory for the
// duration of one run.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is fine; the environment still applies.
	_ = godotenv.Load()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "ledger")
	}

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}

var commands = []subcommands.Command{
	&importCmd{},
	&entriesCmd{},
	&indicatorsCmd{},
	&clearCmd{},
	&profilesCmd{},
}
