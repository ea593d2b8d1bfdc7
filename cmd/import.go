package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/coinfolio/broker"
	"github.com/google/subcommands"
)

type importCmd struct {
	broker string
}

func (*importCmd) Name() string     { return "import" }
func (*importCmd) Synopsis() string { return "import broker trade exports into the ledger" }
func (*importCmd) Usage() string {
	return `cfo import [-broker <name>] <export.csv> [<export.csv>...]

  Reads broker trade exports, merges partial fills of the same order, and
  appends the resulting events to the ledger. Events already present are
  skipped, so re-importing the same export is harmless.

  The broker is detected from the file name; use -broker to force one.
  Supported brokers: ` + strings.Join(broker.Names(), ", ") + `.
`
}

func (p *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.broker, "broker", "", "Force the broker adapter instead of detecting it from the file name.")
}

func (p *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no export file given.")
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	before := ledger.Len()

	for _, path := range f.Args() {
		adapter, err := broker.Detect(path)
		if p.broker != "" {
			adapter, err = broker.ByName(p.broker)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return subcommands.ExitFailure
		}

		file, err := os.Open(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening export %q: %v\n", path, err)
			return subcommands.ExitFailure
		}
		events, err := adapter.Transactions(file)
		file.Close()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading export %q: %v\n", path, err)
			return subcommands.ExitFailure
		}

		if err := ledger.Append(events...); err != nil {
			fmt.Fprintf(os.Stderr, "Error importing %q: %v\n", path, err)
			return subcommands.ExitFailure
		}
		fmt.Printf("Imported %q (%s): %d events\n", path, adapter.Name(), len(events))
	}

	if err := SaveLedger(ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Ledger now holds %d events (%d new).\n", ledger.Len(), ledger.Len()-before)
	return subcommands.ExitSuccess
}
