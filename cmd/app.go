// Package cmd implements the CLI application to manage a crypto trade ledger.
package cmd

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/frankfurter"
	"github.com/google/subcommands"
)

// Commands lists the subcommands a main package registers.
// A main package will iterate Commands to Register() each one, and Execute() the user-selected one.
var Commands = []subcommands.Command{
	&importCmd{},
	&txCmd{},
	&fmtCmd{},
	&eventsCmd{},
	&profitsCmd{},
	&portfolioCmd{},
	&feesCmd{},
	&scanCmd{},
	&topicCmd{},
	&assistCmd{},
}

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var ledgerFile = flag.String("ledger-file", "ledger.jsonl", "Path to the ledger file containing trade events (JSONL format)")
var cacheDir = flag.String("cache-dir", ".cache", "Path to the folder caching downloaded rates and prices")
var historyDir = flag.String("history-dir", ".history", "Path to the folder of daily OHLC files, one CSV per symbol")
var keyDir = flag.String("key-dir", ".keys", "Path to the folder holding API key files")
var reference = flag.String("reference", "USD", "Reference currency every figure is reported in")

// DecodeLedger decodes the ledger from the app default ledger file.
// A missing file is an empty ledger.
func DecodeLedger() (*coinfolio.Ledger, error) {
	f, err := os.Open(*ledgerFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return coinfolio.NewLedger(), nil
		}
		return nil, fmt.Errorf("could not open ledger file %q: %w", *ledgerFile, err)
	}
	defer f.Close()

	ledger, err := coinfolio.DecodeLedger(f)
	if err != nil {
		return nil, fmt.Errorf("could not decode ledger file %q: %w", *ledgerFile, err)
	}
	return ledger, nil
}

// SaveLedger rewrites the app default ledger file in canonical form.
func SaveLedger(ledger *coinfolio.Ledger) error {
	f, err := os.Create(*ledgerFile)
	if err != nil {
		return fmt.Errorf("could not write ledger file %q: %w", *ledgerFile, err)
	}
	defer f.Close()
	return coinfolio.EncodeEvents(f, ledger)
}

// UnifiedEvents loads the ledger and converts every event to the reference
// currency, using the cached fiat rates and the local OHLC history.
func UnifiedEvents() ([]coinfolio.Event, error) {
	ledger, err := DecodeLedger()
	if err != nil {
		return nil, err
	}
	unifier := coinfolio.NewUnifier(*reference,
		frankfurter.New(*cacheDir),
		coinfolio.NewDirHistory(*historyDir, *reference),
	)
	return unifier.Unify(ledger.Snapshot())
}

// printMarkdown renders markdown on stdout, falling back to the raw text
// when the terminal renderer cannot be built.
func printMarkdown(md string) {
	out, err := glamour.Render(md, "auto")
	if err != nil {
		fmt.Println(md)
		return
	}
	fmt.Print(out)
}
