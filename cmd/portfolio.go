package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/cmc"
	"github.com/etnz/coinfolio/renderer"
	"github.com/google/subcommands"
)

type portfolioCmd struct {
	offline bool
}

func (*portfolioCmd) Name() string     { return "portfolio" }
func (*portfolioCmd) Synopsis() string { return "show the aggregated portfolio, one row per asset" }
func (*portfolioCmd) Usage() string {
	return `cfo portfolio [-offline]

  Aggregates the whole ledger per asset: money put in, money taken out,
  realized profit and loss, remaining position and its current value, and
  the fees paid per broker.

  Current prices come from CoinMarketCap; with -offline (or without an API
  key) the ledger-derived columns are still computed, only the current
  values are blank.
`
}

func (p *portfolioCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.offline, "offline", false, "Skip fetching current prices.")
}

func (p *portfolioCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	events, err := UnifiedEvents()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	profits := coinfolio.RealizedProfits(events, coinfolio.DefaultTaxRule)

	var spot coinfolio.SpotSource
	if !p.offline {
		client, err := cmc.New(*cacheDir, *keyDir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: no price source, reporting offline: %v\n", err)
		} else {
			spot = client
		}
	}

	report, err := coinfolio.NewPortfolioReport(*reference, events, profits, spot)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.PortfolioMarkdown(report))
	return subcommands.ExitSuccess
}
