package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
	"github.com/google/subcommands"
)

type feesCmd struct{}

func (*feesCmd) Name() string     { return "fees" }
func (*feesCmd) Synopsis() string { return "show the fee drag per broker, cheapest first" }
func (*feesCmd) Usage() string {
	return `cfo fees

  Sums, per broker, the funds moved and the fees paid, and reports the fee
  percentage. Useful to decide where the next trade should happen.
`
}

func (*feesCmd) SetFlags(f *flag.FlagSet) {}

func (p *feesCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	events, err := UnifiedEvents()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	profits := coinfolio.RealizedProfits(events, coinfolio.DefaultTaxRule)
	report, err := coinfolio.NewPortfolioReport(*reference, events, profits, nil)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	renderer.FeesMarkdown(&b, report.Fees)
	if b.Len() == 0 {
		fmt.Println("No fees recorded yet.")
		return subcommands.ExitSuccess
	}
	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
