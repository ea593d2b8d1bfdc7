package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/renderer"
	"github.com/google/subcommands"
)

type profitsCmd struct {
	holdingDays int
}

func (*profitsCmd) Name() string     { return "profits" }
func (*profitsCmd) Synopsis() string { return "compute the realized profits, one record per sell" }
func (*profitsCmd) Usage() string {
	return `cfo profits [-holding-days <n>]

  Matches every sell against the earliest remaining buy lots of the same
  asset and reports the realized profit of each sell, with the share that is
  taxable under the holding-period rule.
`
}

func (p *profitsCmd) SetFlags(f *flag.FlagSet) {
	f.IntVar(&p.holdingDays, "holding-days", coinfolio.DefaultTaxRule.HoldingDays,
		"Holding period in days after which gains are tax free.")
}

func (p *profitsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	events, err := UnifiedEvents()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}

	report := coinfolio.RealizedProfits(events, coinfolio.TaxRule{HoldingDays: p.holdingDays})
	printMarkdown(renderer.ProfitsMarkdown(report, *reference))

	if len(report.Failed) > 0 {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
