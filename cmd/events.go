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

type eventsCmd struct {
	asset   string
	broker  string
	head    int
	tail    int
	unified bool
}

func (*eventsCmd) Name() string     { return "events" }
func (*eventsCmd) Synopsis() string { return "list the trade events in the ledger" }
func (*eventsCmd) Usage() string {
	return `cfo events [-asset <sym>] [-broker <name>] [-head <n>] [-tail <n>] [-unified]

  Lists events from the ledger, with options for filtering and limiting the
  output. With -unified, events are shown after conversion to the reference
  currency, the way the profit engine sees them.
`
}

func (p *eventsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.asset, "asset", "", "Show only events of this base asset.")
	f.StringVar(&p.broker, "broker", "", "Show only events of this broker.")
	f.IntVar(&p.head, "head", 0, "Show only the first N events.")
	f.IntVar(&p.tail, "tail", 0, "Show only the last N events.")
	f.BoolVar(&p.unified, "unified", false, "Show events converted to the reference currency.")
}

func (p *eventsCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if p.head > 0 && p.tail > 0 {
		fmt.Fprintln(os.Stderr, "Error: -head and -tail flags cannot be used together.")
		return subcommands.ExitUsageError
	}

	var events []coinfolio.Event
	if p.unified {
		unified, err := UnifiedEvents()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		events = unified
	} else {
		ledger, err := DecodeLedger()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return subcommands.ExitFailure
		}
		events = ledger.Snapshot()
	}

	events = filter(events, p.asset, p.broker)
	if p.head > 0 && len(events) > p.head {
		events = events[:p.head]
	}
	if p.tail > 0 && len(events) > p.tail {
		events = events[len(events)-p.tail:]
	}

	printMarkdown(renderer.EventsMarkdown(events))
	return subcommands.ExitSuccess
}

func filter(events []coinfolio.Event, asset, broker string) []coinfolio.Event {
	if asset == "" && broker == "" {
		return events
	}
	kept := events[:0:0]
	for _, e := range events {
		if asset != "" && e.Pair.Base() != asset {
			continue
		}
		if broker != "" && e.Broker != broker {
			continue
		}
		kept = append(kept, e)
	}
	return kept
}
