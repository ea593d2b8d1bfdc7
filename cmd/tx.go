package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/etnz/coinfolio"
	"github.com/etnz/coinfolio/date"
	"github.com/google/subcommands"
	"github.com/shopspring/decimal"
)

type txCmd struct {
	datetime string
	pair     string
	side     string
	size     string
	funds    string
	fee      string
	feeCur   string
	broker   string
}

func (*txCmd) Name() string     { return "tx" }
func (*txCmd) Synopsis() string { return "record a single trade event in the ledger" }
func (*txCmd) Usage() string {
	return `cfo tx -pair <BASE-QUOTE> -side <buy|sell> -size <n> -funds <n> [-d <datetime>] [-fee <n>] [-fee-currency <sym>] [-broker <name>]

  Records one trade by hand, for brokers without an export. Size and funds
  are given as positive magnitudes; the usual sign convention is applied
  from the side.

Usage Examples:
# Bought 0.5 BTC for 10000 EUR on Bison, 15 EUR fee.
$ cfo tx -pair BTC-EUR -side buy -size 0.5 -funds 10000 -fee 15 -broker Bison
`
}

func (p *txCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&p.datetime, "d", "", "Datetime of the trade (YYYY-MM-DD HH:MM:SS). Defaults to now.")
	f.StringVar(&p.pair, "pair", "", "Traded pair, base and quote separated by a dash.")
	f.StringVar(&p.side, "side", "", "Trade side: buy or sell.")
	f.StringVar(&p.size, "size", "", "Base asset quantity traded.")
	f.StringVar(&p.funds, "funds", "", "Quote currency amount exchanged.")
	f.StringVar(&p.fee, "fee", "0", "Fee charged by the broker.")
	f.StringVar(&p.feeCur, "fee-currency", "", "Currency of the fee. Defaults to the pair's quote.")
	f.StringVar(&p.broker, "broker", "", "Broker the trade happened on.")
}

func (p *txCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	event, err := p.event()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitUsageError
	}

	ledger, err := DecodeLedger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	if err := ledger.Append(event); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	if err := SaveLedger(ledger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Successfully recorded %s %s %s into %s\n", event.Side, event.Size, event.Pair, *ledgerFile)
	return subcommands.ExitSuccess
}

func (p *txCmd) event() (coinfolio.Event, error) {
	var zero coinfolio.Event

	pair := coinfolio.Pair(strings.ToUpper(p.pair))
	if !pair.Valid() {
		return zero, fmt.Errorf("invalid pair %q, expected BASE-QUOTE", p.pair)
	}
	side, err := coinfolio.ParseSide(p.side)
	if err != nil {
		return zero, err
	}

	when := date.NewDatetime(time.Now())
	if p.datetime != "" {
		when, err = date.ParseDatetime(p.datetime)
		if err != nil {
			return zero, err
		}
	}

	size, err := decimal.NewFromString(p.size)
	if err != nil {
		return zero, fmt.Errorf("invalid size %q: %w", p.size, err)
	}
	funds, err := decimal.NewFromString(p.funds)
	if err != nil {
		return zero, fmt.Errorf("invalid funds %q: %w", p.funds, err)
	}
	fee := decimal.Zero
	if p.fee != "" {
		fee, err = decimal.NewFromString(p.fee)
		if err != nil {
			return zero, fmt.Errorf("invalid fee %q: %w", p.fee, err)
		}
	}
	if side == coinfolio.Buy {
		funds = funds.Neg()
	} else {
		size = size.Neg()
	}

	feeCur := strings.ToUpper(p.feeCur)
	if feeCur == "" {
		feeCur = pair.Quote()
	}

	event := coinfolio.NewEvent(when, pair, side,
		coinfolio.Q(size),
		coinfolio.M(funds, pair.Quote()),
		coinfolio.M(fee, feeCur),
		p.broker)
	return event, event.Validate()
}
