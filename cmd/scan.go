package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/etnz/coinfolio/etherscan"
	"github.com/google/subcommands"
)

type scanCmd struct {
	transfers bool
}

func (*scanCmd) Name() string     { return "scan" }
func (*scanCmd) Synopsis() string { return "discover related wallets on the Ethereum chain" }
func (*scanCmd) Usage() string {
	return `cfo scan [-transfers] <address> [<address>...]

  Walks the transfer graph of the given wallet addresses on Etherscan and
  reports every related wallet. Addresses with too many transfers are
  assumed to be contracts or exchanges and are blacklisted. Discovered
  wallets persist in the cache folder, so later scans resume where this one
  stopped.

  With -transfers, the token transfers of each discovered wallet are listed
  too.
`
}

func (p *scanCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&p.transfers, "transfers", false, "List the token transfers of each discovered wallet.")
}

func (p *scanCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: no wallet address given.")
		return subcommands.ExitUsageError
	}

	explorer, err := etherscan.New(*cacheDir, *keyDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	wallets, err := explorer.Discover(f.Args()...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error scanning wallets: %v\n", err)
		return subcommands.ExitFailure
	}

	var b strings.Builder
	fmt.Fprint(&b, "# Wallets\n\n")
	for _, w := range wallets {
		fmt.Fprintf(&b, "- %s\n", w)
	}
	fmt.Fprintln(&b)

	if p.transfers {
		for _, w := range wallets {
			transfers, err := explorer.TokenTransfers(w)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error listing transfers of %s: %v\n", w, err)
				return subcommands.ExitFailure
			}
			fmt.Fprintf(&b, "## %s\n\n", w)
			for _, t := range transfers {
				fmt.Fprintf(&b, "- %s: %s %s from %s to %s (fee %s ETH)\n",
					t.Time, t.Amount, t.Symbol, t.From, t.To, t.Fee)
			}
			fmt.Fprintln(&b)
		}
	}

	printMarkdown(b.String())
	return subcommands.ExitSuccess
}
