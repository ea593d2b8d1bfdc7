package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/coinfolio/cmd"
	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

func main() {
	// Shell completion, a no-op outside of a completion request.
	completion()

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")
	commander.Register(commander.CommandsCommand(), "")

	for _, c := range cmd.Commands {
		commander.Register(c, "")
	}

	flag.Parse()

	// Unknown subcommands may be provided by an external cfo-<name> binary.
	if name := flag.Arg(0); name != "" && !cmd.Known(name) {
		if found, code := cmd.RunExtension(name, flag.Args()[1:]); found {
			os.Exit(code)
		}
	}

	os.Exit(int(commander.Execute(context.Background())))
}

func completion() {
	sub := make(map[string]*complete.Command, len(cmd.Commands))
	for _, c := range cmd.Commands {
		sub[c.Name()] = &complete.Command{Args: predict.Files("*")}
	}
	cli := &complete.Command{
		Sub: sub,
		Flags: map[string]complete.Predictor{
			"ledger-file": predict.Files("*.jsonl"),
			"cache-dir":   predict.Dirs("*"),
			"history-dir": predict.Dirs("*"),
			"key-dir":     predict.Dirs("*"),
			"reference":   predict.Set{"USD", "EUR"},
		},
	}
	cli.Complete("cfo")
}
