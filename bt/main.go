package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"

	"github.com/etnz/backtest/cmd"
)

func main() {
	// Shell completion, a no-op outside of completion mode.
	configFlags := map[string]complete.Predictor{"c": predict.Files("*.yaml")}
	completion := &complete.Command{
		Sub: map[string]*complete.Command{
			"run":    {Flags: configFlags},
			"report": {Flags: configFlags},
			"resample": {Flags: map[string]complete.Predictor{
				"in":  predict.Files("*.csv"),
				"out": predict.Dirs("*"),
			}},
		},
	}
	completion.Complete("bt")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
