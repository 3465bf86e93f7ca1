package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/etnz/backtest"
)

// runCmd holds the flags for the 'run' subcommand.
type runCmd struct {
	configFile string
}

func (*runCmd) Name() string     { return "run" }
func (*runCmd) Synopsis() string { return "replay an event stream and print the outcome" }
func (*runCmd) Usage() string {
	return `bt run -c <config>

  Replay the configured event stream against a fresh portfolio and print
  the final balances and period returns.
`
}

func (c *runCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "c", "backtest.yaml", "configuration file")
}

func (c *runCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := LoadConfig(c.configFile)
	if err != nil {
		return fail(err)
	}
	engine, events, err := buildEngine(cfg)
	if err != nil {
		return fail(err)
	}
	result, err := engine.Run(events)
	if err != nil {
		return fail(err)
	}

	period, err := backtest.ParsePeriod(cfg.Report.Period)
	if err != nil {
		return fail(err)
	}
	twr, err := result.TimeWeightedReturn(period)
	if err != nil {
		return fail(err)
	}

	p := result.Portfolio
	fmt.Printf("events:        %d\n", len(events))
	fmt.Printf("fills:         %d\n", len(result.Snapshots))
	fmt.Printf("cash:          %s\n", p.Cash())
	fmt.Printf("value:         %s\n", p.Value())
	fmt.Printf("net cash flow: %s\n", p.NetCashFlow())
	for _, symbol := range p.Symbols() {
		pos := p.Position(symbol)
		fmt.Printf("position:      %s %s @ %s (pnl %s)\n",
			symbol, pos.Amount(), pos.AverageEntryPrice(), pos.UnrealizedPNL())
	}
	fmt.Printf("twr (%s):   %+.2f%%\n", period, twr*100)
	fmt.Printf("max drawdown:  %+.2f%%\n", result.MaxDrawdown()*100)
	return subcommands.ExitSuccess
}
