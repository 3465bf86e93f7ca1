package cmd

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/glamour"
	"github.com/google/subcommands"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/renderer"
)

// reportCmd holds the flags for the 'report' subcommand.
type reportCmd struct {
	configFile string
	plain      bool
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "run a backtest and render a performance report" }
func (*reportCmd) Usage() string {
	return `bt report [-plain] -c <config>

  Replay the configured event stream and render a markdown performance
  report, styled for the terminal unless -plain is given.
`
}

func (c *reportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.configFile, "c", "backtest.yaml", "configuration file")
	f.BoolVar(&c.plain, "plain", false, "print raw markdown instead of styled output")
}

func (c *reportCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	name := cfg.Report.Name
	if name == "" {
		name = cfg.Data.EventsFile
	}
	report, err := renderer.NewReport(name, result, period)
	if err != nil {
		return fail(err)
	}
	md := renderer.RenderReport(report)

	if c.plain {
		fmt.Print(md)
		return subcommands.ExitSuccess
	}
	tr, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
	if err != nil {
		return fail(err)
	}
	styled, err := tr.Render(md)
	if err != nil {
		return fail(err)
	}
	fmt.Print(styled)
	return subcommands.ExitSuccess
}
