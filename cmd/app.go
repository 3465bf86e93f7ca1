// Package cmd implements the CLI application to run backtests.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/subcommands"
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest"
	"github.com/etnz/backtest/chain"
	"github.com/etnz/backtest/ohlcv"
)

// Register the subcommands.
// A main package calls Register() and then Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&runCmd{}, "backtest")
	c.Register(&reportCmd{}, "backtest")
	c.Register(&resampleCmd{}, "data")
}

// loadSeries reads every Parquet bar file in dir into a symbol-keyed map.
func loadSeries(dir string) (map[string]*ohlcv.Series, error) {
	if dir == "" {
		return nil, nil
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*.parquet"))
	if err != nil {
		return nil, err
	}
	series := make(map[string]*ohlcv.Series, len(paths))
	for _, path := range paths {
		s, err := ohlcv.ReadParquet(path)
		if err != nil {
			return nil, err
		}
		series[s.Symbol()] = s
	}
	return series, nil
}

// buildEngine assembles an engine and its event stream from a configuration.
func buildEngine(cfg *Config) (*backtest.Engine, []backtest.Event, error) {
	initialCash := decimal.Zero
	if cfg.Engine.InitialCash != "" {
		var err error
		initialCash, err = decimal.NewFromString(cfg.Engine.InitialCash)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid initial_cash %q: %w", cfg.Engine.InitialCash, err)
		}
	}

	series, err := loadSeries(cfg.Data.BarsDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading bars: %w", err)
	}

	e := backtest.NewEngine(initialCash, series)
	e.CarryForward = cfg.Engine.CarryForward
	if cfg.Data.ChainFile != "" {
		quotes, err := chain.LoadFile(cfg.Data.ChainFile)
		if err != nil {
			return nil, nil, fmt.Errorf("loading chain: %w", err)
		}
		e.Quotes = quotes
	}

	f, err := os.Open(cfg.Data.EventsFile)
	if err != nil {
		return nil, nil, fmt.Errorf("opening events: %w", err)
	}
	defer f.Close()
	events, err := backtest.DecodeEvents(f)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding events: %w", err)
	}
	return e, events, nil
}

// fail prints an error the way every subcommand reports one.
func fail(err error) subcommands.ExitStatus {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	return subcommands.ExitFailure
}
