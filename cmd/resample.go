package cmd

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/subcommands"

	"github.com/etnz/backtest/ohlcv"
)

// resampleCmd holds the flags for the 'resample' subcommand.
type resampleCmd struct {
	in      string
	outDir  string
	session bool
}

func (*resampleCmd) Name() string     { return "resample" }
func (*resampleCmd) Synopsis() string { return "resample intraday CSV bars into daily Parquet files" }
func (*resampleCmd) Usage() string {
	return `bt resample [-session] -in <bars.csv> -out <dir>

  Read an intraday OHLCV CSV export, aggregate it into daily bars and
  write <dir>/<SYMBOL>.parquet. With -session, bars outside the regular
  trading session are dropped first.
`
}

func (c *resampleCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.in, "in", "", "intraday CSV file to read")
	f.StringVar(&c.outDir, "out", ".", "directory for the daily Parquet file")
	f.BoolVar(&c.session, "session", false, "keep only regular-session bars")
}

func (c *resampleCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.in == "" {
		return fail(fmt.Errorf("missing -in file"))
	}
	s, err := ohlcv.ReadCSVFile(c.in)
	if err != nil {
		return fail(err)
	}

	bars := make([]ohlcv.Bar, 0, s.Len())
	for b := range s.All() {
		bars = append(bars, b)
	}
	if c.session {
		bars = ohlcv.RegularSession(bars)
	}
	daily := ohlcv.NewSeries(s.Symbol(), ohlcv.ResampleDaily(bars))

	out := filepath.Join(c.outDir, strings.ToUpper(s.Symbol())+".parquet")
	if err := ohlcv.WriteParquet(out, daily); err != nil {
		return fail(err)
	}
	fmt.Printf("%s: %d intraday bars -> %d daily bars in %s\n", s.Symbol(), s.Len(), daily.Len(), out)
	return subcommands.ExitSuccess
}
