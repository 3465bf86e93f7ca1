package ohlcv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Regular US equity session expressed in UTC: 13:00 (inclusive) to 21:00
// (exclusive), i.e. 09:00-17:00 New York during daylight saving.
const (
	sessionOpenHour  = 13
	sessionCloseHour = 21
)

// ReadCSV parses an OHLCV export with a header line. The columns ts_event,
// open, high, low, close, volume and symbol are required, in any order;
// extra columns are ignored. All rows must carry the same symbol.
func ReadCSV(r io.Reader) (*Series, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("reading csv header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, name := range []string{"ts_event", "open", "high", "low", "close", "volume", "symbol"} {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", name)
		}
	}

	var symbol string
	var bars []Bar
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		if s := record[col["symbol"]]; symbol == "" {
			symbol = s
		} else if s != symbol {
			return nil, fmt.Errorf("line %d: symbol %q in a file for %q", line, s, symbol)
		}

		ts, err := time.Parse(time.RFC3339Nano, record[col["ts_event"]])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid ts_event: %w", line, err)
		}
		bar := Bar{Time: ts.UTC()}
		for _, f := range []struct {
			name string
			dst  *decimal.Decimal
		}{
			{"open", &bar.Open},
			{"high", &bar.High},
			{"low", &bar.Low},
			{"close", &bar.Close},
		} {
			v, err := decimal.NewFromString(record[col[f.name]])
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s: %w", line, f.name, err)
			}
			*f.dst = v
		}
		bar.Volume, err = strconv.ParseInt(record[col["volume"]], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid volume: %w", line, err)
		}
		bars = append(bars, bar)
	}
	if symbol == "" {
		return nil, fmt.Errorf("%w: csv has no rows", ErrNoData)
	}
	return NewSeries(symbol, bars), nil
}

// ReadCSVFile reads one symbol's bars from a CSV file. See ReadCSV.
func ReadCSVFile(path string) (*Series, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// RegularSession keeps only the bars whose start falls inside the regular
// US equity trading session, in UTC.
func RegularSession(bars []Bar) []Bar {
	var kept []Bar
	for _, b := range bars {
		h := b.Time.UTC().Hour()
		if h >= sessionOpenHour && h < sessionCloseHour {
			kept = append(kept, b)
		}
	}
	return kept
}
