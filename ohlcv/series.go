package ohlcv

import (
	"errors"
	"fmt"
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoData reports that no bar exists for the queried time or range.
var ErrNoData = errors.New("no bar data")

// Series is a chronologically sorted sequence of bars for one symbol.
// Construct with NewSeries; the series is immutable afterwards.
type Series struct {
	symbol string
	bars   []Bar
}

// NewSeries builds a series from bars in any order. Bars are sorted by time;
// when several bars share a timestamp the last one provided wins.
func NewSeries(symbol string, bars []Bar) *Series {
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	// Dedup in place, keeping the later entry of each equal-time run.
	deduped := sorted[:0]
	for _, b := range sorted {
		if n := len(deduped); n > 0 && deduped[n-1].Time.Equal(b.Time) {
			deduped[n-1] = b
			continue
		}
		deduped = append(deduped, b)
	}
	return &Series{symbol: symbol, bars: deduped}
}

// Symbol returns the instrument symbol of the series.
func (s *Series) Symbol() string { return s.symbol }

// Len returns the number of bars.
func (s *Series) Len() int { return len(s.bars) }

// All iterates over the bars in chronological order.
func (s *Series) All() iter.Seq[Bar] {
	return func(yield func(Bar) bool) {
		for _, b := range s.bars {
			if !yield(b) {
				return
			}
		}
	}
}

// searchAt returns the index of the first bar at or after ts.
func (s *Series) searchAt(ts time.Time) int {
	return sort.Search(len(s.bars), func(i int) bool {
		return !s.bars[i].Time.Before(ts)
	})
}

// At returns the first bar at or after ts, or ErrNoData when the series
// ends before ts.
func (s *Series) At(ts time.Time) (Bar, error) {
	i := s.searchAt(ts)
	if i == len(s.bars) {
		return Bar{}, fmt.Errorf("%w: %s at or after %s", ErrNoData, s.symbol, ts.Format(time.RFC3339))
	}
	return s.bars[i], nil
}

// Range returns the bars in the half-open interval [start, end), or
// ErrNoData when the interval is empty.
func (s *Series) Range(start, end time.Time) ([]Bar, error) {
	from, to := s.searchAt(start), s.searchAt(end)
	if from == to {
		return nil, fmt.Errorf("%w: %s in [%s, %s)", ErrNoData, s.symbol,
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return s.bars[from:to], nil
}

// CloseOn returns the last close of the UTC calendar day containing ts, or
// ErrNoData when the day has no bar.
func (s *Series) CloseOn(ts time.Time) (decimal.Decimal, error) {
	day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
	bars, err := s.Range(day, day.AddDate(0, 0, 1))
	if err != nil {
		return decimal.Zero, err
	}
	return bars[len(bars)-1].Close, nil
}

// CloseAsOf returns the most recent close at or before the end of the UTC
// calendar day containing ts, reaching back in history as far as needed. It
// returns ErrNoData only when the series starts after that day.
func (s *Series) CloseAsOf(ts time.Time) (decimal.Decimal, error) {
	end := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	i := s.searchAt(end)
	if i == 0 {
		return decimal.Zero, fmt.Errorf("%w: %s before %s", ErrNoData, s.symbol, end.Format(time.RFC3339))
	}
	return s.bars[i-1].Close, nil
}
