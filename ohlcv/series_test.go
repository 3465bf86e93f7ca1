package ohlcv

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func bar(ts time.Time, close int64) Bar {
	c := decimal.NewFromInt(close)
	return Bar{Time: ts, Open: c, High: c, Low: c, Close: c, Volume: 100}
}

func testSeries() *Series {
	return NewSeries("AAPL", []Bar{
		bar(day(2024, 3, 4).Add(15*time.Hour), 180),
		bar(day(2024, 3, 4).Add(20*time.Hour), 182),
		bar(day(2024, 3, 5).Add(15*time.Hour), 185),
		bar(day(2024, 3, 7).Add(15*time.Hour), 181),
	})
}

func TestNewSeriesSortsAndDedups(t *testing.T) {
	ts := day(2024, 3, 4)
	s := NewSeries("AAPL", []Bar{
		bar(ts.Add(2*time.Hour), 3),
		bar(ts, 1),
		bar(ts, 2), // same timestamp, later entry wins
	})
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	first, err := s.At(ts)
	if err != nil {
		t.Fatal(err)
	}
	if !first.Close.Equal(decimal.NewFromInt(2)) {
		t.Errorf("first close = %s, want 2 (last duplicate wins)", first.Close)
	}
}

func TestSeriesAt(t *testing.T) {
	s := testSeries()

	// Exact hit.
	b, err := s.At(day(2024, 3, 5).Add(15 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !b.Close.Equal(decimal.NewFromInt(185)) {
		t.Errorf("close = %s, want 185", b.Close)
	}

	// Between bars: the next bar is returned.
	b, err = s.At(day(2024, 3, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !b.Time.Equal(day(2024, 3, 7).Add(15 * time.Hour)) {
		t.Errorf("At skipped to %s, want the 2024-03-07 bar", b.Time)
	}

	// Past the end.
	if _, err := s.At(day(2024, 3, 8)); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestSeriesRange(t *testing.T) {
	s := testSeries()

	bars, err := s.Range(day(2024, 3, 4), day(2024, 3, 5))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 2 {
		t.Fatalf("len(bars) = %d, want 2", len(bars))
	}

	// End bound is exclusive.
	bars, err = s.Range(day(2024, 3, 4), day(2024, 3, 4).Add(20*time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(bars) != 1 {
		t.Fatalf("len(bars) = %d, want 1 with exclusive end", len(bars))
	}

	if _, err := s.Range(day(2024, 3, 6), day(2024, 3, 7)); !errors.Is(err, ErrNoData) {
		t.Errorf("empty range error = %v, want ErrNoData", err)
	}
}

func TestSeriesCloseOn(t *testing.T) {
	s := testSeries()

	// Two bars on 2024-03-04: the later close wins.
	c, err := s.CloseOn(day(2024, 3, 4).Add(10 * time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equal(decimal.NewFromInt(182)) {
		t.Errorf("CloseOn = %s, want 182", c)
	}

	// A day with no bars is ErrNoData, even with data around it.
	if _, err := s.CloseOn(day(2024, 3, 6)); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}

func TestSeriesCloseAsOf(t *testing.T) {
	s := testSeries()

	// The empty 2024-03-06 falls back to the 2024-03-05 close.
	c, err := s.CloseAsOf(day(2024, 3, 6))
	if err != nil {
		t.Fatal(err)
	}
	if !c.Equal(decimal.NewFromInt(185)) {
		t.Errorf("CloseAsOf = %s, want 185", c)
	}

	// Before the series starts there is nothing to fall back to.
	if _, err := s.CloseAsOf(day(2024, 3, 1)); !errors.Is(err, ErrNoData) {
		t.Errorf("error = %v, want ErrNoData", err)
	}
}
