package ohlcv

import (
	"sort"
	"time"
)

// ResampleDaily aggregates intraday bars into one bar per UTC calendar day:
// open of the first bar, high of the highs, low of the lows, close of the
// last bar, summed volume. The resulting bars are stamped at UTC midnight.
func ResampleDaily(bars []Bar) []Bar {
	if len(bars) == 0 {
		return nil
	}
	sorted := make([]Bar, len(bars))
	copy(sorted, bars)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})

	var days []Bar
	for _, b := range sorted {
		t := b.Time.UTC()
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		if n := len(days); n > 0 && days[n-1].Time.Equal(day) {
			d := &days[n-1]
			if b.High.GreaterThan(d.High) {
				d.High = b.High
			}
			if b.Low.LessThan(d.Low) {
				d.Low = b.Low
			}
			d.Close = b.Close
			d.Volume += b.Volume
			continue
		}
		days = append(days, Bar{
			Time:   day,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		})
	}
	return days
}

// ResampleDailySeries resamples a whole series to daily frequency.
func ResampleDailySeries(s *Series) *Series {
	bars := make([]Bar, 0, s.Len())
	for b := range s.All() {
		bars = append(bars, b)
	}
	return NewSeries(s.Symbol(), ResampleDaily(bars))
}
