// Package ohlcv stores and queries historical price bars.
//
// A Series is an immutable, chronologically sorted sequence of bars for one
// instrument symbol. Bars can be ingested from Databento-style CSV exports,
// resampled from intraday to daily frequency, and persisted as Parquet
// files.
package ohlcv

import (
	"time"

	"github.com/shopspring/decimal"
)

// Bar is a single OHLCV record: the traded price range and volume of one
// instrument over one sampling interval starting at Time.
type Bar struct {
	Time   time.Time
	Open   decimal.Decimal
	High   decimal.Decimal
	Low    decimal.Decimal
	Close  decimal.Decimal
	Volume int64
}
