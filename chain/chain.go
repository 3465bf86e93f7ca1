// Package chain stores intraday option chain quotes and serves mid prices
// for marking option positions.
package chain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrNoQuote reports that no quote exists for the requested contract and day.
var ErrNoQuote = errors.New("no quote")

var two = decimal.NewFromInt(2)

// Quote is one bid/ask observation for an option contract, identified by
// its OCC symbol.
type Quote struct {
	Symbol string
	Time   time.Time
	Bid    decimal.Decimal
	Ask    decimal.Decimal
}

// Mid returns the bid/ask midpoint. When one side is empty the other side
// stands alone.
func (q Quote) Mid() decimal.Decimal {
	switch {
	case q.Bid.IsZero():
		return q.Ask
	case q.Ask.IsZero():
		return q.Bid
	default:
		return q.Bid.Add(q.Ask).Div(two)
	}
}

// Chain holds quotes for many contracts, sorted by time per contract.
// Construct with New; a Chain is immutable afterwards.
type Chain struct {
	quotes map[string][]Quote
}

// New builds a chain from quotes in any order.
func New(quotes []Quote) *Chain {
	bySymbol := make(map[string][]Quote)
	for _, q := range quotes {
		bySymbol[q.Symbol] = append(bySymbol[q.Symbol], q)
	}
	for _, qs := range bySymbol {
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].Time.Before(qs[j].Time) })
	}
	return &Chain{quotes: bySymbol}
}

// Symbols returns the contract symbols present in the chain, sorted.
func (c *Chain) Symbols() []string {
	symbols := make([]string, 0, len(c.quotes))
	for s := range c.quotes {
		symbols = append(symbols, s)
	}
	sort.Strings(symbols)
	return symbols
}

// On returns the quotes for a contract on the UTC calendar day containing
// ts, in time order, or ErrNoQuote when the day is empty.
func (c *Chain) On(symbol string, ts time.Time) ([]Quote, error) {
	day := dayOf(ts)
	end := day.AddDate(0, 0, 1)

	qs := c.quotes[symbol]
	from := sort.Search(len(qs), func(i int) bool { return !qs[i].Time.Before(day) })
	to := sort.Search(len(qs), func(i int) bool { return !qs[i].Time.Before(end) })
	if from == to {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoQuote, symbol, day.Format("2006-01-02"))
	}
	return qs[from:to], nil
}

// SnapshotOn returns the quotes of every contract on an underlying for the
// UTC calendar day containing ts, grouped per contract in time order, or
// ErrNoQuote when the underlying has no quote that day.
func (c *Chain) SnapshotOn(underlying string, ts time.Time) ([]Quote, error) {
	prefix := fmt.Sprintf("%-6s", underlying)
	var snapshot []Quote
	for _, symbol := range c.Symbols() {
		if !strings.HasPrefix(symbol, prefix) {
			continue
		}
		qs, err := c.On(symbol, ts)
		if err != nil {
			continue
		}
		snapshot = append(snapshot, qs...)
	}
	if len(snapshot) == 0 {
		return nil, fmt.Errorf("%w: %s on %s", ErrNoQuote, underlying, dayOf(ts).Format("2006-01-02"))
	}
	return snapshot, nil
}

// MidOn returns the mid price of the last quote of the day for a contract.
// A contract whose OCC expiration precedes the day is worth zero, not
// missing; ErrNoQuote is reserved for contracts absent from the snapshot on
// a day they could still trade.
func (c *Chain) MidOn(symbol string, ts time.Time) (decimal.Decimal, error) {
	qs, err := c.On(symbol, ts)
	if err != nil {
		if exp, ok := occExpiration(symbol); ok && exp.Before(dayOf(ts)) {
			return decimal.Zero, nil
		}
		return decimal.Zero, err
	}
	return qs[len(qs)-1].Mid(), nil
}

func dayOf(ts time.Time) time.Time {
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC)
}

// occExpiration extracts the expiration day encoded in an OCC option
// symbol. Stock symbols and malformed inputs report false.
func occExpiration(symbol string) (time.Time, bool) {
	if len(symbol) != 21 {
		return time.Time{}, false
	}
	exp, err := time.Parse("060102", symbol[6:12])
	if err != nil {
		return time.Time{}, false
	}
	return exp, true
}
