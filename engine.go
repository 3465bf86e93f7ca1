package backtest

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/chain"
	"github.com/etnz/backtest/ohlcv"
)

// Engine replays a chronological stream of events against a portfolio in a
// single pass. It keeps the book of open resting orders, snapshots the
// portfolio after every fill, and measures a period return at every cash
// flow boundary.
//
// The bar series are used only at those boundaries, to revalue each held
// position at its end-of-day close before the flow lands.
type Engine struct {
	// CarryForward controls revaluation at cash flow boundaries when an
	// instrument has no bar on the flow day. When false the position simply
	// keeps its previous mark; when true the engine falls back to the most
	// recent close before the flow day.
	CarryForward bool

	// Quotes optionally provides option chain quotes. Held instruments
	// without a bar series are marked at the last mid of the flow day.
	Quotes *chain.Chain

	portfolio *Portfolio
	series    map[string]*ohlcv.Series

	openOrders map[int64]*RestingOrder

	lastValue     decimal.Decimal
	hasLastValue  bool
	snapshots     []Snapshot
	periodReturns []float64
}

// NewEngine returns an engine over a fresh portfolio seeded with initial
// cash. series maps instrument symbols to their bar history; instruments
// without a series are skipped at revaluation time.
func NewEngine(initialCash decimal.Decimal, series map[string]*ohlcv.Series) *Engine {
	return &Engine{
		portfolio:  NewPortfolio(initialCash),
		series:     series,
		openOrders: make(map[int64]*RestingOrder),
	}
}

// Portfolio returns the live portfolio the engine drives.
func (e *Engine) Portfolio() *Portfolio { return e.portfolio }

// OpenOrders returns the resting orders currently on the book.
func (e *Engine) OpenOrders() []*RestingOrder {
	orders := make([]*RestingOrder, 0, len(e.openOrders))
	for _, o := range e.openOrders {
		orders = append(orders, o)
	}
	return orders
}

// Run processes the events in order and returns the accumulated result.
// Events must already be in chronological order; Run does not sort. It
// stops at the first failing event.
func (e *Engine) Run(events []Event) (*Result, error) {
	for _, ev := range events {
		if err := e.Process(ev); err != nil {
			return nil, fmt.Errorf("event %d at %s: %w", ev.Seq(), ev.When().Format(time.RFC3339), err)
		}
	}
	return &Result{
		Portfolio:     e.portfolio,
		Snapshots:     e.snapshots,
		PeriodReturns: e.periodReturns,
	}, nil
}

// Process dispatches a single event. Dispatch is on the concrete event
// type; anything outside the known set returns ErrUnsupportedEvent.
func (e *Engine) Process(ev Event) error {
	switch v := ev.(type) {
	case FilledOrder:
		return e.fill(v)
	case *RestingOrder:
		e.openOrders[v.ID()] = v
	case CanceledOrder:
		delete(e.openOrders, v.OrderID)
	case CashFlowChange:
		return e.cashFlow(v)
	case PriceUpdate:
		e.portfolio.Update(v.Prices)
	case OptionExpired:
		e.portfolio.OptionExpired(v)
	case OptionAssigned:
		return e.portfolio.OptionAssigned(v)
	default:
		return fmt.Errorf("%w: %T", ErrUnsupportedEvent, ev)
	}
	return nil
}

// fill applies an executed trade, consumes the resting order it consummates
// if any, revalues the traded instrument at the fill price, and snapshots
// the portfolio.
func (e *Engine) fill(order FilledOrder) error {
	if err := e.portfolio.Fill(order); err != nil {
		return err
	}
	if order.OrderID != 0 {
		delete(e.openOrders, order.OrderID)
	}
	e.portfolio.Update(map[string]decimal.Decimal{order.Instrument.Symbol(): order.Price})
	e.snapshots = append(e.snapshots, e.portfolio.Snapshot(order.FilledAt))
	return nil
}

// cashFlow closes the current return period, if one is open, and applies
// the external flow. The period return compares the portfolio value at the
// previous flow, just after it landed, with the value now, after revaluing
// every position at its end-of-day close on the flow day.
func (e *Engine) cashFlow(ev CashFlowChange) error {
	if e.hasLastValue {
		e.portfolio.Update(e.closingPrices(ev.When()))
		r := SimpleReturn(e.lastValue.InexactFloat64(), e.portfolio.Value().InexactFloat64())
		e.periodReturns = append(e.periodReturns, r)
	}
	if err := e.portfolio.AddCashFlow(ev.Amount); err != nil {
		return err
	}
	e.lastValue = e.portfolio.Value()
	e.hasLastValue = true
	return nil
}

// closingPrices collects the end-of-day close on the given day for every
// held instrument that has one.
func (e *Engine) closingPrices(at time.Time) map[string]decimal.Decimal {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, time.UTC)
	prices := make(map[string]decimal.Decimal)
	for _, symbol := range e.portfolio.Symbols() {
		s, ok := e.series[symbol]
		if !ok {
			if e.Quotes != nil {
				if mid, err := e.Quotes.MidOn(symbol, day); err == nil {
					prices[symbol] = mid
					continue
				}
			}
			log.Printf("no price series for %s, keeping previous mark", symbol)
			continue
		}
		price, err := s.CloseOn(day)
		if errors.Is(err, ohlcv.ErrNoData) && e.CarryForward {
			price, err = s.CloseAsOf(day)
		}
		if err != nil {
			log.Printf("no close for %s on %s, keeping previous mark", symbol, day.Format("2006-01-02"))
			continue
		}
		prices[symbol] = price
	}
	return prices
}

// Result is the outcome of a run: the final portfolio, one snapshot per
// fill, and the period returns measured between cash flow boundaries.
type Result struct {
	Portfolio     *Portfolio
	Snapshots     []Snapshot
	PeriodReturns []float64
}

// Values returns the portfolio value of each snapshot, in order.
func (r *Result) Values() []float64 {
	values := make([]float64, len(r.Snapshots))
	for i, s := range r.Snapshots {
		values[i] = s.Value.InexactFloat64()
	}
	return values
}

// TimeWeightedReturn annualizes the period returns at the given frequency.
func (r *Result) TimeWeightedReturn(period Period) (float64, error) {
	return TimeWeightedReturn(r.PeriodReturns, period)
}

// MaxDrawdown returns the largest peak-to-trough decline across the
// snapshot values.
func (r *Result) MaxDrawdown() float64 {
	return MaxDrawdown(r.Values())
}
