package backtest

import (
	"fmt"
	"log"
	"maps"
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

// Portfolio is the simulated brokerage account: a cash balance and a set of
// positions keyed by instrument symbol. Positions are created lazily on the
// first fill of an instrument. The cash balance is never allowed to go
// negative; every mutation that would overdraw the account is rejected
// atomically, leaving cash and positions untouched.
type Portfolio struct {
	cash        decimal.Decimal
	positions   map[string]*Position
	value       decimal.Decimal
	netCashFlow decimal.Decimal
}

// NewPortfolio returns a portfolio seeded with initial cash.
func NewPortfolio(initialCash decimal.Decimal) *Portfolio {
	return &Portfolio{
		cash:      initialCash,
		positions: make(map[string]*Position),
		value:     initialCash,
	}
}

// Cash returns the current cash balance.
func (p *Portfolio) Cash() decimal.Decimal { return p.cash }

// Value returns the total portfolio value as of the last revaluation: cash
// plus the marked value of every position.
func (p *Portfolio) Value() decimal.Decimal { return p.value }

// NetCashFlow returns the cumulative external cash flows applied so far,
// deposits positive and withdrawals negative.
func (p *Portfolio) NetCashFlow() decimal.Decimal { return p.netCashFlow }

// Position returns the position for a symbol, or nil if none is held.
func (p *Portfolio) Position(symbol string) *Position { return p.positions[symbol] }

// Symbols returns the symbols of all held positions, sorted.
func (p *Portfolio) Symbols() []string {
	return slices.Sorted(maps.Keys(p.positions))
}

// Fill applies an executed trade. Cash moves by the signed order value plus
// commission, and the instrument's position absorbs the fill, created on
// first touch. The whole operation is atomic: if the fill would overdraw
// cash or illegally short a stock, nothing changes.
func (p *Portfolio) Fill(order FilledOrder) error {
	orderValue := order.OrderValue()
	cash := p.cash.Sub(orderValue).Sub(order.Commission())
	if cash.IsNegative() {
		return fmt.Errorf("%w: %s %s %s at %s needs %s, cash is %s",
			ErrNegativeCash, order.Side, order.Quantity, order.Instrument.Symbol(),
			order.Price, orderValue.Add(order.Commission()), p.cash)
	}

	symbol := order.Instrument.Symbol()
	pos, ok := p.positions[symbol]
	if !ok {
		pos = NewPosition(order.Instrument)
	}
	// Position.Fill validates before mutating, so a rejection here leaves
	// both the position and the cash balance as they were.
	if err := pos.Fill(order); err != nil {
		return err
	}
	p.positions[symbol] = pos
	p.cash = cash
	log.Printf("filled %s %s %s at %s, cash %s", order.Side, order.Quantity, symbol, order.Price, p.cash)
	return nil
}

// AddCashFlow deposits (positive) or withdraws (negative) external cash and
// revalues the portfolio. A withdrawal that would overdraw the account is
// rejected.
func (p *Portfolio) AddCashFlow(amount decimal.Decimal) error {
	cash := p.cash.Add(amount)
	if cash.IsNegative() {
		return fmt.Errorf("%w: withdrawing %s from %s", ErrNegativeCash, amount.Neg(), p.cash)
	}
	p.cash = cash
	p.netCashFlow = p.netCashFlow.Add(amount)
	p.Update(nil)
	return nil
}

// Update marks positions to the given prices, keyed by symbol, and
// recomputes the total portfolio value. Symbols without a price, and prices
// without a position, are ignored; positions not priced keep their previous
// mark. Update(nil) recomputes the total from current marks.
func (p *Portfolio) Update(prices map[string]decimal.Decimal) {
	for symbol, price := range prices {
		if pos, ok := p.positions[symbol]; ok {
			pos.MarkToMarket(price)
		}
	}
	total := p.cash
	for _, pos := range p.positions {
		total = total.Add(pos.Value())
	}
	p.value = total
}

// OptionExpired removes an expired option position. The option finished
// worthless, so no stock or cash changes hands. Expiring an instrument with
// no position is a no-op.
func (p *Portfolio) OptionExpired(ev OptionExpired) {
	symbol := ev.Instrument.Symbol()
	if _, ok := p.positions[symbol]; !ok {
		return
	}
	log.Printf("option %s expired worthless", symbol)
	delete(p.positions, symbol)
	p.Update(nil)
}

// OptionAssigned converts an option position into the corresponding stock
// trade at the strike price and removes the option position.
//
// The stock side follows from the held side and the option type: a long
// call or short put buys the stock, a long put or short call sells it. The
// stock quantity is the absolute contract count times the multiplier. The
// synthetic stock fill goes through Fill, so it is subject to the same cash
// and shorting checks; on rejection the option position survives untouched.
func (p *Portfolio) OptionAssigned(ev OptionAssigned) error {
	if ev.Instrument.Kind() != Option {
		return fmt.Errorf("assignment of non-option %s", ev.Instrument.Symbol())
	}
	symbol := ev.Instrument.Symbol()
	pos, ok := p.positions[symbol]
	if !ok {
		return fmt.Errorf("%w: assignment of %s", ErrUnknownPosition, symbol)
	}

	heldSide := Buy
	if pos.Amount().IsNegative() {
		heldSide = Sell
	}
	stockSide := heldSide
	if ev.Instrument.OptionType() == Put {
		stockSide = heldSide.opposite()
	}

	fill := FilledOrder{
		base:       base{ts: ev.When(), seq: ev.Seq()},
		Instrument: ev.Instrument.Underlying(),
		Side:       stockSide,
		Quantity:   pos.Amount().Abs().Mul(ev.Instrument.Multiplier()),
		Price:      ev.Instrument.Strike(),
		FilledAt:   ev.When(),
	}
	if err := p.Fill(fill); err != nil {
		return fmt.Errorf("assignment of %s: %w", symbol, err)
	}
	log.Printf("option %s assigned: %s %s %s at %s",
		symbol, stockSide, fill.Quantity, fill.Instrument.Symbol(), fill.Price)
	delete(p.positions, symbol)
	p.Update(nil)
	return nil
}

// Snapshot is a frozen copy of the portfolio at a point in time. The engine
// records one after every fill.
type Snapshot struct {
	Time        time.Time
	Value       decimal.Decimal
	Cash        decimal.Decimal
	NetCashFlow decimal.Decimal
	Positions   map[string]*Position
}

// Snapshot returns an independent copy of the portfolio state. Mutating the
// portfolio afterwards does not affect the snapshot.
func (p *Portfolio) Snapshot(at time.Time) Snapshot {
	positions := make(map[string]*Position, len(p.positions))
	for symbol, pos := range p.positions {
		positions[symbol] = pos.clone()
	}
	return Snapshot{
		Time:        at,
		Value:       p.value,
		Cash:        p.cash,
		NetCashFlow: p.netCashFlow,
		Positions:   positions,
	}
}
