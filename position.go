package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Position tracks the holdings of a single instrument: the signed amount
// (shares or contracts, negative when short), the average entry price, and
// the mark-to-market value and unrealized profit at the last known price.
type Position struct {
	instrument Instrument
	amount     decimal.Decimal
	avgEntry   decimal.Decimal
	unrealized decimal.Decimal
	value      decimal.Decimal
}

// NewPosition returns an empty position for the given instrument.
func NewPosition(instrument Instrument) *Position {
	return &Position{instrument: instrument}
}

// Instrument returns the instrument this position tracks.
func (p *Position) Instrument() Instrument { return p.instrument }

// Symbol returns the symbol of the tracked instrument.
func (p *Position) Symbol() string { return p.instrument.Symbol() }

// Amount returns the signed quantity held: shares for stocks, contracts for
// options, negative when short.
func (p *Position) Amount() decimal.Decimal { return p.amount }

// AverageEntryPrice returns the volume-weighted average price at which the
// current exposure was opened. It is zero for a flat position.
func (p *Position) AverageEntryPrice() decimal.Decimal { return p.avgEntry }

// UnrealizedPNL returns the profit of the position at the last mark.
func (p *Position) UnrealizedPNL() decimal.Decimal { return p.unrealized }

// Value returns the market value of the position at the last mark:
// amount times price times multiplier.
func (p *Position) Value() decimal.Decimal { return p.value }

// Fill applies an executed trade to the position. The signed amount moves by
// the order quantity (negative for sells). When the trade increases the
// absolute exposure, the average entry price is re-blended as the weighted
// mean of the existing entry and the fill; when it reduces exposure the
// entry price is untouched. A fill that flips the position's sign opens the
// new exposure at the fill price. A position driven back to exactly zero is
// fully reset.
//
// Stocks cannot go short: a fill that would take a stock amount negative
// returns ErrShortingNotSupported and leaves the position unchanged. A fill
// for a different instrument returns ErrInstrumentMismatch.
func (p *Position) Fill(order FilledOrder) error {
	if order.Instrument.Symbol() != p.instrument.Symbol() {
		return fmt.Errorf("%w: got %q, position holds %q",
			ErrInstrumentMismatch, order.Instrument.Symbol(), p.instrument.Symbol())
	}

	delta := order.Quantity
	if order.Side == Sell {
		delta = delta.Neg()
	}
	amount := p.amount.Add(delta)
	if p.instrument.Kind() == Stock && amount.IsNegative() {
		return fmt.Errorf("%w: selling %s of %s would leave %s",
			ErrShortingNotSupported, order.Quantity, p.Symbol(), amount)
	}

	if amount.Abs().GreaterThan(p.amount.Abs()) {
		if p.amount.IsZero() || p.amount.Sign() != amount.Sign() {
			// Opening, including a flip through zero: start over at the fill price.
			p.avgEntry = order.Price
		} else {
			// Adding to existing exposure: blend the entry price.
			held := p.avgEntry.Mul(p.amount.Abs())
			added := order.Price.Mul(order.Quantity)
			p.avgEntry = held.Add(added).Div(amount.Abs())
		}
	}
	p.amount = amount

	if p.amount.IsZero() {
		p.avgEntry = decimal.Zero
		p.unrealized = decimal.Zero
		p.value = decimal.Zero
		return nil
	}
	p.MarkToMarket(order.Price)
	return nil
}

// MarkToMarket revalues the position at the given price. A flat position
// stays at zero.
func (p *Position) MarkToMarket(price decimal.Decimal) {
	if p.amount.IsZero() {
		return
	}
	exposure := p.amount.Mul(p.instrument.Multiplier())
	p.unrealized = price.Sub(p.avgEntry).Mul(exposure)
	p.value = price.Mul(exposure)
}

// clone returns an independent copy of the position.
func (p *Position) clone() *Position {
	c := *p
	return &c
}

func (p *Position) String() string {
	return fmt.Sprintf("%s %s @ %s", p.Symbol(), p.amount, p.avgEntry)
}
