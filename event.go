package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Side of a trade.
type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide parses the textual form produced by Side.String.
func ParseSide(s string) (Side, error) {
	switch s {
	case "buy":
		return Buy, nil
	case "sell":
		return Sell, nil
	default:
		return 0, fmt.Errorf("unknown side %q", s)
	}
}

// opposite returns the other side.
func (s Side) opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

// OrderStatus tracks the lifecycle of a resting order.
type OrderStatus int

const (
	Open OrderStatus = iota
	Filled
	Canceled
)

func (s OrderStatus) String() string {
	switch s {
	case Open:
		return "open"
	case Filled:
		return "filled"
	case Canceled:
		return "canceled"
	default:
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
}

// Event is one fact in the chronological stream a backtest replays. The set
// of concrete event types is closed; the engine dispatches on the dynamic
// type and rejects anything else.
//
// Events are created through a Sequencer, which stamps each one with a
// unique, strictly increasing sequence id.
type Event interface {
	// When returns the simulation timestamp of the event.
	When() time.Time
	// Seq returns the creation-order sequence id of the event.
	Seq() int64

	event()
}

// base carries the timestamp and sequence id common to all events.
type base struct {
	ts  time.Time
	seq int64
}

func (b base) When() time.Time { return b.ts }
func (b base) Seq() int64      { return b.seq }
func (base) event()            {}

// Sequencer creates events and stamps them with sequence ids. Ids are
// strictly increasing in creation order, starting at 1. A backtest uses a
// single Sequencer for its whole event stream; the zero value is ready to
// use. A Sequencer is not safe for concurrent use.
type Sequencer struct {
	last int64
}

func (s *Sequencer) next(ts time.Time) base {
	s.last++
	return base{ts: ts, seq: s.last}
}

// PriceUpdate carries new market prices, keyed by instrument symbol.
// Instruments absent from the map keep their previous mark.
type PriceUpdate struct {
	base
	Prices map[string]decimal.Decimal
}

// NewPriceUpdate creates a PriceUpdate event.
func (s *Sequencer) NewPriceUpdate(ts time.Time, prices map[string]decimal.Decimal) PriceUpdate {
	return PriceUpdate{base: s.next(ts), Prices: prices}
}

// CashFlowChange is an external deposit (positive) or withdrawal (negative).
// Cash flows are the boundaries at which the engine measures period returns.
type CashFlowChange struct {
	base
	Amount decimal.Decimal
}

// NewCashFlowChange creates a CashFlowChange event.
func (s *Sequencer) NewCashFlowChange(ts time.Time, amount decimal.Decimal) CashFlowChange {
	return CashFlowChange{base: s.next(ts), Amount: amount}
}

// RestingOrder is a limit order placed on the book, waiting to be filled or
// canceled. Its sequence id doubles as the order id that later FilledOrder
// and CanceledOrder events reference. It is a pointer type: the strategy
// layer mutates its status as the order progresses.
type RestingOrder struct {
	base
	Instrument     Instrument
	Side           Side
	Quantity       decimal.Decimal
	LimitPrice     decimal.Decimal
	CommissionRate decimal.Decimal
	Status         OrderStatus

	filledAt    time.Time
	filledPrice decimal.Decimal
}

// NewRestingOrder creates an open limit order. commissionRate is the
// commission charged on fill, as a fraction of the gross order value.
func (s *Sequencer) NewRestingOrder(ts time.Time, instrument Instrument, side Side, quantity, limitPrice, commissionRate decimal.Decimal) *RestingOrder {
	return &RestingOrder{
		base:           s.next(ts),
		Instrument:     instrument,
		Side:           side,
		Quantity:       quantity,
		LimitPrice:     limitPrice,
		CommissionRate: commissionRate,
		Status:         Open,
	}
}

// ID returns the order id, which is the order's sequence id.
func (o *RestingOrder) ID() int64 { return o.seq }

// Fill marks the order filled at the given time and price. It does not
// touch any portfolio; derive a FilledOrder with Sequencer.NewFill and feed
// it to the engine.
func (o *RestingOrder) Fill(at time.Time, price decimal.Decimal) {
	o.Status = Filled
	o.filledAt = at
	o.filledPrice = price
}

// Cancel marks the order canceled.
func (o *RestingOrder) Cancel() { o.Status = Canceled }

// FilledOrder is an executed trade. It either stands alone (OrderID zero)
// or consummates a resting order (OrderID set to that order's id).
type FilledOrder struct {
	base
	Instrument     Instrument
	Side           Side
	Quantity       decimal.Decimal
	Price          decimal.Decimal
	FilledAt       time.Time
	CommissionRate decimal.Decimal
	OrderID        int64
}

// NewFilledOrder creates a standalone fill, one that does not consummate a
// resting order.
func (s *Sequencer) NewFilledOrder(ts time.Time, instrument Instrument, side Side, quantity, price, commissionRate decimal.Decimal) FilledOrder {
	return FilledOrder{
		base:           s.next(ts),
		Instrument:     instrument,
		Side:           side,
		Quantity:       quantity,
		Price:          price,
		FilledAt:       ts,
		CommissionRate: commissionRate,
	}
}

// NewFill derives the FilledOrder event for a resting order previously
// marked filled with RestingOrder.Fill.
func (s *Sequencer) NewFill(o *RestingOrder) (FilledOrder, error) {
	if o.Status != Filled {
		return FilledOrder{}, fmt.Errorf("order %d is %s, not filled", o.ID(), o.Status)
	}
	return FilledOrder{
		base:           s.next(o.filledAt),
		Instrument:     o.Instrument,
		Side:           o.Side,
		Quantity:       o.Quantity,
		Price:          o.filledPrice,
		FilledAt:       o.filledAt,
		CommissionRate: o.CommissionRate,
		OrderID:        o.ID(),
	}, nil
}

// OrderValue returns the signed gross value of the fill: price times
// quantity times the instrument multiplier, positive for a buy and negative
// for a sell. Cash moves by the opposite of this value.
func (o FilledOrder) OrderValue() decimal.Decimal {
	v := o.Price.Mul(o.Quantity).Mul(o.Instrument.Multiplier())
	if o.Side == Sell {
		return v.Neg()
	}
	return v
}

// Commission returns the commission charged on the fill: the commission
// rate applied to the absolute gross value.
func (o FilledOrder) Commission() decimal.Decimal {
	return o.OrderValue().Abs().Mul(o.CommissionRate)
}

// CanceledOrder removes a resting order from the book.
type CanceledOrder struct {
	base
	OrderID int64
}

// NewCanceledOrder creates the cancellation event for a resting order.
func (s *Sequencer) NewCanceledOrder(ts time.Time, o *RestingOrder) CanceledOrder {
	o.Cancel()
	return CanceledOrder{base: s.next(ts), OrderID: o.ID()}
}

// OptionExpired reports that an option reached expiration worthless. The
// position, if any, is removed without any exchange of stock or cash.
type OptionExpired struct {
	base
	Instrument Instrument
}

// NewOptionExpired creates an OptionExpired event.
func (s *Sequencer) NewOptionExpired(ts time.Time, instrument Instrument) OptionExpired {
	return OptionExpired{base: s.next(ts), Instrument: instrument}
}

// OptionAssigned reports that an option position is exercised or assigned:
// the option position converts into the corresponding stock trade at the
// strike price.
type OptionAssigned struct {
	base
	Instrument Instrument
}

// NewOptionAssigned creates an OptionAssigned event.
func (s *Sequencer) NewOptionAssigned(ts time.Time, instrument Instrument) OptionAssigned {
	return OptionAssigned{base: s.next(ts), Instrument: instrument}
}
