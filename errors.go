package backtest

import "errors"

// Sentinel errors returned by the accounting layer. Callers match them with
// errors.Is; the returned errors wrap these with contextual detail.
var (
	// ErrInstrumentMismatch is returned when a fill is applied to a position
	// tracking a different instrument.
	ErrInstrumentMismatch = errors.New("order instrument does not match position instrument")

	// ErrShortingNotSupported is returned when a fill would take a stock
	// position below zero. Options can be short, stocks cannot.
	ErrShortingNotSupported = errors.New("shorting stock is not supported")

	// ErrNegativeCash is returned when a fill or cash flow would leave the
	// portfolio with a negative cash balance.
	ErrNegativeCash = errors.New("insufficient cash")

	// ErrUnknownPosition is returned when an assignment names an option the
	// portfolio does not hold.
	ErrUnknownPosition = errors.New("no position for instrument")

	// ErrUnsupportedEvent is returned by the engine when it encounters an
	// event type it has no dispatch rule for.
	ErrUnsupportedEvent = errors.New("unsupported event")

	// ErrUnsupportedFrequency is returned when annualizing returns over a
	// frequency the performance helpers do not know.
	ErrUnsupportedFrequency = errors.New("unsupported return frequency")
)
