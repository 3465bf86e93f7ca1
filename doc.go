// Package backtest implements an event-driven accounting engine for
// simulated trading of stocks and exchange-listed options.
//
// A backtest is a chronological stream of events (fills, resting orders,
// cancellations, price updates, cash flows, option expirations and
// assignments) replayed against a Portfolio. The Engine dispatches each
// event to the portfolio, keeps the book of open resting orders, snapshots
// the portfolio after every fill, and records a period return each time an
// external cash flow changes the account.
//
// All monetary quantities are decimal (github.com/shopspring/decimal);
// return ratios produced by the performance helpers are float64.
package backtest
