package backtest

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/etnz/backtest/chain"
	"github.com/etnz/backtest/ohlcv"
)

func mkBar(ts time.Time, close int64) ohlcv.Bar {
	c := decimal.NewFromInt(close)
	return ohlcv.Bar{Time: ts, Open: c, High: c, Low: c, Close: c, Volume: 1000}
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func TestEngineBuyScenario(t *testing.T) {
	var seq Sequencer
	e := NewEngine(decimal.NewFromInt(10000), nil)

	order := seq.NewFilledOrder(at(2024, 3, 4, 15), NewStock("AAPL"), Buy,
		decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.Zero)
	result, err := e.Run([]Event{order})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	p := result.Portfolio
	if !p.Cash().Equal(decimal.NewFromInt(9000)) {
		t.Errorf("Cash() = %s, want 9000", p.Cash())
	}
	if !p.Value().Equal(decimal.NewFromInt(10000)) {
		t.Errorf("Value() = %s, want 10000", p.Value())
	}
	if len(result.Snapshots) != 1 {
		t.Fatalf("got %d snapshots, want 1 per fill", len(result.Snapshots))
	}
	snap := result.Snapshots[0]
	if !snap.Value.Equal(decimal.NewFromInt(10000)) {
		t.Errorf("snapshot value = %s, want 10000", snap.Value)
	}
	if !snap.Positions["AAPL"].Amount().Equal(decimal.NewFromInt(10)) {
		t.Errorf("snapshot position = %s, want 10", snap.Positions["AAPL"].Amount())
	}
}

func TestEngineOrderBook(t *testing.T) {
	var seq Sequencer
	e := NewEngine(decimal.NewFromInt(10000), nil)
	aapl := NewStock("AAPL")

	resting := seq.NewRestingOrder(at(2024, 3, 4, 15), aapl, Buy,
		decimal.NewFromInt(5), decimal.NewFromInt(99), decimal.Zero)
	canceled := seq.NewRestingOrder(at(2024, 3, 4, 15), aapl, Buy,
		decimal.NewFromInt(5), decimal.NewFromInt(98), decimal.Zero)

	if err := e.Process(resting); err != nil {
		t.Fatal(err)
	}
	if err := e.Process(canceled); err != nil {
		t.Fatal(err)
	}
	if len(e.OpenOrders()) != 2 {
		t.Fatalf("open orders = %d, want 2", len(e.OpenOrders()))
	}

	// Cancellation removes its order from the book.
	if err := e.Process(seq.NewCanceledOrder(at(2024, 3, 4, 16), canceled)); err != nil {
		t.Fatal(err)
	}
	if len(e.OpenOrders()) != 1 {
		t.Fatalf("open orders = %d, want 1 after cancel", len(e.OpenOrders()))
	}

	// A fill consummating the remaining order clears the book.
	resting.Fill(at(2024, 3, 4, 17), decimal.NewFromInt(99))
	fill, err := seq.NewFill(resting)
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Process(fill); err != nil {
		t.Fatal(err)
	}
	if len(e.OpenOrders()) != 0 {
		t.Fatalf("open orders = %d, want 0 after fill", len(e.OpenOrders()))
	}
	if !e.Portfolio().Position("AAPL").Amount().Equal(decimal.NewFromInt(5)) {
		t.Errorf("position = %s, want 5", e.Portfolio().Position("AAPL").Amount())
	}
}

func TestEnginePeriodReturns(t *testing.T) {
	series := map[string]*ohlcv.Series{
		"AAPL": ohlcv.NewSeries("AAPL", []ohlcv.Bar{
			mkBar(at(2024, 3, 4, 20), 100),
			mkBar(at(2024, 3, 5, 20), 110),
		}),
	}
	var seq Sequencer
	e := NewEngine(decimal.Zero, series)

	events := []Event{
		seq.NewCashFlowChange(at(2024, 3, 4, 10), decimal.NewFromInt(10000)),
		seq.NewFilledOrder(at(2024, 3, 4, 15), NewStock("AAPL"), Buy,
			decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.Zero),
		seq.NewCashFlowChange(at(2024, 3, 5, 21), decimal.NewFromInt(1000)),
	}
	result, err := e.Run(events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The first flow opens the measurement window, so one return: the
	// portfolio went 10000 -> 11000 at the 2024-03-05 close.
	if len(result.PeriodReturns) != 1 {
		t.Fatalf("period returns = %v, want exactly 1", result.PeriodReturns)
	}
	if got := result.PeriodReturns[0]; !almostEqual(got, 0.10) {
		t.Errorf("period return = %v, want 0.10", got)
	}
	// After the second flow: 11000 + 1000 deposit.
	if !result.Portfolio.Value().Equal(decimal.NewFromInt(12000)) {
		t.Errorf("Value() = %s, want 12000", result.Portfolio.Value())
	}
}

func TestEngineCarryForward(t *testing.T) {
	// Only one bar, on 2024-03-04 closing at 105; the flow lands on an
	// empty 2024-03-06.
	series := map[string]*ohlcv.Series{
		"AAPL": ohlcv.NewSeries("AAPL", []ohlcv.Bar{mkBar(at(2024, 3, 4, 20), 105)}),
	}
	run := func(carry bool) []float64 {
		t.Helper()
		var seq Sequencer
		e := NewEngine(decimal.Zero, series)
		e.CarryForward = carry
		events := []Event{
			seq.NewCashFlowChange(at(2024, 3, 4, 10), decimal.NewFromInt(10000)),
			seq.NewFilledOrder(at(2024, 3, 4, 15), NewStock("AAPL"), Buy,
				decimal.NewFromInt(100), decimal.NewFromInt(100), decimal.Zero),
			seq.NewCashFlowChange(at(2024, 3, 6, 10), decimal.Zero),
		}
		result, err := e.Run(events)
		if err != nil {
			t.Fatalf("Run(carry=%v): %v", carry, err)
		}
		return result.PeriodReturns
	}

	// Without carry-forward the position keeps its fill mark of 100.
	returns := run(false)
	if len(returns) != 1 || !almostEqual(returns[0], 0) {
		t.Errorf("returns without carry = %v, want [0]", returns)
	}

	// With carry-forward the 2024-03-04 close of 105 applies: 10000 -> 10500.
	returns = run(true)
	if len(returns) != 1 || !almostEqual(returns[0], 0.05) {
		t.Errorf("returns with carry = %v, want [0.05]", returns)
	}
}

func TestEngineOptionLifecycle(t *testing.T) {
	var seq Sequencer
	expiration := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	call := NewOption("AAPL", expiration, decimal.NewFromInt(50), Call)
	e := NewEngine(decimal.NewFromInt(100000), nil)

	events := []Event{
		seq.NewFilledOrder(at(2024, 3, 4, 15), call, Buy,
			decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.Zero),
		seq.NewOptionAssigned(expiration, call),
	}
	if _, err := e.Run(events); err != nil {
		t.Fatalf("Run: %v", err)
	}

	p := e.Portfolio()
	if p.Position(call.Symbol()) != nil {
		t.Error("option position should be gone after assignment")
	}
	stock := p.Position("AAPL")
	if stock == nil || !stock.Amount().Equal(decimal.NewFromInt(200)) {
		t.Fatalf("stock position = %v, want 200 shares", stock)
	}
	// 100000 - 600 premium - 200*50 strike.
	if !p.Cash().Equal(decimal.NewFromInt(89400)) {
		t.Errorf("Cash() = %s, want 89400", p.Cash())
	}
}

func TestEngineMarksOptionsFromChain(t *testing.T) {
	var seq Sequencer
	expiration := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	call := NewOption("AAPL", expiration, decimal.NewFromInt(150), Call)

	e := NewEngine(decimal.Zero, nil)
	e.Quotes = chain.New([]chain.Quote{{
		Symbol: call.Symbol(),
		Time:   at(2024, 3, 5, 20),
		Bid:    decimal.NewFromInt(4),
		Ask:    decimal.NewFromInt(6),
	}})

	events := []Event{
		seq.NewCashFlowChange(at(2024, 3, 4, 10), decimal.NewFromInt(1000)),
		// 2 contracts at 3.00: 600.
		seq.NewFilledOrder(at(2024, 3, 4, 15), call, Buy,
			decimal.NewFromInt(2), decimal.NewFromInt(3), decimal.Zero),
		seq.NewCashFlowChange(at(2024, 3, 5, 21), decimal.Zero),
	}
	result, err := e.Run(events)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The option marks at the chain mid of 5: value 400 + position gain
	// of 400 over the 600 premium, so 1000 -> 1400.
	if len(result.PeriodReturns) != 1 || !almostEqual(result.PeriodReturns[0], 0.40) {
		t.Errorf("period returns = %v, want [0.40]", result.PeriodReturns)
	}
}

type bogusEvent struct{ base }

func TestEngineRejectsUnknownEvent(t *testing.T) {
	e := NewEngine(decimal.NewFromInt(1000), nil)
	err := e.Process(bogusEvent{})
	if !errors.Is(err, ErrUnsupportedEvent) {
		t.Fatalf("error = %v, want ErrUnsupportedEvent", err)
	}
}

func TestEngineRunStopsOnError(t *testing.T) {
	var seq Sequencer
	e := NewEngine(decimal.NewFromInt(100), nil)
	events := []Event{
		seq.NewFilledOrder(at(2024, 3, 4, 15), NewStock("AAPL"), Buy,
			decimal.NewFromInt(10), decimal.NewFromInt(100), decimal.Zero),
	}
	_, err := e.Run(events)
	if !errors.Is(err, ErrNegativeCash) {
		t.Fatalf("error = %v, want wrapped ErrNegativeCash", err)
	}
}
