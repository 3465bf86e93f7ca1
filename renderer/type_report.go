package renderer

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/etnz/backtest"
)

// Report is the view model for a backtest report. All fields are
// pre-formatted strings, ready for the templates.
type Report struct {
	Name   string
	AsOf   string
	Period string

	FinalValue  string
	Cash        string
	NetCashFlow string

	TimeWeightedReturn string
	MaxDrawdown        string
	Fills              int

	Positions []PositionRow
	Returns   []ReturnRow
}

// PositionRow is one open position line in a report.
type PositionRow struct {
	Symbol     string
	Amount     string
	AvgEntry   string
	Value      string
	Unrealized string
}

// ReturnRow is one period return line in a report.
type ReturnRow struct {
	Period int
	Return string
}

// NewReport builds the view model from a run result. Period is the sampling
// frequency the run's cash flows follow; it drives the annualization of the
// time-weighted return.
func NewReport(name string, result *backtest.Result, period backtest.Period) (*Report, error) {
	twr, err := result.TimeWeightedReturn(period)
	if err != nil {
		return nil, err
	}

	r := &Report{
		Name:               name,
		Period:             period.String(),
		FinalValue:         usd(result.Portfolio.Value()),
		Cash:               usd(result.Portfolio.Cash()),
		NetCashFlow:        usd(result.Portfolio.NetCashFlow()),
		TimeWeightedReturn: percent(twr),
		MaxDrawdown:        percent(result.MaxDrawdown()),
		Fills:              len(result.Snapshots),
	}
	if n := len(result.Snapshots); n > 0 {
		r.AsOf = result.Snapshots[n-1].Time.Format("2006-01-02")
	}

	for _, symbol := range result.Portfolio.Symbols() {
		pos := result.Portfolio.Position(symbol)
		if pos.Amount().IsZero() {
			continue
		}
		r.Positions = append(r.Positions, PositionRow{
			Symbol:     symbol,
			Amount:     pos.Amount().String(),
			AvgEntry:   usd(pos.AverageEntryPrice()),
			Value:      usd(pos.Value()),
			Unrealized: usd(pos.UnrealizedPNL()),
		})
	}
	for i, ret := range result.PeriodReturns {
		r.Returns = append(r.Returns, ReturnRow{Period: i + 1, Return: percent(ret)})
	}
	return r, nil
}

// usd formats a decimal amount as US dollars.
func usd(d decimal.Decimal) string {
	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	return money.New(cents, money.USD).Display()
}

// percent formats a ratio as a signed percentage.
func percent(v float64) string {
	return fmt.Sprintf("%+.2f%%", v*100)
}
