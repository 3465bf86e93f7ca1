package backtest

import "fmt"

// Period is the sampling frequency of a series of returns.
type Period int

const (
	Daily Period = iota
	Weekly
	Monthly
)

// periodsPerYear holds the annualization factor for each frequency. Weekly
// uses the conventional 52.1429 weeks per year.
var periodsPerYear = map[Period]float64{
	Daily:   365,
	Weekly:  52.1429,
	Monthly: 12,
}

func (p Period) String() string {
	switch p {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return fmt.Sprintf("Period(%d)", int(p))
	}
}

// ParsePeriod parses the textual form produced by Period.String.
func ParsePeriod(s string) (Period, error) {
	switch s {
	case "daily", "day":
		return Daily, nil
	case "weekly", "week":
		return Weekly, nil
	case "monthly", "month":
		return Monthly, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFrequency, s)
	}
}

// PerYear returns how many periods of this frequency make a year.
func (p Period) PerYear() (float64, error) {
	n, ok := periodsPerYear[p]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedFrequency, p)
	}
	return n, nil
}
