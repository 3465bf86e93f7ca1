package backtest

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSimpleReturn(t *testing.T) {
	tests := []struct {
		start, end, want float64
	}{
		{100, 110, 0.10},
		{100, 90, -0.10},
		{100, 100, 0},
		{50, 100, 1},
	}
	for _, tc := range tests {
		if got := SimpleReturn(tc.start, tc.end); !almostEqual(got, tc.want) {
			t.Errorf("SimpleReturn(%v, %v) = %v, want %v", tc.start, tc.end, got, tc.want)
		}
	}
}

func TestTimeWeightedReturn(t *testing.T) {
	// 365 daily periods of 0.1% compound to (1.001)^365 over exactly one
	// year, so the annualized return is the compounded growth itself.
	returns := make([]float64, 365)
	for i := range returns {
		returns[i] = 0.001
	}
	got, err := TimeWeightedReturn(returns, Daily)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Pow(1.001, 365) - 1
	if !almostEqual(got, want) {
		t.Errorf("TimeWeightedReturn = %v, want %v", got, want)
	}
}

func TestTimeWeightedReturnAnnualizes(t *testing.T) {
	// A single monthly period of 1% annualizes to (1.01)^12 - 1.
	got, err := TimeWeightedReturn([]float64{0.01}, Monthly)
	if err != nil {
		t.Fatal(err)
	}
	want := math.Pow(1.01, 12) - 1
	if !almostEqual(got, want) {
		t.Errorf("TimeWeightedReturn = %v, want %v", got, want)
	}
}

func TestTimeWeightedReturnEmpty(t *testing.T) {
	got, err := TimeWeightedReturn(nil, Weekly)
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Errorf("TimeWeightedReturn(nil) = %v, want 0", got)
	}
}

func TestTimeWeightedReturnBadFrequency(t *testing.T) {
	_, err := TimeWeightedReturn([]float64{0.01}, Period(42))
	if !errors.Is(err, ErrUnsupportedFrequency) {
		t.Fatalf("error = %v, want ErrUnsupportedFrequency", err)
	}
}

func TestMaxDrawdown(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   float64
	}{
		{"trough below second peak", []float64{100, 120, 90, 95, 80, 130}, -(1.0 / 3.0)},
		{"monotonic rise", []float64{100, 110, 120}, 0},
		{"single value", []float64{100}, 0},
		{"empty", nil, 0},
		{"full round trip", []float64{100, 50, 100}, -0.5},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MaxDrawdown(tc.values); !almostEqual(got, tc.want) {
				t.Errorf("MaxDrawdown(%v) = %v, want %v", tc.values, got, tc.want)
			}
		})
	}
}

func TestParsePeriod(t *testing.T) {
	for _, p := range []Period{Daily, Weekly, Monthly} {
		got, err := ParsePeriod(p.String())
		if err != nil {
			t.Fatalf("ParsePeriod(%q): %v", p.String(), err)
		}
		if got != p {
			t.Errorf("ParsePeriod(%q) = %v, want %v", p.String(), got, p)
		}
	}
	if _, err := ParsePeriod("hourly"); !errors.Is(err, ErrUnsupportedFrequency) {
		t.Errorf("ParsePeriod(\"hourly\") error = %v, want ErrUnsupportedFrequency", err)
	}
}
