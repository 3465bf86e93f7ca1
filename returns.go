package backtest

import "math"

// SimpleReturn returns the relative change from start to end: 0.10 means a
// 10% gain. It is NaN when start is zero.
func SimpleReturn(start, end float64) float64 {
	return end/start - 1
}

// TimeWeightedReturn compounds a series of period returns sampled at the
// given frequency and annualizes the result. It strips out the timing of
// external cash flows: each element is the return of one period between two
// consecutive flow boundaries.
//
// An empty series returns zero.
func TimeWeightedReturn(returns []float64, period Period) (float64, error) {
	perYear, err := period.PerYear()
	if err != nil {
		return 0, err
	}
	if len(returns) == 0 {
		return 0, nil
	}
	growth := 1.0
	for _, r := range returns {
		growth *= 1 + r
	}
	years := float64(len(returns)) / perYear
	return math.Pow(growth, 1/years) - 1, nil
}

// MaxDrawdown returns the largest peak-to-trough decline over a series of
// portfolio values, as a non-positive ratio: -0.25 means the portfolio at
// some point stood 25% below its running peak. It is zero for a series that
// never declines or has fewer than two points.
func MaxDrawdown(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	peak := values[0]
	worst := 0.0
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if peak == 0 {
			continue
		}
		if dd := (v - peak) / peak; dd < worst {
			worst = dd
		}
	}
	return worst
}
