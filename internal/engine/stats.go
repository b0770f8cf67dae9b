package engine

import "math"

// Pure statistics over aligned price series (most-recent-last). Degenerate
// inputs produce defined neutral values instead of errors: 0 correlation,
// 1 hedge ratio, 0 z-score. Callers still check for NaN before gating.

// Correlation returns the Pearson correlation coefficient
// r = (nΣxy − ΣxΣy) / sqrt((nΣx² − (Σx)²)(nΣy² − (Σy)²)).
// Returns 0 if lengths differ, n < 2, or either series has no variance.
func Correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 0
	}
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2, sumY2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
		sumY2 += y[i] * y[i]
	}
	den := math.Sqrt((n*sumX2 - sumX*sumX) * (n*sumY2 - sumY*sumY))
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

// HedgeRatio returns the OLS slope β of y regressed on x (y ≈ β·x + α).
// Returns 1 (the no-hedge identity) when inputs are degenerate or x has
// no variance.
func HedgeRatio(x, y []float64) float64 {
	if len(x) != len(y) || len(x) < 2 {
		return 1
	}
	n := float64(len(x))
	var sumX, sumY, sumXY, sumX2 float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumX2 += x[i] * x[i]
	}
	den := n*sumX2 - sumX*sumX
	if den == 0 {
		return 1
	}
	return (n*sumXY - sumX*sumY) / den
}

// Spread returns the elementwise y[i] − β·x[i].
func Spread(x, y []float64, beta float64) []float64 {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = y[i] - beta*x[i]
	}
	return out
}

// Mean returns the arithmetic mean, or 0 for an empty series.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, v := range xs {
		sum += v
	}
	return sum / float64(len(xs))
}

// StdDev returns the population standard deviation.
func StdDev(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	mean := Mean(xs)
	var ss float64
	for _, v := range xs {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(xs)))
}

// ZScore returns (current − mean(series)) / stddev(series) using the
// population standard deviation. Returns 0 if the series is shorter than
// 2 points or has zero deviation.
func ZScore(series []float64, current float64) float64 {
	if len(series) < 2 {
		return 0
	}
	sd := StdDev(series)
	if sd == 0 {
		return 0
	}
	return (current - Mean(series)) / sd
}
