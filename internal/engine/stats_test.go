package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCorrelationSelf(t *testing.T) {
	x := []float64{100, 101, 103, 102, 105, 107}
	assert.InDelta(t, 1.0, Correlation(x, x), 1e-9)
}

func TestCorrelationInverse(t *testing.T) {
	x := []float64{1, 2, 3, 4, 5}
	y := []float64{5, 4, 3, 2, 1}
	assert.InDelta(t, -1.0, Correlation(x, y), 1e-9)
}

func TestCorrelationZeroVariance(t *testing.T) {
	flat := []float64{100, 100, 100, 100}
	ramp := []float64{100, 101, 102, 103}

	// Exactly 0, never NaN.
	assert.Equal(t, 0.0, Correlation(flat, ramp))
	assert.Equal(t, 0.0, Correlation(ramp, flat))
	assert.Equal(t, 0.0, Correlation(flat, flat))
}

func TestCorrelationDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, Correlation(nil, nil))
	assert.Equal(t, 0.0, Correlation([]float64{1}, []float64{2}))
	assert.Equal(t, 0.0, Correlation([]float64{1, 2}, []float64{1, 2, 3}))
}

func TestHedgeRatioSelf(t *testing.T) {
	x := []float64{100, 101, 103, 102, 105}
	assert.InDelta(t, 1.0, HedgeRatio(x, x), 1e-9)
}

func TestHedgeRatioHalfSlope(t *testing.T) {
	// y moves half as much as x per step.
	x := make([]float64, 15)
	y := make([]float64, 15)
	for i := range x {
		x[i] = 100 + float64(i)
		y[i] = 100 + 0.5*float64(i)
	}
	assert.InDelta(t, 0.5, HedgeRatio(x, y), 1e-9)
	assert.InDelta(t, 1.0, Correlation(x, y), 1e-9)
}

func TestHedgeRatioIdentityFallback(t *testing.T) {
	flat := []float64{100, 100, 100}
	ramp := []float64{1, 2, 3}

	// Zero variance in x or degenerate input falls back to the no-hedge
	// identity.
	assert.Equal(t, 1.0, HedgeRatio(flat, ramp))
	assert.Equal(t, 1.0, HedgeRatio(nil, nil))
	assert.Equal(t, 1.0, HedgeRatio([]float64{1}, []float64{2}))
}

func TestSpread(t *testing.T) {
	x := []float64{10, 20, 30}
	y := []float64{25, 45, 65}
	got := Spread(x, y, 2)
	require.Len(t, got, 3)
	assert.Equal(t, []float64{5, 5, 5}, got)
}

func TestZScore(t *testing.T) {
	series := []float64{1, 2, 3, 4, 5}
	// mean 3, population stddev sqrt(2)
	assert.InDelta(t, 2/math.Sqrt2, ZScore(series, 5), 1e-9)
	assert.InDelta(t, 0.0, ZScore(series, 3), 1e-9)
}

func TestZScoreDegenerate(t *testing.T) {
	assert.Equal(t, 0.0, ZScore(nil, 10))
	assert.Equal(t, 0.0, ZScore([]float64{5}, 10))
	assert.Equal(t, 0.0, ZScore([]float64{5, 5, 5}, 10))
}

func TestStdDevPopulation(t *testing.T) {
	// Population, not sample: divisor n.
	assert.InDelta(t, math.Sqrt(2), StdDev([]float64{1, 2, 3, 4, 5}), 1e-9)
	assert.Equal(t, 0.0, StdDev([]float64{7}))
}
