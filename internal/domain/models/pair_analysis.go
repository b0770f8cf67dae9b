package models

import "time"

// SignalType is the direction of the mean-reversion trade on the spread.
type SignalType string

const (
	// SignalShortSpread: spread above its historical mean, short B / long A.
	SignalShortSpread SignalType = "SHORT_SPREAD"
	// SignalLongSpread: spread below its historical mean, long B / short A.
	SignalLongSpread SignalType = "LONG_SPREAD"
)

// PctChanges holds trailing percentage changes for one leg.
type PctChanges struct {
	Change1h  float64 `json:"change1h"`
	Change6h  float64 `json:"change6h"`
	Change24h float64 `json:"change24h"`
}

// PairLegs groups a per-leg value for the two instruments of a pair.
type PairLegs[T any] struct {
	A T `json:"a"`
	B T `json:"b"`
}

// PairAnalysis is the full payload for the best divergent pair.
// Built fresh on each selection run and never mutated afterwards;
// ownership passes to the caller.
type PairAnalysis struct {
	PairA string `json:"pairA"`
	PairB string `json:"pairB"`

	HedgeRatio  float64 `json:"hedgeRatio"`
	Correlation float64 `json:"correlation"`
	ZScore      float64 `json:"zScore"`
	// Confidence is bounded to [0, 0.99).
	Confidence float64 `json:"confidence"`
	// ExpectedEdge is the gross expected profit in basis points.
	ExpectedEdge float64    `json:"expectedEdge"`
	SignalType   SignalType `json:"signalType"`

	PriceHistory  PairLegs[[]ChartPoint] `json:"priceHistory"`
	CurrentPrices PairLegs[float64]      `json:"currentPrices"`
	PctChanges    PairLegs[PctChanges]   `json:"pctChanges"`

	DivergenceScore float64 `json:"divergenceScore"`

	// Cost model outputs, all in basis points.
	Fees     float64 `json:"fees"`
	Funding  float64 `json:"funding"`
	Slippage float64 `json:"slippage"`
	NetEdge  float64 `json:"netEdge"`

	Timestamp time.Time `json:"timestamp"`
}

// WindowPair is the best pair over one trailing window, ranked by the
// absolute cross-leg percentage-change gap. Sides map each leg to the
// direction of the reversion trade; PctChange values are fractional.
type WindowPair struct {
	Window    string            `json:"window"`
	Pair      PairLegs[string]  `json:"pair"`
	Sides     PairLegs[string]  `json:"sides"`
	PctChange PairLegs[float64] `json:"pctChange"`
}
