package engine

import (
	"math"

	"PairPull/internal/domain/models"
)

// Divergence score weights for the cross-leg percentage-change terms.
const (
	weight1h  = 0.1
	weight6h  = 0.05
	weight24h = 0.025
)

// FindBestDivergentPair scans every unordered pair of eligible symbols
// and returns the one with the highest divergence score, or nil when
// fewer than two symbols are eligible or no pair clears the correlation
// and z-score gates. It never fails; degenerate numerics yield neutral
// values upstream and are filtered here.
//
// Enumeration is i ascending then j ascending over the snapshot's symbol
// order, and only a strictly greater score displaces the running best, so
// the result is deterministic for a given history snapshot.
func (e *Engine) FindBestDivergentPair() *models.PairAnalysis {
	symbols, histories := e.store.snapshotEligible(e.cfg.Universe, e.cfg.MinHistoryPoints)
	if len(symbols) < 2 {
		return nil
	}

	var best *models.PairAnalysis
	bestScore := math.Inf(-1)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			score, ok := e.scorePair(histories[symbols[i]], histories[symbols[j]])
			if !ok || score <= bestScore {
				continue
			}
			bestScore = score
			best = e.analyzePair(symbols[i], symbols[j], histories[symbols[i]], histories[symbols[j]], score)
		}
	}
	return best
}

// scorePair runs the correlation and z-score gates on the aligned trailing
// window and returns the divergence score. ok is false when the pair is
// filtered out.
func (e *Engine) scorePair(histA, histB []models.PricePoint) (float64, bool) {
	a, b := alignWindow(histA, histB, e.cfg.PairWindow)
	x, y := prices(a), prices(b)

	corr := Correlation(x, y)
	if math.IsNaN(corr) || math.Abs(corr) < e.cfg.MinCorrelation {
		return 0, false
	}

	beta := HedgeRatio(x, y)
	spread := Spread(x, y, beta)
	z := ZScore(spread, spread[len(spread)-1])
	if math.IsNaN(z) || math.Abs(z) < e.cfg.MinZScore {
		return 0, false
	}

	pctA := PercentageChanges(a)
	pctB := PercentageChanges(b)
	score := math.Abs(z) +
		weight1h*math.Abs(pctA.Change1h-pctB.Change1h) +
		weight6h*math.Abs(pctA.Change6h-pctB.Change6h) +
		weight24h*math.Abs(pctA.Change24h-pctB.Change24h)
	return score, true
}

// analyzePair recomputes the full signal payload for a winning pair.
func (e *Engine) analyzePair(symA, symB string, histA, histB []models.PricePoint, score float64) *models.PairAnalysis {
	a, b := alignWindow(histA, histB, e.cfg.PairWindow)
	x, y := prices(a), prices(b)

	corr := Correlation(x, y)
	beta := HedgeRatio(x, y)
	spread := Spread(x, y, beta)
	z := ZScore(spread, spread[len(spread)-1])

	// Saturating confidence: grows with correlation strength and
	// divergence magnitude, capped below 0.99.
	confidence := math.Min(0.99, math.Abs(corr)*(1-math.Exp(-math.Abs(z)/2)))
	volatility := StdDev(spread)
	edge := math.Abs(z) * volatility * confidence * 100

	signalType := models.SignalLongSpread
	if z > 0 {
		signalType = models.SignalShortSpread
	}

	fees := e.costs.Fees(symA, symB)
	funding := e.costs.Funding(symA, symB)
	slippage := e.costs.Slippage(symA, symB)

	return &models.PairAnalysis{
		PairA:           symA,
		PairB:           symB,
		HedgeRatio:      beta,
		Correlation:     corr,
		ZScore:          z,
		Confidence:      confidence,
		ExpectedEdge:    edge,
		SignalType:      signalType,
		PriceHistory:    models.PairLegs[[]models.ChartPoint]{A: chart(a), B: chart(b)},
		CurrentPrices:   models.PairLegs[float64]{A: x[len(x)-1], B: y[len(y)-1]},
		PctChanges:      models.PairLegs[models.PctChanges]{A: PercentageChanges(a), B: PercentageChanges(b)},
		DivergenceScore: score,
		Fees:            fees,
		Funding:         funding,
		Slippage:        slippage,
		NetEdge:         edge - fees - funding - slippage,
		Timestamp:       e.now(),
	}
}

// windowMinPoints is the per-leg minimum for the window scan. Looser
// than MinHistoryPoints: the window ranking is advisory and tolerates
// thin series.
const windowMinPoints = 5

// BestWindowPair scans all tracked pairs over the trailing n points and
// returns the one with the largest absolute gap between the two legs'
// percentage changes, with trade sides derived from the window spread's
// z-score. No correlation or z-score gates apply. Returns nil when
// fewer than two symbols have enough data.
func (e *Engine) BestWindowPair(points int) *models.WindowPair {
	symbols, histories := e.store.snapshotEligible(e.cfg.Universe, windowMinPoints)
	if len(symbols) < 2 {
		return nil
	}

	var best *models.WindowPair
	bestScore := math.Inf(-1)
	for i := 0; i < len(symbols); i++ {
		for j := i + 1; j < len(symbols); j++ {
			a, b := alignWindow(histories[symbols[i]], histories[symbols[j]], points)
			x, y := prices(a), prices(b)
			if len(x) < 2 {
				continue
			}
			beta := HedgeRatio(x, y)
			spread := Spread(x, y, beta)
			z := ZScore(spread, spread[len(spread)-1])

			pctA := windowChange(x)
			pctB := windowChange(y)
			score := math.Abs(pctB - pctA)
			if math.IsNaN(score) || score <= bestScore {
				continue
			}
			bestScore = score

			// Positive z: spread above its mean, so short B / long A.
			sides := models.PairLegs[string]{A: "SHORT", B: "LONG"}
			if z > 0 {
				sides = models.PairLegs[string]{A: "LONG", B: "SHORT"}
			}
			best = &models.WindowPair{
				Pair:      models.PairLegs[string]{A: symbols[i], B: symbols[j]},
				Sides:     sides,
				PctChange: models.PairLegs[float64]{A: pctA, B: pctB},
			}
		}
	}
	return best
}

// windowChange is the fractional first-to-last change over the window.
func windowChange(xs []float64) float64 {
	base := math.Abs(xs[0])
	if base < 1e-9 {
		base = 1e-9
	}
	return (xs[len(xs)-1] - xs[0]) / base
}

// alignWindow trims both histories to the common trailing window
// min(len(a), len(b), limit).
func alignWindow(a, b []models.PricePoint, limit int) ([]models.PricePoint, []models.PricePoint) {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return a[len(a)-n:], b[len(b)-n:]
}

func prices(h []models.PricePoint) []float64 {
	out := make([]float64, len(h))
	for i, p := range h {
		out[i] = p.Price
	}
	return out
}

func chart(h []models.PricePoint) []models.ChartPoint {
	out := make([]models.ChartPoint, len(h))
	for i, p := range h {
		out[i] = models.ChartPoint{T: p.Timestamp, P: p.Price}
	}
	return out
}
