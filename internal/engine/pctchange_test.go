package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"PairPull/internal/domain/models"
)

func series(symbol string, base time.Time, step time.Duration, prices ...float64) []models.PricePoint {
	out := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = models.PricePoint{Symbol: symbol, Price: p, Timestamp: base.Add(time.Duration(i) * step)}
	}
	return out
}

func TestPercentageChangesEmpty(t *testing.T) {
	assert.Equal(t, models.PctChanges{}, PercentageChanges(nil))
}

func TestPercentageChangesInsideWindow(t *testing.T) {
	// 30 points 1 minute apart: the whole history is inside every window,
	// so each reference defaults to the current price and changes are 0.
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	h := make([]float64, 30)
	for i := range h {
		h[i] = 100 + float64(i)
	}
	got := PercentageChanges(series("BTC", base, time.Minute, h...))
	assert.Equal(t, models.PctChanges{}, got)
}

func TestPercentageChangesPicksLatestPriorSample(t *testing.T) {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	// 30-minute spacing over 25 points: ~12.5h of history. Price climbs
	// 1 per step from 100.
	h := make([]float64, 25)
	for i := range h {
		h[i] = 100 + float64(i)
	}
	got := PercentageChanges(series("BTC", base, 30*time.Minute, h...))

	// Last point t=12h price 124. 1h window cutoff t=11h -> sample at
	// index 22 (price 122); 6h cutoff t=6h -> index 12 (price 112);
	// 24h precedes history -> reference defaults to current.
	assert.InDelta(t, (124.0-122.0)/122.0*100, got.Change1h, 1e-9)
	assert.InDelta(t, (124.0-112.0)/112.0*100, got.Change6h, 1e-9)
	assert.Equal(t, 0.0, got.Change24h)
}

func TestPercentageChangesZeroReference(t *testing.T) {
	base := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	got := PercentageChanges(series("X", base, 2*time.Hour, 0, 50))
	assert.Equal(t, 0.0, got.Change1h)
	assert.Equal(t, 0.0, got.Change6h)
}
