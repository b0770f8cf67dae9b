package engine

import (
	"time"

	"PairPull/internal/domain/models"
)

// PercentageChanges computes trailing 1h/6h/24h percentage changes for a
// history, most-recent-last. For each window it walks backward from the
// second-to-last point looking for the latest sample at or before
// T − window; when no such sample exists the reference defaults to the
// current price, yielding a 0% change. Nearest-prior-sample lookup, not
// interpolation: fine at sub-minute sampling density.
func PercentageChanges(history []models.PricePoint) models.PctChanges {
	if len(history) == 0 {
		return models.PctChanges{}
	}
	last := history[len(history)-1]
	return models.PctChanges{
		Change1h:  changeOver(history, last, time.Hour),
		Change6h:  changeOver(history, last, 6*time.Hour),
		Change24h: changeOver(history, last, 24*time.Hour),
	}
}

func changeOver(history []models.PricePoint, last models.PricePoint, window time.Duration) float64 {
	cutoff := last.Timestamp.Add(-window)
	ref := last.Price
	for i := len(history) - 2; i >= 0; i-- {
		if !history[i].Timestamp.After(cutoff) {
			ref = history[i].Price
			break
		}
	}
	if ref == 0 {
		return 0
	}
	return (last.Price - ref) / ref * 100
}
