package engine

import (
	"time"

	"PairPull/internal/domain/models"
	domsvc "PairPull/internal/domain/service"
)

// Engine thresholds and bounds.
const (
	// MinHistoryPoints is the minimum history length for a symbol to enter
	// pair selection.
	MinHistoryPoints = 10
	// MaxHistoryPoints bounds per-symbol history. Keeps memory flat and the
	// rolling statistics representative of the recent regime.
	MaxHistoryPoints = 200
	// PairWindow is the trailing window both legs are aligned to.
	PairWindow = 100
	// MinCorrelation gates pairs by absolute Pearson correlation.
	MinCorrelation = 0.3
	// MinZScore gates pairs by absolute spread z-score.
	MinZScore = 0.5
)

// Config holds the engine's instrument universe and thresholds. The zero
// value falls back to the package constants.
type Config struct {
	Universe         []string
	MinHistoryPoints int
	PairWindow       int
	MinCorrelation   float64
	MinZScore        float64
}

func (c *Config) fill() {
	if c.MinHistoryPoints <= 0 {
		c.MinHistoryPoints = MinHistoryPoints
	}
	if c.PairWindow <= 0 {
		c.PairWindow = PairWindow
	}
	if c.MinCorrelation <= 0 {
		c.MinCorrelation = MinCorrelation
	}
	if c.MinZScore <= 0 {
		c.MinZScore = MinZScore
	}
}

// Engine is a single-instance pair-divergence signal engine: a bounded
// price history plus a serial O(k²) best-pair scan. One update cycle runs
// to completion before the next; ingestion writes and selection reads a
// consistent snapshot.
type Engine struct {
	cfg   Config
	store *HistoryStore
	costs domsvc.CostModel
	now   func() time.Time
}

// New creates an engine. costs must not be nil; inject a fixed model to
// keep selection deterministic.
func New(cfg Config, costs domsvc.CostModel) *Engine {
	cfg.fill()
	return &Engine{
		cfg:   cfg,
		store: NewHistoryStore(MaxHistoryPoints),
		costs: costs,
		now:   time.Now,
	}
}

// WithClock overrides the engine time source. Test hook.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	e.store.now = now
	return e
}

// UpdatePrices ingests a batch of observations into the history store.
func (e *Engine) UpdatePrices(points []*models.PricePoint) {
	e.store.Update(points)
}

// HistoryOf returns a copy of one symbol's rolling history.
func (e *Engine) HistoryOf(symbol string) []models.PricePoint {
	return e.store.HistoryOf(symbol)
}

// PairCount returns the number of instruments currently meeting the
// minimum-history threshold.
func (e *Engine) PairCount() int {
	return e.store.CountEligible(e.cfg.MinHistoryPoints)
}
