package usecase

import (
	"sync"

	"PairPull/internal/domain/models"
)

// PerformanceMetrics summarizes every signal emitted since startup.
type PerformanceMetrics struct {
	TotalSignals    int64   `json:"totalSignals"`
	AvgConfidence   float64 `json:"avgConfidence"`
	AvgExpectedEdge float64 `json:"avgExpectedEdge"`
}

// PerformanceTracker accumulates per-signal confidence and expected
// edge as running sums, so memory stays flat regardless of uptime.
type PerformanceTracker struct {
	mu      sync.Mutex
	count   int64
	sumConf float64
	sumEdge float64
}

func NewPerformanceTracker() *PerformanceTracker { return &PerformanceTracker{} }

// Record folds one emitted signal into the aggregates.
func (t *PerformanceTracker) Record(sig *models.PairAnalysis) {
	if sig == nil {
		return
	}
	t.mu.Lock()
	t.count++
	t.sumConf += sig.Confidence
	t.sumEdge += sig.ExpectedEdge
	t.mu.Unlock()
}

// Metrics returns the current aggregates. Averages are 0 before the
// first signal.
func (t *PerformanceTracker) Metrics() PerformanceMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := PerformanceMetrics{TotalSignals: t.count}
	if t.count > 0 {
		m.AvgConfidence = t.sumConf / float64(t.count)
		m.AvgExpectedEdge = t.sumEdge / float64(t.count)
	}
	return m
}
