package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"PairPull/internal/domain/models"
	"PairPull/internal/engine"
	icache "PairPull/internal/service/cache"
	"PairPull/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type stubCosts struct{ fees, funding, slip float64 }

func (c stubCosts) Fees(a, b string) float64     { return c.fees }
func (c stubCosts) Funding(a, b string) float64  { return c.funding }
func (c stubCosts) Slippage(a, b string) float64 { return c.slip }

type fakeMetrics struct {
	mu      sync.Mutex
	prices  int
	signals int
	errors  map[string]int
}

func newFakeMetrics() *fakeMetrics {
	return &fakeMetrics{errors: make(map[string]int)}
}

func (m *fakeMetrics) RecordPriceUpdate(symbol, source string, price float64) {
	m.mu.Lock()
	m.prices++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordSignal(pairA, pairB, signalType string) {
	m.mu.Lock()
	m.signals++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordError(kind string) {
	m.mu.Lock()
	m.errors[kind]++
	m.mu.Unlock()
}

func (m *fakeMetrics) RecordLatency(op string, seconds float64) {}

func (m *fakeMetrics) errorCount(kind string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errors[kind]
}

type fakeStore struct {
	mu     sync.Mutex
	stored []*models.PairAnalysis
}

func (s *fakeStore) Init(ctx context.Context) error { return nil }

func (s *fakeStore) Store(ctx context.Context, sig *models.PairAnalysis) error {
	s.mu.Lock()
	s.stored = append(s.stored, sig)
	s.mu.Unlock()
	return nil
}

func (s *fakeStore) Recent(ctx context.Context, limit int) ([]*models.PairAnalysis, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*models.PairAnalysis(nil), s.stored...), nil
}

func (s *fakeStore) Health(ctx context.Context) error { return nil }
func (s *fakeStore) Close() error                     { return nil }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.stored)
}

type fakePublisher struct {
	mu      sync.Mutex
	prices  int
	signals int
}

func (p *fakePublisher) PublishPrices(ctx context.Context, points []*models.PricePoint) error {
	p.mu.Lock()
	p.prices += len(points)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) PublishSignal(ctx context.Context, sig *models.PairAnalysis) error {
	p.mu.Lock()
	p.signals++
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func (p *fakePublisher) counts() (int, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prices, p.signals
}

type fakeBroadcaster struct {
	mu     sync.Mutex
	events []string
}

func (b *fakeBroadcaster) Broadcast(event string, payload interface{}) {
	b.mu.Lock()
	b.events = append(b.events, event)
	b.mu.Unlock()
}

func (b *fakeBroadcaster) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

type fakeQueue struct {
	mu    sync.Mutex
	types []string
}

func (q *fakeQueue) PublishMessage(ctx context.Context, msgType string, payload interface{}) error {
	q.mu.Lock()
	q.types = append(q.types, msgType)
	q.mu.Unlock()
	return nil
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.types)
}

func testEngine(universe ...string) *engine.Engine {
	return engine.New(engine.Config{Universe: universe}, stubCosts{fees: 2, funding: 1, slip: 0.5})
}

func testCache() icache.BytesCache { return icache.NewTTLCache() }

// feed builds minute-spaced points ending at now.
func feed(symbol string, prices ...float64) []*models.PricePoint {
	end := time.Now().UTC()
	out := make([]*models.PricePoint, len(prices))
	for i, p := range prices {
		out[i] = &models.PricePoint{
			Symbol:    symbol,
			Price:     p,
			Timestamp: end.Add(-time.Duration(len(prices)-1-i) * time.Minute),
			Source:    models.SourceHyperliquidWS,
		}
	}
	return out
}

func ramp(n int, start float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// divergentRamp keeps a linear trend but jolts the last observation so
// the spread z-score clears the gate.
func divergentRamp(n int, last float64) []float64 {
	out := ramp(n, 100)
	out[n-1] = last
	return out
}
