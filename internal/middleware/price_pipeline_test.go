package middleware

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
)

type recordingProc struct {
	mu     sync.Mutex
	points []*models.PricePoint
	err    error
}

func (r *recordingProc) Process(ctx context.Context, p *models.PricePoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.points = append(r.points, p)
	return nil
}

func (r *recordingProc) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.points)
}

type noopMetrics struct{}

func (noopMetrics) RecordPriceUpdate(symbol, source string, price float64) {}
func (noopMetrics) RecordSignal(pairA, pairB, signalType string)           {}
func (noopMetrics) RecordError(kind string)                                {}
func (noopMetrics) RecordLatency(op string, seconds float64)               {}

func validPoint(symbol string) *models.PricePoint {
	return &models.PricePoint{Symbol: symbol, Price: 100, Timestamp: time.Now(), Source: models.SourceSynthetic}
}

func TestPipelineForwardsValidPoints(t *testing.T) {
	proc := &recordingProc{}
	p := NewPricePipeline(proc, noopMetrics{})

	require.NoError(t, p.Process(context.Background(), validPoint("BTC")))
	assert.Equal(t, 1, proc.count())
}

func TestPipelineRejectsInvalid(t *testing.T) {
	proc := &recordingProc{}
	p := NewPricePipeline(proc, noopMetrics{})

	assert.Error(t, p.Process(context.Background(), nil))
	assert.Error(t, p.Process(context.Background(), &models.PricePoint{Symbol: "", Price: 1}))
	assert.Error(t, p.Process(context.Background(), &models.PricePoint{Symbol: "BTC", Price: 0}))
	assert.Error(t, p.Process(context.Background(), &models.PricePoint{Symbol: "BTC", Price: -5}))
	assert.Equal(t, 0, proc.count())
}

func TestPipelineThrottlesPerSymbol(t *testing.T) {
	proc := &recordingProc{}
	p := NewPricePipeline(proc, noopMetrics{}, WithMaxRPS(1))

	// Two points within the same second for one symbol: second dropped.
	require.NoError(t, p.Process(context.Background(), validPoint("BTC")))
	require.NoError(t, p.Process(context.Background(), validPoint("BTC")))
	assert.Equal(t, 1, proc.count())

	// A different symbol is not affected.
	require.NoError(t, p.Process(context.Background(), validPoint("ETH")))
	assert.Equal(t, 2, proc.count())
}

func TestPipelineBuffersOnDownstreamError(t *testing.T) {
	proc := &recordingProc{err: errors.New("downstream down")}
	p := NewPricePipeline(proc, noopMetrics{}, WithBufferSize(4))

	err := p.Process(context.Background(), validPoint("BTC"))
	assert.Error(t, err)
	assert.Equal(t, 1, len(p.bufCh), "failed point parked in buffer")
}

func TestPipelineTransform(t *testing.T) {
	proc := &recordingProc{}
	p := NewPricePipeline(proc, noopMetrics{}, WithTransform(func(pt *models.PricePoint) *models.PricePoint {
		pt.Source = models.SourceReplay
		return pt
	}))

	require.NoError(t, p.Process(context.Background(), validPoint("BTC")))
	require.Equal(t, 1, proc.count())
	assert.Equal(t, models.SourceReplay, proc.points[0].Source)
}
