package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
)

func TestSignalRunnerComputeFansOut(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	pub := &fakePublisher{}
	bcast := &fakeBroadcaster{}
	metrics := newFakeMetrics()
	cache := testCache()

	r := NewSignalRunner(testLogger(t), testEngine("AAA", "BBB"), cache, store, metrics,
		WithPublisher(pub),
	)
	r.SetBroadcaster(bcast)

	r.IngestBatch(ctx, feed("AAA", ramp(20, 100)...))
	r.IngestBatch(ctx, feed("BBB", divergentRamp(20, 130)...))

	sig := r.ComputeNow(ctx)
	require.NotNil(t, sig)
	assert.Equal(t, "AAA", sig.PairA)
	assert.Equal(t, "BBB", sig.PairB)
	assert.Equal(t, models.SignalShortSpread, sig.SignalType)

	// in-memory state
	assert.Equal(t, sig, r.Latest())
	assert.False(t, r.LastComputeAt().IsZero())

	// serving cache
	b, ok, err := cache.GetBytes(CacheKeyBestSignal)
	require.NoError(t, err)
	require.True(t, ok)
	var cached models.PairAnalysis
	require.NoError(t, json.Unmarshal(b, &cached))
	assert.Equal(t, sig.PairA, cached.PairA)
	assert.Equal(t, sig.ZScore, cached.ZScore)

	// persistence, bus and websocket fan-out
	assert.Equal(t, 1, store.count())
	priceN, signalN := pub.counts()
	assert.Equal(t, 40, priceN)
	assert.Equal(t, 1, signalN)
	assert.Equal(t, 1, bcast.count())
	assert.Equal(t, 1, metrics.signals)
}

func TestSignalRunnerQueuePreferredOverStore(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	q := &fakeQueue{}

	r := NewSignalRunner(testLogger(t), testEngine("AAA", "BBB"), testCache(), store, newFakeMetrics(),
		WithQueue(q),
	)

	r.IngestBatch(ctx, feed("AAA", ramp(20, 100)...))
	r.IngestBatch(ctx, feed("BBB", divergentRamp(20, 130)...))

	require.NotNil(t, r.ComputeNow(ctx))
	assert.Equal(t, 1, q.count())
	assert.Equal(t, 0, store.count(), "inline store write must not happen when a queue is set")
}

func TestSignalRunnerNoSignal(t *testing.T) {
	ctx := context.Background()
	bcast := &fakeBroadcaster{}

	r := NewSignalRunner(testLogger(t), testEngine("AAA", "BBB"), testCache(), &fakeStore{}, newFakeMetrics())
	r.SetBroadcaster(bcast)

	// below the minimum history threshold
	r.IngestBatch(ctx, feed("AAA", ramp(5, 100)...))
	r.IngestBatch(ctx, feed("BBB", ramp(5, 100)...))

	assert.Nil(t, r.ComputeNow(ctx))
	assert.Nil(t, r.Latest())
	assert.Equal(t, 0, bcast.count())
}

func TestSignalRunnerLatestPricesSorted(t *testing.T) {
	ctx := context.Background()
	r := NewSignalRunner(testLogger(t), testEngine("AAA", "BBB"), testCache(), &fakeStore{}, newFakeMetrics())

	r.IngestBatch(ctx, feed("ZZZ", 10))
	r.IngestBatch(ctx, feed("AAA", 20))
	r.IngestBatch(ctx, feed("MMM", 30))

	prices := r.LatestPrices()
	require.Len(t, prices, 3)
	assert.Equal(t, "AAA", prices[0].Symbol)
	assert.Equal(t, "MMM", prices[1].Symbol)
	assert.Equal(t, "ZZZ", prices[2].Symbol)
}

func TestSignalRunnerRunDebounces(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bcast := &fakeBroadcaster{}
	r := NewSignalRunner(testLogger(t), testEngine("AAA", "BBB"), testCache(), &fakeStore{}, newFakeMetrics(),
		WithScanInterval(10*time.Millisecond),
	)
	r.SetBroadcaster(bcast)

	r.IngestBatch(ctx, feed("AAA", ramp(20, 100)...))
	r.IngestBatch(ctx, feed("BBB", divergentRamp(20, 130)...))

	go r.Run(ctx)

	require.Eventually(t, func() bool { return bcast.count() == 1 },
		time.Second, 5*time.Millisecond, "dirty state should trigger exactly one compute")

	// no further ingestion, no further computes
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, bcast.count())
}

func TestSignalRunnerProcessImplementsProc(t *testing.T) {
	ctx := context.Background()
	metrics := newFakeMetrics()
	r := NewSignalRunner(testLogger(t), testEngine("AAA"), testCache(), &fakeStore{}, metrics)

	require.NoError(t, r.Process(ctx, feed("AAA", 101)[0]))
	assert.Equal(t, 1, metrics.prices)
	assert.Len(t, r.HistoryOf("AAA"), 1)
}
