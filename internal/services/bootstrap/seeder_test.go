package bootstrap

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
	"PairPull/pkg/logger"
)

type fakeIngestor struct {
	mu     sync.Mutex
	points []*models.PricePoint
	live   []*models.PricePoint
}

func (f *fakeIngestor) IngestBatch(ctx context.Context, points []*models.PricePoint) {
	f.mu.Lock()
	f.points = append(f.points, points...)
	f.mu.Unlock()
}

func (f *fakeIngestor) PairCount() int { return 0 }

func (f *fakeIngestor) LatestPrices() []*models.PricePoint { return f.live }

func (f *fakeIngestor) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.points)
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)
	return l
}

func TestGenerateShape(t *testing.T) {
	s := New(testLogger(t), &fakeIngestor{}, []string{"BTC", "ZZZ"}, time.Second, 1)
	end := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	batch := s.Generate(end)
	require.Len(t, batch, 60)

	// first 30 points are BTC, minute spaced, ending at end
	assert.Equal(t, "BTC", batch[0].Symbol)
	assert.Equal(t, end.Add(-29*time.Minute), batch[0].Timestamp)
	assert.Equal(t, end, batch[29].Timestamp)
	assert.Equal(t, models.SourceSynthetic, batch[0].Source)

	// unknown symbol walks off the default base
	assert.Equal(t, "ZZZ", batch[30].Symbol)
	assert.InDelta(t, 100, batch[30].Price, 5)

	for _, pt := range batch {
		assert.Greater(t, pt.Price, 0.0)
	}
}

func TestGenerateDeterministicPerSeed(t *testing.T) {
	end := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	a := New(testLogger(t), &fakeIngestor{}, []string{"ETH"}, time.Second, 7).Generate(end)
	b := New(testLogger(t), &fakeIngestor{}, []string{"ETH"}, time.Second, 7).Generate(end)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i].Price, b[i].Price)
	}
}

func TestRunSeedsAfterGrace(t *testing.T) {
	ing := &fakeIngestor{}
	s := New(testLogger(t), ing, []string{"BTC"}, 10*time.Millisecond, 1)

	s.Run(context.Background())
	assert.Equal(t, 30, ing.count())
}

func TestRunSkipsWhenLiveDataPresent(t *testing.T) {
	ing := &fakeIngestor{live: []*models.PricePoint{{Symbol: "BTC", Price: 43000}}}
	s := New(testLogger(t), ing, []string{"BTC"}, 10*time.Millisecond, 1)

	s.Run(context.Background())
	assert.Equal(t, 0, ing.count())
}

func TestRunHonorsCancel(t *testing.T) {
	ing := &fakeIngestor{}
	s := New(testLogger(t), ing, []string{"BTC"}, time.Hour, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Run(ctx)
	assert.Equal(t, 0, ing.count())
}
