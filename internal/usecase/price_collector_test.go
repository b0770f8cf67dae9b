package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
)

// fakeStream fails its first read session and serves data on the second.
type fakeStream struct {
	mu              sync.Mutex
	reads           int
	reconnects      int
	connected       bool
	secondSessionPt *models.PricePoint
}

func (s *fakeStream) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Subscribe(ctx context.Context) error { return nil }

func (s *fakeStream) Read(ctx context.Context) (<-chan *models.PricePoint, <-chan error) {
	s.mu.Lock()
	s.reads++
	session := s.reads
	pt := s.secondSessionPt
	s.mu.Unlock()

	points := make(chan *models.PricePoint, 4)
	errs := make(chan error, 1)
	if session == 1 {
		// First session dies immediately, the way a dropped socket does:
		// push the error, then close both channels.
		errs <- context.DeadlineExceeded
		close(errs)
		close(points)
	} else {
		points <- pt
	}
	return points, errs
}

func (s *fakeStream) Reconnect(ctx context.Context) error {
	s.mu.Lock()
	s.reconnects++
	s.connected = true
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	s.connected = false
	s.mu.Unlock()
	return nil
}

func (s *fakeStream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *fakeStream) counts() (reads, reconnects int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads, s.reconnects
}

func TestCollectorResumesReadingAfterReconnect(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream := &fakeStream{
		secondSessionPt: &models.PricePoint{Symbol: "BTC", Price: 43000, Timestamp: time.Now()},
	}
	runner := NewSignalRunner(testLogger(t), testEngine("BTC", "ETH"), testCache(), nil, newFakeMetrics())
	collector := NewPriceCollector(stream, runner, newFakeMetrics(), nil)

	require.NoError(t, collector.Start(ctx))

	// The first session's failure must trigger a reconnect followed by a
	// new Read; the point served on the second session proves the
	// reconnected feed is actually consumed.
	require.Eventually(t, func() bool {
		return len(runner.HistoryOf("BTC")) == 1
	}, 2*time.Second, 10*time.Millisecond, "reconnected feed never reached the engine")

	reads, reconnects := stream.counts()
	assert.GreaterOrEqual(t, reconnects, 1)
	assert.GreaterOrEqual(t, reads, 2, "Read must be re-invoked after reconnect")
}

func TestCollectorStopsRestartingOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	stream := &fakeStream{
		secondSessionPt: &models.PricePoint{Symbol: "BTC", Price: 43000, Timestamp: time.Now()},
	}
	runner := NewSignalRunner(testLogger(t), testEngine("BTC", "ETH"), testCache(), nil, newFakeMetrics())
	collector := NewPriceCollector(stream, runner, newFakeMetrics(), nil)

	require.NoError(t, collector.Start(ctx))
	require.Eventually(t, func() bool {
		reads, _ := stream.counts()
		return reads >= 2
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	time.Sleep(50 * time.Millisecond)
	reads, _ := stream.counts()
	time.Sleep(100 * time.Millisecond)
	readsAfter, _ := stream.counts()
	assert.Equal(t, reads, readsAfter, "consume loop must exit on cancel")
}
