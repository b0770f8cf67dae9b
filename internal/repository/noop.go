package repository

import (
	"context"
	"sync"

	"PairPull/internal/domain/models"
	"PairPull/internal/domain/repository"
)

// NoopPublisher discards everything. Used when no message bus is configured.
type NoopPublisher struct{}

func NewNoopPublisher() repository.Publisher { return &NoopPublisher{} }

func (NoopPublisher) PublishPrices(context.Context, []*models.PricePoint) error { return nil }
func (NoopPublisher) PublishSignal(context.Context, *models.PairAnalysis) error { return nil }
func (NoopPublisher) Close() error                                              { return nil }

// MemorySignalStore keeps the most recent signals in a bounded in-memory
// ring. Used when no database backend is configured; history survives
// only for the lifetime of the process.
type MemorySignalStore struct {
	mu   sync.RWMutex
	buf  []*models.PairAnalysis
	max  int
	next int
	size int
}

// NewMemorySignalStore creates an in-memory store holding up to max signals.
func NewMemorySignalStore(max int) repository.SignalStore {
	if max <= 0 {
		max = 500
	}
	return &MemorySignalStore{buf: make([]*models.PairAnalysis, max), max: max}
}

func (s *MemorySignalStore) Init(ctx context.Context) error { return nil }

func (s *MemorySignalStore) Store(ctx context.Context, sig *models.PairAnalysis) error {
	if sig == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf[s.next] = sig
	s.next = (s.next + 1) % s.max
	if s.size < s.max {
		s.size++
	}
	return nil
}

// Recent returns up to limit signals, newest first.
func (s *MemorySignalStore) Recent(ctx context.Context, limit int) ([]*models.PairAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := s.size
	if limit < n {
		n = limit
	}
	out := make([]*models.PairAnalysis, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + s.max) % s.max
		out = append(out, s.buf[idx])
	}
	return out, nil
}

func (s *MemorySignalStore) Health(ctx context.Context) error { return nil }
func (s *MemorySignalStore) Close() error                     { return nil }
