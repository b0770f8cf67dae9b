package synthetic

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"
)

// Default starting prices for well-known perps. Unknown symbols start at
// 100.
var basePrices = map[string]float64{
	"BTC":  43000,
	"ETH":  2300,
	"SOL":  98,
	"AVAX": 36,
	"ARB":  1.2,
	"OP":   2.1,
	"DOGE": 0.08,
	"LINK": 14,
}

// Stream implements a MarketStream that emits a jittered random walk for
// the configured universe. It stands in for the live exchange in local
// runs and demos.
type Stream struct {
	symbols  []string
	interval time.Duration

	mu        sync.Mutex
	prices    map[string]float64
	rng       *rand.Rand
	connected bool
	cancel    context.CancelFunc
}

// New creates a synthetic stream ticking at interval.
func New(symbols []string, interval time.Duration, seed int64) drepo.MarketStream {
	if interval <= 0 {
		interval = time.Second
	}
	prices := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		p, ok := basePrices[s]
		if !ok {
			p = 100
		}
		prices[s] = p
	}
	return &Stream{
		symbols:  symbols,
		interval: interval,
		prices:   prices,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// Connect marks the stream connected. There is no transport.
func (s *Stream) Connect(ctx context.Context) error {
	s.mu.Lock()
	s.connected = true
	s.mu.Unlock()
	return nil
}

// Subscribe is a no-op for the synthetic stream.
func (s *Stream) Subscribe(ctx context.Context) error {
	if !s.IsConnected() {
		return fmt.Errorf("synthetic stream not connected")
	}
	return nil
}

// Read emits one batch of walked prices per tick.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PricePoint, <-chan error) {
	points := make(chan *models.PricePoint, 1024)
	errs := make(chan error, 1)

	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer close(points)
		defer close(errs)
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				now := time.Now().UTC()
				for _, pt := range s.walk(now) {
					select {
					case points <- pt:
					default:
					}
				}
			}
		}
	}()

	return points, errs
}

// walk advances every symbol by a bounded percentage step.
func (s *Stream) walk(now time.Time) []*models.PricePoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*models.PricePoint, 0, len(s.symbols))
	for _, sym := range s.symbols {
		prev := s.prices[sym]
		// +-0.25% per tick
		step := (s.rng.Float64() - 0.5) * 0.005
		next := prev * (1 + step)
		if next <= 0 {
			next = prev
		}
		s.prices[sym] = next
		out = append(out, &models.PricePoint{
			Symbol:    sym,
			Price:     next,
			Timestamp: now,
			Source:    models.SourceSynthetic,
		})
	}
	return out
}

// Reconnect is a no-op for the synthetic stream.
func (s *Stream) Reconnect(ctx context.Context) error {
	return s.Connect(ctx)
}

// Close stops the emitter.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
