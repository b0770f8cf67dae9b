package bootstrap

import (
	"context"
	"math/rand"
	"time"

	"PairPull/internal/domain/models"
	"PairPull/pkg/logger"
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

// Ingestor is the slice of the signal runner the seeder needs.
type Ingestor interface {
	IngestBatch(ctx context.Context, points []*models.PricePoint)
	PairCount() int
	LatestPrices() []*models.PricePoint
}

// Seeder backfills synthetic history when the live feed produces nothing
// within the grace period, so the API has something to serve on a cold
// start without an exchange connection.
type Seeder struct {
	log     *logger.Logger
	target  Ingestor
	symbols []string
	grace   time.Duration
	points  int
	rng     *rand.Rand
}

// New creates a seeder. grace <= 0 defaults to 30s.
func New(log *logger.Logger, target Ingestor, symbols []string, grace time.Duration, seed int64) *Seeder {
	if grace <= 0 {
		grace = 30 * time.Second
	}
	return &Seeder{
		log:     log,
		target:  target,
		symbols: symbols,
		grace:   grace,
		points:  30,
		rng:     rand.New(rand.NewSource(seed)),
	}
}

// Run waits out the grace period and seeds only if no real data arrived.
func (s *Seeder) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.grace):
	}

	if len(s.target.LatestPrices()) > 0 {
		return
	}

	batch := s.Generate(time.Now().UTC())
	s.target.IngestBatch(ctx, batch)
	s.log.Warn("no live data within grace period, seeded synthetic history",
		logger.Int("symbols", len(s.symbols)),
		logger.Int("points_per_symbol", s.points),
	)
}

// Generate produces minute-spaced random-walk history ending at end for
// every configured symbol.
func (s *Seeder) Generate(end time.Time) []*models.PricePoint {
	out := make([]*models.PricePoint, 0, len(s.symbols)*s.points)
	for _, sym := range s.symbols {
		price, ok := basePrices[sym]
		if !ok {
			price = 100
		}
		for i := 0; i < s.points; i++ {
			// +-0.25% per step
			step := (s.rng.Float64() - 0.5) * 0.005
			price *= 1 + step
			out = append(out, &models.PricePoint{
				Symbol:    sym,
				Price:     price,
				Timestamp: end.Add(-time.Duration(s.points-1-i) * time.Minute),
				Source:    models.SourceSynthetic,
			})
		}
	}
	return out
}
