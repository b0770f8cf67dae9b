package repository

import (
	"context"

	"PairPull/internal/domain/models"
)

// MarketStream is a live price feed for the configured instrument universe.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.PricePoint, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// Publisher fans price batches and signals out to a message bus.
type Publisher interface {
	PublishPrices(ctx context.Context, points []*models.PricePoint) error
	PublishSignal(ctx context.Context, sig *models.PairAnalysis) error
	Close() error
}

// SignalStore persists emitted signals for the history endpoint.
type SignalStore interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, sig *models.PairAnalysis) error
	Recent(ctx context.Context, limit int) ([]*models.PairAnalysis, error)
	Health(ctx context.Context) error
	Close() error
}

// Metrics records operational metrics.
type Metrics interface {
	RecordPriceUpdate(symbol, source string, price float64)
	RecordSignal(pairA, pairB, signalType string)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
}
