//go:build wireinject
// +build wireinject

package di

import (
	"PairPull/pkg/config"
	"PairPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire generates the implementation; see wire_gen.go.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideRedisClient,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,

		// Repositories
		ProvidePublisher,
		ProvideSignalStore,
		ProvideMarketStream,

		// Domain services
		ProvideFundingFetcher,
		ProvideCostModel,
		ProvideEngine,

		// Use cases
		ProvideQueuePublisher,
		ProvideSignalRunner,
		ProvideQueueWorker,
		ProvideCollector,

		// HTTP and WebSocket surface
		ProvideHub,
		ProvideHTTPHandler,

		// Replay consumer
		ProvideKafkaConsumer,
		ProvideKafkaPricesHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
