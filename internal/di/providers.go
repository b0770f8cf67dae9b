package di

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domrepo "PairPull/internal/domain/repository"
	domsvc "PairPull/internal/domain/service"
	"PairPull/internal/engine"
	"PairPull/internal/handler/api"
	mid "PairPull/internal/middleware"
	internalrepo "PairPull/internal/repository"
	icache "PairPull/internal/service/cache"
	"PairPull/internal/service/hyperliquid"
	"PairPull/internal/service/synthetic"
	"PairPull/internal/services/bootstrap"
	"PairPull/internal/services/costs"
	"PairPull/internal/services/funding"
	"PairPull/internal/usecase"
	pkgch "PairPull/pkg/clickhouse"
	"PairPull/pkg/config"
	pkgkafka "PairPull/pkg/kafka"
	applogger "PairPull/pkg/logger"
	"PairPull/pkg/metrics"
	"PairPull/pkg/queue"
	"PairPull/pkg/server"
)

// ProvideLogger creates the application logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	level := "info"
	format := "json"
	if cfg.Environment == "development" {
		level = "debug"
		format = "console"
	}
	return applogger.New(&applogger.Config{Level: level, Format: format, Output: "stdout"})
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideRedisClient creates a Redis client, or nil when Redis is off.
func ProvideRedisClient(cfg *config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// ProvideCache picks the serving cache: Redis when available, otherwise
// in-process TTL cache.
func ProvideCache(redisClient *redis.Client) icache.BytesCache {
	if redisClient != nil {
		return icache.NewRedisCacheFromClient(redisClient)
	}
	return icache.NewTTLCache()
}

// ProvideClickHouseClient creates a ClickHouse client and initializes
// the signals schema. Returns nil when the backend is not ClickHouse.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Backend.Type != "clickhouse" {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, internalrepo.SignalSchema); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when the
// backend is not Kafka.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Backend.Type != "kafka" {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the bus publisher for the configured backend.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.Publisher {
	if producer == nil {
		return internalrepo.NewNoopPublisher()
	}
	signalsTopic := cfg.Kafka.SignalsTopic
	if signalsTopic == "" {
		signalsTopic = cfg.Kafka.Topic + ".signals"
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.Topic, signalsTopic)
}

// ProvideSignalStore creates signal persistence for the configured
// backend. Without ClickHouse history lives in memory only.
func ProvideSignalStore(chClient *pkgch.Client) domrepo.SignalStore {
	if chClient != nil {
		return internalrepo.NewClickHouseSignalStore(chClient.DB())
	}
	return internalrepo.NewMemorySignalStore(500)
}

// ProvideMarketStream creates the price feed: Hyperliquid WebSocket in
// production, a seeded random walk in synthetic mode.
func ProvideMarketStream(cfg *config.Config) domrepo.MarketStream {
	if cfg.Hyperliquid.Synthetic {
		return synthetic.New(cfg.Hyperliquid.Symbols, time.Second, time.Now().UnixNano())
	}
	return hyperliquid.New(
		cfg.Hyperliquid.WebSocketURL,
		cfg.Hyperliquid.Symbols,
		cfg.Hyperliquid.ReconnectDelay,
		cfg.Hyperliquid.PingInterval,
	)
}

// ProvideFundingFetcher creates the funding-rate poller, or nil when
// funding costs are off.
func ProvideFundingFetcher(log *applogger.Logger, cfg *config.Config, cache icache.BytesCache) *funding.Fetcher {
	if !cfg.Costs.FundingEnabled {
		return nil
	}
	return funding.New(log, cfg.Hyperliquid.Symbols, cfg.Costs.Exchanges, cache)
}

// ProvideCostModel builds the trade cost model. The fixed fee and
// slippage legs always apply; funding is layered on when enabled.
func ProvideCostModel(cfg *config.Config, fetcher *funding.Fetcher) domsvc.CostModel {
	base := costs.NewFixedCostModel(cfg.Costs.TakerFeeBps, cfg.Costs.SlippageBps)
	if fetcher == nil {
		return base
	}
	return costs.NewFundingCostModel(base, fetcher)
}

// ProvideEngine creates the pair selection engine.
func ProvideEngine(cfg *config.Config, costModel domsvc.CostModel) *engine.Engine {
	return engine.New(engine.Config{
		Universe:         cfg.Hyperliquid.Symbols,
		MinHistoryPoints: cfg.Engine.MinHistoryPoints,
		PairWindow:       cfg.Engine.PairWindow,
		MinCorrelation:   cfg.Engine.MinCorrelation,
		MinZScore:        cfg.Engine.MinZScore,
	}, costModel)
}

// ProvideQueuePublisher creates the producer side of the Redis queue,
// or nil without Redis. The same queue doubles as the sink for
// aggregated error logs.
func ProvideQueuePublisher(log *applogger.Logger, redisClient *redis.Client) usecase.QueuePublisher {
	if redisClient == nil {
		return nil
	}
	q := queue.NewRedisPublisher(log, redisClient)
	log.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          "error_logs",
		Publisher:      q,
	})
	return q
}

// ProvideSignalRunner creates the runner with its fan-out targets.
func ProvideSignalRunner(
	log *applogger.Logger,
	eng *engine.Engine,
	cache icache.BytesCache,
	store domrepo.SignalStore,
	pub domrepo.Publisher,
	m domrepo.Metrics,
	qp usecase.QueuePublisher,
	cfg *config.Config,
) *usecase.SignalRunner {
	opts := []usecase.RunnerOption{
		usecase.WithPublisher(pub),
		usecase.WithScanInterval(cfg.Engine.ScanInterval),
		usecase.WithCacheTTL(cfg.Engine.CacheTTL),
	}
	if qp != nil {
		opts = append(opts, usecase.WithQueue(qp))
	}
	return usecase.NewSignalRunner(log, eng, cache, store, m, opts...)
}

// ProvideQueueWorker creates the Redis worker that drains the signal
// persistence queue, or nil without Redis.
func ProvideQueueWorker(
	log *applogger.Logger,
	redisClient *redis.Client,
	store domrepo.SignalStore,
	cfg *config.Config,
) *queue.RedisQueue {
	if redisClient == nil {
		return nil
	}
	return queue.NewRedisConsumer(log,
		&queue.QueueConfig{Workers: 2, RetryLimit: 3, RetryDelay: 5 * time.Second},
		redisClient,
		[]queue.Job{usecase.NewSignalPersistJob(log, store)},
	)
}

// ProvideCollector creates the price collector with its ingestion
// pipeline in front of the runner.
func ProvideCollector(
	stream domrepo.MarketStream,
	runner *usecase.SignalRunner,
	m domrepo.Metrics,
) *usecase.PriceCollector {
	pipe := mid.NewPricePipeline(runner, m,
		mid.WithMaxRPS(200),
		mid.WithBufferSize(2000),
	)
	return usecase.NewPriceCollector(stream, runner, m, pipe)
}

// ProvideHub creates the WebSocket hub and attaches it to the runner.
func ProvideHub(log *applogger.Logger, runner *usecase.SignalRunner) *api.Hub {
	hub := api.NewHub(log, runner)
	runner.SetBroadcaster(hub)
	return hub
}

// ProvideHTTPHandler creates the REST and WebSocket handler.
func ProvideHTTPHandler(
	log *applogger.Logger,
	runner *usecase.SignalRunner,
	store domrepo.SignalStore,
	stream domrepo.MarketStream,
	cache icache.BytesCache,
	hub *api.Hub,
) *api.SignalsHandler {
	return api.NewSignalsHandler(log, runner, store, stream, cache, hub)
}

// ProvideKafkaConsumer creates the replay consumer, or nil when there
// is no replay topic. The consumer is instrumented with the tracing
// and latency hooks.
func ProvideKafkaConsumer(cfg *config.Config, log *applogger.Logger, m domrepo.Metrics) (*pkgkafka.Consumer, error) {
	if cfg.Backend.Type != "kafka" || cfg.Kafka.ReplayTopic == "" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(usecase.NewReplayConsumerHook(log, m))
	return consumer, nil
}

// ProvideKafkaPricesHandler registers the handler for the replay topic.
func ProvideKafkaPricesHandler(cfg *config.Config, runner *usecase.SignalRunner, m domrepo.Metrics) *usecase.KafkaPricesHandler {
	return usecase.NewKafkaPricesHandler(cfg.Kafka.ReplayTopic, runner, m)
}

// ProvideApp assembles the application server.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.PriceCollector,
	hub *api.Hub,
	handler *api.SignalsHandler,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaPricesHandler,
	queueWorker *queue.RedisQueue,
	fetcher *funding.Fetcher,
	chClient *pkgch.Client,
	redisClient *redis.Client,
	pub domrepo.Publisher,
	store domrepo.SignalStore,
) *server.App {
	app := server.New(cfg, log, collector, hub)
	app.SetHTTPHandler(handler)
	app.SetPublisher(pub)
	app.SetStore(store)
	if consumer != nil {
		app.SetConsumer(consumer, kh)
	}
	if queueWorker != nil {
		app.SetQueueWorker(queueWorker)
	}
	if fetcher != nil {
		app.SetFundingFetcher(fetcher)
	}
	if chClient != nil {
		app.SetClickHouse(chClient)
	}
	if redisClient != nil {
		app.SetRedis(redisClient)
	}
	if !cfg.Hyperliquid.Synthetic && cfg.Hyperliquid.InfoURL != "" {
		app.SetInfoClient(hyperliquid.NewInfoClient(cfg.Hyperliquid.InfoURL, cfg.Hyperliquid.Symbols, 10*time.Second))
	}
	app.SetSeeder(bootstrap.New(log, collector.Runner(), cfg.Hyperliquid.Symbols, 30*time.Second, time.Now().UnixNano()))
	return app
}
