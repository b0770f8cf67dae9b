package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	drepo "PairPull/internal/domain/repository"
	"PairPull/internal/handler/api"
	"PairPull/internal/service/hyperliquid"
	"PairPull/internal/services/bootstrap"
	"PairPull/internal/services/funding"
	"PairPull/internal/usecase"
	pkgch "PairPull/pkg/clickhouse"
	"PairPull/pkg/config"
	xhttp "PairPull/pkg/http"
	pkgkafka "PairPull/pkg/kafka"
	applogger "PairPull/pkg/logger"
	"PairPull/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.PriceCollector
	hub       *api.Hub

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler

	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	queueWorker *queue.RedisQueue
	funding     *funding.Fetcher
	info        *hyperliquid.InfoClient
	seeder      *bootstrap.Seeder
	chClient    *pkgch.Client
	redisClient *redis.Client
	publisher   drepo.Publisher
	store       drepo.SignalStore
}

// New creates a new App instance. Optional infrastructure is attached
// through the setters below before Run.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.PriceCollector,
	hub *api.Hub,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		hub:       hub,
	}
}

// SetHTTPHandler injects the HTTP route handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetConsumer attaches a Kafka consumer and its message handler.
func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// SetQueueWorker attaches a Redis-backed persistence worker.
func (a *App) SetQueueWorker(q *queue.RedisQueue) { a.queueWorker = q }

// SetFundingFetcher attaches the funding-rate poller.
func (a *App) SetFundingFetcher(f *funding.Fetcher) { a.funding = f }

// SetInfoClient attaches the HTTP mid-price poller used as a fallback
// feed next to the WebSocket stream.
func (a *App) SetInfoClient(c *hyperliquid.InfoClient) { a.info = c }

// SetSeeder attaches the cold-start synthetic seeder.
func (a *App) SetSeeder(s *bootstrap.Seeder) { a.seeder = s }

// SetClickHouse attaches the ClickHouse client for lifecycle management.
func (a *App) SetClickHouse(c *pkgch.Client) { a.chClient = c }

// SetRedis attaches the Redis client for lifecycle management.
func (a *App) SetRedis(c *redis.Client) { a.redisClient = c }

// SetPublisher attaches the bus publisher for lifecycle management.
func (a *App) SetPublisher(p drepo.Publisher) { a.publisher = p }

// SetStore attaches the signal store for lifecycle management.
func (a *App) SetStore(s drepo.SignalStore) { a.store = s }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Price stream
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			a.log.Error("collector error", applogger.Error(err))
		}
	}()
	a.log.Info("collector started", applogger.Strings("symbols", a.cfg.Hyperliquid.Symbols))

	// Debounced pair selection loop
	go a.collector.Runner().Run(ctx)
	a.log.Info("signal runner started",
		applogger.String("scan_interval", a.cfg.Engine.ScanInterval.String()))

	// Cold-start seeding
	if a.seeder != nil {
		go a.seeder.Run(ctx)
	}

	// HTTP mid-price fallback poller
	if a.info != nil {
		go a.pollMids(ctx)
		a.log.Info("info poller started",
			applogger.String("interval", a.cfg.Hyperliquid.PollInterval.String()))
	}

	// Funding rate poller
	if a.funding != nil {
		go a.funding.Run(ctx, 0)
		a.log.Info("funding fetcher started")
	}

	// Replay consumer
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Async signal persistence worker
	if a.queueWorker != nil {
		if err := a.queueWorker.Start(); err != nil {
			a.log.Error("queue worker start error", applogger.Error(err))
		} else {
			a.queueWorker.StartRetryProcessor()
			a.log.Info("queue worker started")
		}
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// pollMids fetches mid prices over HTTP while the WebSocket stream is
// down. The stream stays the primary feed; polling only covers gaps.
func (a *App) pollMids(ctx context.Context) {
	interval := a.cfg.Hyperliquid.PollInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if a.collector.IsConnected() {
				continue
			}
			points, err := a.info.FetchMids(ctx)
			if err != nil {
				a.log.Warn("info poll failed", applogger.Error(err))
				continue
			}
			a.collector.Runner().IngestBatch(ctx, points)
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if err := a.collector.Shutdown(ctx); err != nil {
		a.log.Warn("collector stop error", applogger.Error(err))
	}

	if a.hub != nil {
		a.hub.Close()
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.queueWorker != nil {
		if err := a.queueWorker.Stop(shutdownCtx); err != nil {
			a.log.Warn("queue worker stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn("store close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
