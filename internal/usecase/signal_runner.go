package usecase

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"
	"PairPull/internal/engine"
	icache "PairPull/internal/service/cache"
	"PairPull/pkg/logger"
)

// Cache keys for the serving layer.
const (
	CacheKeyBestSignal   = "pairpull:best_signal"
	CacheKeyLatestPrices = "pairpull:latest_prices"
)

// QueueMessageSignalPersist is the queue message type for async signal
// persistence.
const QueueMessageSignalPersist = "signal_persist"

// Broadcaster pushes events to connected WebSocket clients.
type Broadcaster interface {
	Broadcast(event string, payload interface{})
}

// QueuePublisher enqueues messages for background processing. Matches
// pkg/queue.QueueService.
type QueuePublisher interface {
	PublishMessage(ctx context.Context, msgType string, payload interface{}) error
}

// SignalRunner owns the engine: it ingests price points, recomputes the
// best divergent pair on a debounced cadence, and fans the result out to
// cache, store, bus and WebSocket clients. Ingestion marks the state
// dirty; the scan loop only recomputes when something changed.
type SignalRunner struct {
	log     *logger.Logger
	eng     *engine.Engine
	cache   icache.BytesCache
	queue   QueuePublisher
	store   drepo.SignalStore
	pub     drepo.Publisher
	bcast   Broadcaster
	metrics drepo.Metrics
	perf    *PerformanceTracker

	scanInterval time.Duration
	cacheTTL     time.Duration

	mu           sync.RWMutex
	latest       *models.PairAnalysis
	latestPrices map[string]*models.PricePoint
	lastCompute  time.Time
	dirty        bool
}

// RunnerOption configures SignalRunner.
type RunnerOption func(*SignalRunner)

// WithQueue routes persistence through an async queue instead of
// writing to the store inline.
func WithQueue(q QueuePublisher) RunnerOption {
	return func(r *SignalRunner) { r.queue = q }
}

// WithPublisher sets the bus publisher.
func WithPublisher(p drepo.Publisher) RunnerOption {
	return func(r *SignalRunner) { r.pub = p }
}

// WithBroadcaster sets the WebSocket fan-out.
func WithBroadcaster(b Broadcaster) RunnerOption {
	return func(r *SignalRunner) { r.bcast = b }
}

// WithScanInterval sets the recompute cadence.
func WithScanInterval(d time.Duration) RunnerOption {
	return func(r *SignalRunner) {
		if d > 0 {
			r.scanInterval = d
		}
	}
}

// WithCacheTTL sets the serving-cache TTL.
func WithCacheTTL(d time.Duration) RunnerOption {
	return func(r *SignalRunner) {
		if d > 0 {
			r.cacheTTL = d
		}
	}
}

// NewSignalRunner creates a runner. store may be nil when persistence is
// disabled; cache must not be nil.
func NewSignalRunner(
	log *logger.Logger,
	eng *engine.Engine,
	cache icache.BytesCache,
	store drepo.SignalStore,
	metrics drepo.Metrics,
	opts ...RunnerOption,
) *SignalRunner {
	r := &SignalRunner{
		log:          log,
		eng:          eng,
		cache:        cache,
		store:        store,
		metrics:      metrics,
		perf:         NewPerformanceTracker(),
		scanInterval: 2 * time.Second,
		cacheTTL:     10 * time.Second,
		latestPrices: make(map[string]*models.PricePoint),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetBroadcaster attaches the WebSocket fan-out after construction.
// Must be called before Run starts.
func (r *SignalRunner) SetBroadcaster(b Broadcaster) { r.bcast = b }

// Process ingests a single point. Implements middleware.Proc.
func (r *SignalRunner) Process(ctx context.Context, pt *models.PricePoint) error {
	r.ingest(ctx, []*models.PricePoint{pt})
	return nil
}

// IngestBatch ingests a replayed or polled batch.
func (r *SignalRunner) IngestBatch(ctx context.Context, points []*models.PricePoint) {
	r.ingest(ctx, points)
}

func (r *SignalRunner) ingest(ctx context.Context, points []*models.PricePoint) {
	if len(points) == 0 {
		return
	}
	r.eng.UpdatePrices(points)

	r.mu.Lock()
	for _, pt := range points {
		if pt == nil {
			continue
		}
		r.latestPrices[pt.Symbol] = pt
		r.metrics.RecordPriceUpdate(pt.Symbol, pt.Source, pt.Price)
	}
	r.dirty = true
	r.mu.Unlock()

	if r.pub != nil {
		if err := r.pub.PublishPrices(ctx, points); err != nil {
			r.metrics.RecordError("publish_prices")
		}
	}
}

// Run drives the debounced recompute loop until ctx is cancelled.
func (r *SignalRunner) Run(ctx context.Context) {
	ticker := time.NewTicker(r.scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.mu.Lock()
			dirty := r.dirty
			r.dirty = false
			r.mu.Unlock()
			if dirty {
				r.ComputeNow(ctx)
			}
		}
	}
}

// ComputeNow runs one selection pass and fans out the result. Returns
// the new best pair, or nil when no pair qualifies.
func (r *SignalRunner) ComputeNow(ctx context.Context) *models.PairAnalysis {
	start := time.Now()
	sig := r.eng.FindBestDivergentPair()
	r.metrics.RecordLatency("find_best_pair", time.Since(start).Seconds())

	r.mu.Lock()
	r.lastCompute = time.Now()
	if sig != nil {
		r.latest = sig
	}
	r.mu.Unlock()

	r.cacheLatestPrices()

	if sig == nil {
		return nil
	}

	r.metrics.RecordSignal(sig.PairA, sig.PairB, string(sig.SignalType))
	r.perf.Record(sig)
	r.log.Debug("best pair updated",
		logger.String("pair_a", sig.PairA),
		logger.String("pair_b", sig.PairB),
		logger.Float64("z_score", sig.ZScore),
		logger.Float64("net_edge", sig.NetEdge),
	)

	if b, err := json.Marshal(sig); err == nil {
		if err := r.cache.SetBytes(CacheKeyBestSignal, b, r.cacheTTL); err != nil {
			r.metrics.RecordError("cache_set")
		}
	}

	if r.queue != nil {
		if err := r.queue.PublishMessage(ctx, QueueMessageSignalPersist, sig); err != nil {
			r.metrics.RecordError("persist_enqueue")
			r.log.Warn("signal persist enqueue failed", logger.Error(err))
		}
	} else if r.store != nil {
		if err := r.store.Store(ctx, sig); err != nil {
			r.metrics.RecordError("persist_store")
			r.log.Warn("signal store failed", logger.Error(err))
		}
	}

	if r.pub != nil {
		if err := r.pub.PublishSignal(ctx, sig); err != nil {
			r.metrics.RecordError("publish_signal")
		}
	}

	if r.bcast != nil {
		r.bcast.Broadcast("signal_update", sig)
	}
	return sig
}

func (r *SignalRunner) cacheLatestPrices() {
	prices := r.LatestPrices()
	if len(prices) == 0 {
		return
	}
	if b, err := json.Marshal(prices); err == nil {
		_ = r.cache.SetBytes(CacheKeyLatestPrices, b, r.cacheTTL)
	}
}

// Latest returns the most recent best pair, nil before the first hit.
func (r *SignalRunner) Latest() *models.PairAnalysis {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.latest
}

// LatestPrices returns the last observation per symbol in lexical order.
func (r *SignalRunner) LatestPrices() []*models.PricePoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.PricePoint, 0, len(r.latestPrices))
	for _, pt := range r.latestPrices {
		out = append(out, pt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// LastComputeAt returns the time of the last selection pass.
func (r *SignalRunner) LastComputeAt() time.Time {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastCompute
}

// PairCount reports instruments eligible for selection.
func (r *SignalRunner) PairCount() int {
	return r.eng.PairCount()
}

// Performance returns lifetime signal aggregates.
func (r *SignalRunner) Performance() PerformanceMetrics {
	return r.perf.Metrics()
}

// BestWindowPair ranks pairs over a trailing point window.
func (r *SignalRunner) BestWindowPair(points int) *models.WindowPair {
	return r.eng.BestWindowPair(points)
}

// HistoryOf exposes one symbol's rolling history for the health surface.
func (r *SignalRunner) HistoryOf(symbol string) []models.PricePoint {
	return r.eng.HistoryOf(symbol)
}
