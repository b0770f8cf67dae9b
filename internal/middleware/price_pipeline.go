package middleware

import (
	"context"
	"fmt"
	"sync"
	"time"

	"PairPull/internal/domain/models"
	domrepo "PairPull/internal/domain/repository"
)

// Proc is the minimal processor interface the pipeline needs.
type Proc interface {
	Process(ctx context.Context, p *models.PricePoint) error
}

// PricePipeline sits between the market stream and the engine. It
// validates, throttles per symbol, optionally transforms, and buffers
// when downstream is unavailable.
type PricePipeline struct {
	proc     Proc
	metrics  domrepo.Metrics
	maxRPS   int
	bufSize  int
	bufCh    chan *models.PricePoint
	stopCh   chan struct{}
	started  bool
	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted time
	// simple format transform hook (optional)
	transform func(*models.PricePoint) *models.PricePoint
	// metrics hooks
	bufDepthGauge func(int)
	throttleWarn  func(string)
}

type PipelineOption func(*PricePipeline)

// WithMaxRPS sets the max accepted points per second per symbol.
func WithMaxRPS(n int) PipelineOption {
	return func(p *PricePipeline) {
		if n > 0 {
			p.maxRPS = n
		}
	}
}

// WithBufferSize sets the temporary buffer size when downstream is unavailable.
func WithBufferSize(n int) PipelineOption {
	return func(p *PricePipeline) {
		if n > 0 {
			p.bufSize = n
		}
	}
}

// WithTransform sets a transformation hook applied before throttling.
func WithTransform(fn func(*models.PricePoint) *models.PricePoint) PipelineOption {
	return func(p *PricePipeline) { p.transform = fn }
}

// NewPricePipeline creates a new pipeline.
func NewPricePipeline(proc Proc, metrics domrepo.Metrics, opts ...PipelineOption) *PricePipeline {
	p := &PricePipeline{
		proc:     proc,
		metrics:  metrics,
		maxRPS:   20,   // default throttle per symbol
		bufSize:  1000, // default buffer
		bufCh:    make(chan *models.PricePoint, 1000),
		stopCh:   make(chan struct{}),
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.bufSize != cap(p.bufCh) {
		p.bufCh = make(chan *models.PricePoint, p.bufSize)
	}
	p.bufDepthGauge = func(n int) { p.metrics.RecordLatency("pipeline_buffer_depth", float64(n)) }
	p.throttleWarn = func(sym string) { p.metrics.RecordError("pipeline_throttle_" + sym) }
	return p
}

// Start launches background flushing of buffered points.
func (p *PricePipeline) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	go func() {
		backoff := 50 * time.Millisecond
		for {
			select {
			case <-p.stopCh:
				return
			case pt := <-p.bufCh:
				if pt == nil {
					continue
				}
				if err := p.proc.Process(ctx, pt); err != nil {
					if backoff < 2*time.Second {
						backoff *= 2
					}
					p.metrics.RecordError("pipeline_flush")
					time.Sleep(backoff)
					// requeue if space; drop otherwise
					select {
					case p.bufCh <- pt:
					default:
						p.metrics.RecordError("pipeline_buffer_drop")
					}
				} else {
					backoff = 50 * time.Millisecond
				}
			}
		}
	}()
}

// Stop stops the background flushing.
func (p *PricePipeline) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()
	close(p.stopCh)
}

// Process validates, throttles, and forwards a point downstream,
// buffering on errors.
func (p *PricePipeline) Process(ctx context.Context, pt *models.PricePoint) error {
	start := time.Now()
	if err := validatePoint(pt); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}
	if p.transform != nil {
		pt = p.transform(pt)
		if err := validatePoint(pt); err != nil {
			p.metrics.RecordError("pipeline_transform_invalid")
			return err
		}
	}
	if !p.allow(pt.Symbol, start) {
		// throttled; record and drop silently
		p.metrics.RecordError("pipeline_throttle")
		if p.throttleWarn != nil {
			p.throttleWarn(pt.Symbol)
		}
		return nil
	}

	if err := p.proc.Process(ctx, pt); err != nil {
		p.metrics.RecordError("pipeline_process")
		// buffer non-blocking
		select {
		case p.bufCh <- pt:
			if p.bufDepthGauge != nil {
				p.bufDepthGauge(len(p.bufCh))
			}
		default:
			p.metrics.RecordError("pipeline_buffer_full")
		}
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", time.Since(start).Seconds())
	return nil
}

func validatePoint(pt *models.PricePoint) error {
	if pt == nil {
		return fmt.Errorf("price point nil")
	}
	if pt.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if pt.Price <= 0 {
		return fmt.Errorf("non-positive price")
	}
	return nil
}

func (p *PricePipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if last.IsZero() {
		p.lastSeen[symbol] = now
		return true
	}
	if now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}
