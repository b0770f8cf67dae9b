package usecase

import (
	"context"
	"time"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"
	mid "PairPull/internal/middleware"
)

const maxReconnectBackoff = 30 * time.Second

// PriceCollector reads the market stream and feeds points through the
// pipeline into the signal runner.
type PriceCollector struct {
	stream  drepo.MarketStream
	runner  *SignalRunner
	metrics drepo.Metrics
	pipe    *mid.PricePipeline
}

// NewPriceCollector creates a new PriceCollector instance.
func NewPriceCollector(stream drepo.MarketStream, runner *SignalRunner, metrics drepo.Metrics, pipe *mid.PricePipeline) *PriceCollector {
	return &PriceCollector{stream: stream, runner: runner, metrics: metrics, pipe: pipe}
}

// IsConnected returns true if the market stream is connected.
func (c *PriceCollector) IsConnected() bool {
	return c.stream.IsConnected()
}

func (c *PriceCollector) Start(ctx context.Context) error {
	if err := c.stream.Connect(ctx); err != nil {
		return err
	}
	if err := c.stream.Subscribe(ctx); err != nil {
		return err
	}
	if c.pipe != nil {
		c.pipe.Start(ctx)
	}
	ptCh, errCh := c.stream.Read(ctx)
	go c.consume(ctx, ptCh, errCh)
	return nil
}

// consume drains the stream's channels. The stream's read loop closes
// both channels after a read failure, so a closed ptCh means the
// connection is gone: reconnect and resume from the fresh channels
// returned by Read, otherwise the new connection is never consumed.
func (c *PriceCollector) consume(ctx context.Context, ptCh <-chan *models.PricePoint, errCh <-chan error) {
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errCh:
			if !ok {
				// Drained; nil channel blocks so the select stops
				// spinning on it.
				errCh = nil
				continue
			}
			if err != nil {
				c.metrics.RecordError("stream")
			}
		case pt, ok := <-ptCh:
			if !ok {
				ptCh, errCh = c.restart(ctx)
				if ptCh == nil {
					return
				}
				continue
			}
			if pt == nil {
				continue
			}
			if c.pipe != nil {
				_ = c.pipe.Process(ctx, pt)
			} else {
				_ = c.runner.Process(ctx, pt)
			}
		}
	}
}

// restart re-dials the stream and returns fresh read channels, retrying
// with backoff until it succeeds or the context is cancelled. Returns
// nil channels only on cancellation.
func (c *PriceCollector) restart(ctx context.Context) (<-chan *models.PricePoint, <-chan error) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil, nil
		}
		if err := c.stream.Reconnect(ctx); err == nil {
			ptCh, errCh := c.stream.Read(ctx)
			return ptCh, errCh
		}
		c.metrics.RecordError("stream_reconnect")
		select {
		case <-ctx.Done():
			return nil, nil
		case <-time.After(backoff):
		}
		if backoff < maxReconnectBackoff {
			backoff *= 2
		}
	}
}

// Runner returns the underlying SignalRunner for lifecycle management.
func (c *PriceCollector) Runner() *SignalRunner { return c.runner }

// Shutdown stops pipeline and closes stream.
func (c *PriceCollector) Shutdown(ctx context.Context) error {
	if c.pipe != nil {
		c.pipe.Stop()
	}
	return c.stream.Close()
}
