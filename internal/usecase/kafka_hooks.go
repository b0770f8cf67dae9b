package usecase

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"

	drepo "PairPull/internal/domain/repository"
	pkgkafka "PairPull/pkg/kafka"
	"PairPull/pkg/logger"
)

// NewReplayConsumerHook instruments the replay consumer: a tracing hook
// stamps the handling start time and the trace id from the message
// headers, and an observing hook records handling latency and logs
// failures with their trace id.
func NewReplayConsumerHook(log *logger.Logger, m drepo.Metrics) pkgkafka.ConsumerHook {
	trace := pkgkafka.HookFuncs{
		Before: func(ctx context.Context, topic string, km kafka.Message, data []byte) (context.Context, kafka.Message, []byte, error) {
			ctx = pkgkafka.WithStartTime(ctx, time.Now())
			ctx = pkgkafka.WithTraceID(ctx, pkgkafka.ExtractTraceID(km))
			return ctx, km, data, nil
		},
	}
	observe := pkgkafka.HookFuncs{
		After: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			if start, ok := ctx.Value(pkgkafka.CtxStartTime).(time.Time); ok {
				m.RecordLatency("replay_consume", time.Since(start).Seconds())
			}
		},
		Err: func(ctx context.Context, topic string, km kafka.Message, data []byte, err error) {
			m.RecordError("replay_consume")
			traceID, _ := ctx.Value(pkgkafka.CtxTraceID).(string)
			log.Warn("replay message failed",
				logger.String("topic", topic),
				logger.String("trace_id", traceID),
				logger.Error(err),
			)
		},
	}
	return pkgkafka.NewHookChain(trace, observe)
}
