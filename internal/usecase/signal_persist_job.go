package usecase

import (
	"context"
	"fmt"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"
	"PairPull/pkg/logger"
	"PairPull/pkg/queue"
)

// SignalPersistJob drains enqueued signals into the signal store so the
// update cycle never blocks on ClickHouse.
type SignalPersistJob struct {
	log   *logger.Logger
	store drepo.SignalStore
}

// NewSignalPersistJob creates the persistence job.
func NewSignalPersistJob(log *logger.Logger, store drepo.SignalStore) *SignalPersistJob {
	return &SignalPersistJob{log: log, store: store}
}

func (j *SignalPersistJob) Name() string { return "signal-persist" }

func (j *SignalPersistJob) Type() string { return QueueMessageSignalPersist }

func (j *SignalPersistJob) Handle(ctx context.Context, payload interface{}) error {
	sig, err := queue.ParsePayload[models.PairAnalysis](payload)
	if err != nil {
		return fmt.Errorf("parse signal payload: %w", err)
	}
	if err := j.store.Store(ctx, sig); err != nil {
		j.log.Error("signal store failed",
			logger.String("pair_a", sig.PairA),
			logger.String("pair_b", sig.PairB),
			logger.Error(err))
		return err
	}
	return nil
}

var _ queue.Job = (*SignalPersistJob)(nil)
