package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
)

func TestSignalPersistJobStoresPayload(t *testing.T) {
	store := &fakeStore{}
	j := NewSignalPersistJob(testLogger(t), store)

	assert.Equal(t, "signal-persist", j.Name())
	assert.Equal(t, QueueMessageSignalPersist, j.Type())

	sig := &models.PairAnalysis{PairA: "BTC", PairB: "ETH", ZScore: 3.2}
	require.NoError(t, j.Handle(context.Background(), sig))
	require.Equal(t, 1, store.count())
	assert.Equal(t, "BTC", store.stored[0].PairA)
}

func TestSignalPersistJobParsesMapPayload(t *testing.T) {
	store := &fakeStore{}
	j := NewSignalPersistJob(testLogger(t), store)

	// payload shape after a JSON round trip through Redis
	payload := map[string]interface{}{
		"pairA":  "SOL",
		"pairB":  "AVAX",
		"zScore": 2.5,
	}
	require.NoError(t, j.Handle(context.Background(), payload))
	require.Equal(t, 1, store.count())
	assert.Equal(t, "SOL", store.stored[0].PairA)
	assert.Equal(t, 2.5, store.stored[0].ZScore)
}

func TestSignalPersistJobRejectsBadPayload(t *testing.T) {
	j := NewSignalPersistJob(testLogger(t), &fakeStore{})
	assert.Error(t, j.Handle(context.Background(), 42))
}
