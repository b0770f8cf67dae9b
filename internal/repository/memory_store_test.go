package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
)

func sig(a, b string, ts time.Time) *models.PairAnalysis {
	return &models.PairAnalysis{PairA: a, PairB: b, Timestamp: ts}
}

func TestMemorySignalStoreRecentNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore(3)
	base := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	require.NoError(t, s.Store(ctx, sig("BTC", "ETH", base)))
	require.NoError(t, s.Store(ctx, sig("ETH", "SOL", base.Add(time.Minute))))

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "ETH", got[0].PairA)
	assert.Equal(t, "BTC", got[1].PairA)
}

func TestMemorySignalStoreWrapsAround(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore(2)
	base := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Store(ctx, sig("P", "Q", base.Add(time.Duration(i)*time.Minute))))
	}

	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Timestamp.After(got[1].Timestamp))
	assert.Equal(t, base.Add(4*time.Minute), got[0].Timestamp)
}

func TestMemorySignalStoreIgnoresNil(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore(2)
	require.NoError(t, s.Store(ctx, nil))
	got, err := s.Recent(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestMemorySignalStoreLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemorySignalStore(10)
	base := time.Date(2026, 2, 10, 15, 0, 0, 0, time.UTC)
	for i := 0; i < 6; i++ {
		require.NoError(t, s.Store(ctx, sig("P", "Q", base.Add(time.Duration(i)*time.Minute))))
	}
	got, err := s.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}
