package engine

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
)

func pt(symbol string, price float64, ts time.Time) *models.PricePoint {
	return &models.PricePoint{Symbol: symbol, Price: price, Timestamp: ts, Source: models.SourceSynthetic}
}

func TestHistoryStoreBounded(t *testing.T) {
	s := NewHistoryStore(200)
	base := time.Date(2026, 1, 2, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 250; i++ {
		s.Update([]*models.PricePoint{pt("BTC", 100+float64(i), base.Add(time.Duration(i)*time.Second))})
	}

	h := s.HistoryOf("BTC")
	require.Len(t, h, 200)
	// Oldest 50 evicted from the front.
	assert.Equal(t, 150.0, h[0].Price)
	assert.Equal(t, 349.0, h[199].Price)
}

func TestHistoryStoreStampsMissingTimestamps(t *testing.T) {
	s := NewHistoryStore(10)
	fixed := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Update([]*models.PricePoint{{Symbol: "ETH", Price: 2000}})

	h := s.HistoryOf("ETH")
	require.Len(t, h, 1)
	assert.Equal(t, fixed, h[0].Timestamp)
}

func TestHistoryStoreUnknownSymbolAndNil(t *testing.T) {
	s := NewHistoryStore(10)
	s.Update(nil)
	s.Update([]*models.PricePoint{nil, pt("SOL", 150, time.Now())})

	assert.Equal(t, 1, s.Len("SOL"))
	assert.Empty(t, s.HistoryOf("never-seen"))
}

func TestHistoryOfReturnsCopy(t *testing.T) {
	s := NewHistoryStore(10)
	s.Update([]*models.PricePoint{pt("BTC", 100, time.Now())})

	h := s.HistoryOf("BTC")
	h[0].Price = -1

	assert.Equal(t, 100.0, s.HistoryOf("BTC")[0].Price)
}

func TestCountEligible(t *testing.T) {
	s := NewHistoryStore(200)
	base := time.Now()
	for i := 0; i < 12; i++ {
		s.Update([]*models.PricePoint{pt("BTC", 100, base), pt("ETH", 2000, base)})
	}
	s.Update([]*models.PricePoint{pt("SOL", 150, base)})

	assert.Equal(t, 2, s.CountEligible(10))
	assert.Equal(t, 3, s.CountEligible(1))
	assert.Equal(t, 0, s.CountEligible(50))
}

func TestSnapshotEligibleOrdering(t *testing.T) {
	s := NewHistoryStore(200)
	base := time.Now()
	for _, sym := range []string{"ETH", "BTC", "ZRX", "AVAX"} {
		for i := 0; i < 10; i++ {
			s.Update([]*models.PricePoint{pt(sym, 1, base)})
		}
	}

	// Universe order first, then strays lexically sorted.
	symbols, histories := s.snapshotEligible([]string{"BTC", "ETH", "SOL"}, 10)
	assert.Equal(t, []string{"BTC", "ETH", "AVAX", "ZRX"}, symbols)
	for _, sym := range symbols {
		assert.Len(t, histories[sym], 10, fmt.Sprintf("history for %s", sym))
	}
}
