package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReplayRunner(t *testing.T) (*SignalRunner, *fakeMetrics) {
	t.Helper()
	m := newFakeMetrics()
	return NewSignalRunner(testLogger(t), testEngine("BTC", "ETH"), testCache(), &fakeStore{}, m), m
}

func TestKafkaPricesHandlerIngests(t *testing.T) {
	r, _ := newReplayRunner(t)
	h := NewKafkaPricesHandler("prices.replay", r, newFakeMetrics())

	assert.Equal(t, "prices.replay", h.Topic())

	msg := []byte(`{"prices":[
		{"symbol":"BTC","price":43000.5,"change24h":1.2,"timestamp":"2026-02-10T15:00:00Z"},
		{"symbol":"ETH","price":2300.25,"timestamp":"2026-02-10T15:00:00Z"}
	]}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	assert.Len(t, r.HistoryOf("BTC"), 1)
	assert.Len(t, r.HistoryOf("ETH"), 1)
	assert.Equal(t, 43000.5, r.HistoryOf("BTC")[0].Price)
}

func TestKafkaPricesHandlerSkipsInvalidRows(t *testing.T) {
	r, _ := newReplayRunner(t)
	m := newFakeMetrics()
	h := NewKafkaPricesHandler("prices.replay", r, m)

	msg := []byte(`{"prices":[
		{"symbol":"","price":100},
		{"symbol":"BTC","price":-5},
		{"symbol":"ETH","price":2300}
	]}`)
	require.NoError(t, h.Handle(context.Background(), msg))

	assert.Len(t, r.HistoryOf("ETH"), 1)
	assert.Empty(t, r.HistoryOf("BTC"))
	assert.Equal(t, 2, m.errorCount("consumer_invalid_row"))
}

func TestKafkaPricesHandlerBadPayload(t *testing.T) {
	r, _ := newReplayRunner(t)
	m := newFakeMetrics()
	h := NewKafkaPricesHandler("prices.replay", r, m)

	err := h.Handle(context.Background(), []byte(`not json`))
	require.Error(t, err)
	assert.Equal(t, 1, m.errorCount("consumer_unmarshal"))
}

func TestKafkaPricesHandlerEmptyBatch(t *testing.T) {
	r, _ := newReplayRunner(t)
	h := NewKafkaPricesHandler("prices.replay", r, newFakeMetrics())

	require.NoError(t, h.Handle(context.Background(), []byte(`{"prices":[]}`)))
	assert.Empty(t, r.LatestPrices())
}
