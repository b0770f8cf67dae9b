package funding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToBps(t *testing.T) {
	got, err := toBps("0.0001")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-9)

	got, err = toBps("-0.00025")
	require.NoError(t, err)
	assert.InDelta(t, -2.5, got, 1e-9)

	_, err = toBps("n/a")
	assert.Error(t, err)
}

func TestLatestFundingUnknownSymbol(t *testing.T) {
	f := New(testLogger(t), []string{"BTC"}, nil, nil)
	assert.Equal(t, 0.0, f.LatestFunding("BTC"))
	assert.Equal(t, 0.0, f.LatestFunding("never-fetched"))
}

func TestFetchSymbolNoExchanges(t *testing.T) {
	f := New(testLogger(t), []string{"BTC"}, []string{"unknown-exchange"}, nil)
	_, err := f.fetchSymbol(context.Background(), "BTC")
	assert.Error(t, err)
}
