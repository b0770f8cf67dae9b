package costs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubFunding map[string]float64

func (s stubFunding) LatestFunding(symbol string) float64 { return s[symbol] }

func TestFixedCostModelDeterministic(t *testing.T) {
	m := NewFixedCostModel(2.5, 1.0)

	assert.Equal(t, 10.0, m.Fees("BTC", "ETH"))
	assert.Equal(t, 0.0, m.Funding("BTC", "ETH"))
	assert.Equal(t, 2.0, m.Slippage("BTC", "ETH"))

	// Same inputs, same outputs.
	assert.Equal(t, m.Fees("BTC", "ETH"), m.Fees("BTC", "ETH"))
	assert.Equal(t, m.Fees("BTC", "ETH"), m.Fees("SOL", "AVAX"))
}

func TestFundingCostModelDifferential(t *testing.T) {
	base := NewFixedCostModel(2.5, 1.0)
	m := NewFundingCostModel(base, stubFunding{"BTC": 1.5, "ETH": -0.5})

	assert.Equal(t, 2.0, m.Funding("BTC", "ETH"))
	assert.Equal(t, 2.0, m.Funding("ETH", "BTC"), "differential is symmetric")
	assert.Equal(t, 1.5, m.Funding("BTC", "SOL"), "unknown symbol reads as zero")

	// Fees and slippage pass through to the base model.
	assert.Equal(t, base.Fees("BTC", "ETH"), m.Fees("BTC", "ETH"))
	assert.Equal(t, base.Slippage("BTC", "ETH"), m.Slippage("BTC", "ETH"))
}
