package costs

import (
	"math"

	domsvc "PairPull/internal/domain/service"
)

// FixedCostModel prices execution with flat constants. All outputs are
// deterministic for a given pair, which keeps signal selection
// reproducible.
type FixedCostModel struct {
	TakerFeeBps float64
	SlippageBps float64
}

// NewFixedCostModel creates a fixed model. A spread round trip crosses
// the book four times (open and close on both legs), so the taker fee is
// charged per fill.
func NewFixedCostModel(takerFeeBps, slippageBps float64) *FixedCostModel {
	return &FixedCostModel{TakerFeeBps: takerFeeBps, SlippageBps: slippageBps}
}

func (m *FixedCostModel) Fees(symbolA, symbolB string) float64 {
	return 4 * m.TakerFeeBps
}

func (m *FixedCostModel) Funding(symbolA, symbolB string) float64 {
	return 0
}

func (m *FixedCostModel) Slippage(symbolA, symbolB string) float64 {
	return 2 * m.SlippageBps
}

// FundingCostModel decorates a base model with the funding-rate
// differential between the two legs. Holding a spread pays one leg's
// funding and receives the other's; the cost is the absolute gap.
type FundingCostModel struct {
	base   domsvc.CostModel
	source domsvc.FundingSource
}

// NewFundingCostModel wraps base with live funding rates.
func NewFundingCostModel(base domsvc.CostModel, source domsvc.FundingSource) *FundingCostModel {
	return &FundingCostModel{base: base, source: source}
}

func (m *FundingCostModel) Fees(symbolA, symbolB string) float64 {
	return m.base.Fees(symbolA, symbolB)
}

func (m *FundingCostModel) Funding(symbolA, symbolB string) float64 {
	return math.Abs(m.source.LatestFunding(symbolA) - m.source.LatestFunding(symbolB))
}

func (m *FundingCostModel) Slippage(symbolA, symbolB string) float64 {
	return m.base.Slippage(symbolA, symbolB)
}
