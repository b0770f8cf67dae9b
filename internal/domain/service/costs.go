package service

// CostModel prices the round-trip execution of a spread trade.
// All values are in basis points. Implementations must be deterministic
// for a given input so the selection path stays reproducible.
type CostModel interface {
	Fees(symbolA, symbolB string) float64
	Funding(symbolA, symbolB string) float64
	Slippage(symbolA, symbolB string) float64
}

// FundingSource exposes the latest observed funding rate (in bps per
// funding interval) for a perp symbol. Zero when unknown.
type FundingSource interface {
	LatestFunding(symbol string) float64
}
