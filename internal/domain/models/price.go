package models

import "time"

// Price provenance values. Synthetic points come only from the bootstrap
// seeder; the engine itself never fabricates data.
const (
	SourceHyperliquidWS   = "hyperliquid_ws"
	SourceHyperliquidHTTP = "hyperliquid_http"
	SourceSynthetic       = "synthetic"
	SourceReplay          = "replay"
)

// PricePoint is a single observed price for one instrument.
// Immutable once created.
type PricePoint struct {
	Symbol    string    `json:"symbol"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Change24h float64   `json:"change24h"`
	Source    string    `json:"source,omitempty"`
}

// ChartPoint is a (timestamp, price) sample used in signal payloads.
type ChartPoint struct {
	T time.Time `json:"t"`
	P float64   `json:"p"`
}
