package models

// Requests for the HTTP API. Defined in domain for consistency and reuse.

type SignalHistoryRequest struct {
	Limit int `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

type ReplayPriceRow struct {
	Symbol    string  `json:"symbol" validate:"required"`
	Price     float64 `json:"price" validate:"gt=0"`
	Change24h float64 `json:"change24h"`
	Timestamp string  `json:"timestamp"`
}

type ReplayPricesRequest struct {
	Prices []ReplayPriceRow `json:"prices" validate:"required,min=1,max=1000,dive"`
}
