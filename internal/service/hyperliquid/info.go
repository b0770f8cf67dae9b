package hyperliquid

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"PairPull/internal/domain/models"
	xhttp "PairPull/pkg/http"
)

// InfoClient polls the Hyperliquid HTTP info endpoint. It backs the
// ingestion path when the WebSocket is down and the initial history seed.
type InfoClient struct {
	url     string
	symbols []string
	client  *xhttp.Client
}

// NewInfoClient creates a client for the /info endpoint.
func NewInfoClient(url string, symbols []string, timeout time.Duration) *InfoClient {
	return &InfoClient{
		url:     url,
		symbols: symbols,
		client:  xhttp.NewClient(xhttp.WithTimeout(timeout)),
	}
}

// FetchMids fetches current mid prices for the configured universe.
func (c *InfoClient) FetchMids(ctx context.Context) ([]*models.PricePoint, error) {
	var mids map[string]string
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    c.url,
		Body:   map[string]string{"type": "allMids"},
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
	}, &mids)
	if err != nil {
		return nil, fmt.Errorf("fetch allMids: %w", err)
	}

	now := time.Now().UTC()
	points := make([]*models.PricePoint, 0, len(c.symbols))
	for _, sym := range c.symbols {
		raw, ok := mids[sym]
		if !ok {
			continue
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			continue
		}
		points = append(points, &models.PricePoint{
			Symbol:    sym,
			Price:     price,
			Timestamp: now,
			Source:    models.SourceHyperliquidHTTP,
		})
	}
	return points, nil
}
