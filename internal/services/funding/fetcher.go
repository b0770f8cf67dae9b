package funding

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	icache "PairPull/internal/service/cache"
	xhttp "PairPull/pkg/http"
	"PairPull/pkg/logger"
)

const cacheKey = "pairpull:funding:latest"

// Fetcher polls funding-rate history across exchanges and keeps the
// latest observed rate per symbol, in basis points per funding interval.
// The first exchange that answers for a symbol wins; exchanges are tried
// in the configured order.
type Fetcher struct {
	log       *logger.Logger
	client    *xhttp.Client
	symbols   []string
	exchanges []string
	cache     icache.BytesCache

	mu     sync.RWMutex
	latest map[string]float64
}

// New creates a funding fetcher. cache may be nil.
func New(log *logger.Logger, symbols, exchanges []string, cache icache.BytesCache) *Fetcher {
	if len(exchanges) == 0 {
		exchanges = []string{"hyperliquid", "binance", "bybit", "okx"}
	}
	return &Fetcher{
		log:       log,
		client:    xhttp.NewClient(xhttp.WithTimeout(10 * time.Second)),
		symbols:   symbols,
		exchanges: exchanges,
		cache:     cache,
		latest:    make(map[string]float64),
	}
}

// LatestFunding implements domain/service.FundingSource.
func (f *Fetcher) LatestFunding(symbol string) float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.latest[symbol]
}

// Run refreshes rates at the given interval until ctx is cancelled.
func (f *Fetcher) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	f.RefreshAll(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			f.RefreshAll(ctx)
		}
	}
}

// RefreshAll fetches the latest rate for every symbol.
func (f *Fetcher) RefreshAll(ctx context.Context) {
	updated := make(map[string]float64, len(f.symbols))
	for _, sym := range f.symbols {
		rate, err := f.fetchSymbol(ctx, sym)
		if err != nil {
			f.log.Warn("funding fetch failed",
				logger.String("symbol", sym),
				logger.Error(err))
			continue
		}
		updated[sym] = rate
	}
	if len(updated) == 0 {
		return
	}

	f.mu.Lock()
	for sym, rate := range updated {
		f.latest[sym] = rate
	}
	snapshot := make(map[string]float64, len(f.latest))
	for k, v := range f.latest {
		snapshot[k] = v
	}
	f.mu.Unlock()

	if f.cache != nil {
		if b, err := json.Marshal(snapshot); err == nil {
			_ = f.cache.SetBytes(cacheKey, b, 30*time.Minute)
		}
	}
}

func (f *Fetcher) fetchSymbol(ctx context.Context, symbol string) (float64, error) {
	var lastErr error
	for _, ex := range f.exchanges {
		var (
			rate float64
			err  error
		)
		switch ex {
		case "binance":
			rate, err = f.fetchBinance(ctx, symbol)
		case "bybit":
			rate, err = f.fetchBybit(ctx, symbol)
		case "okx":
			rate, err = f.fetchOKX(ctx, symbol)
		case "hyperliquid":
			rate, err = f.fetchHyperliquid(ctx, symbol)
		default:
			continue
		}
		if err == nil {
			return rate, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no exchange configured")
	}
	return 0, lastErr
}

type binanceRate struct {
	FundingRate string `json:"fundingRate"`
	FundingTime int64  `json:"fundingTime"`
}

func (f *Fetcher) fetchBinance(ctx context.Context, symbol string) (float64, error) {
	var rows []binanceRate
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    "https://fapi.binance.com/fapi/v1/fundingRate",
		QueryParams: map[string][]string{
			"symbol": {symbol + "USDT"},
			"limit":  {"1"},
		},
	}, &rows)
	if err != nil {
		return 0, fmt.Errorf("binance: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("binance: empty history for %s", symbol)
	}
	return toBps(rows[len(rows)-1].FundingRate)
}

type bybitResponse struct {
	RetCode int `json:"retCode"`
	Result  struct {
		List []struct {
			FundingRate string `json:"fundingRate"`
		} `json:"list"`
	} `json:"result"`
}

func (f *Fetcher) fetchBybit(ctx context.Context, symbol string) (float64, error) {
	var resp bybitResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    "https://api.bybit.com/v5/market/funding/history",
		QueryParams: map[string][]string{
			"category": {"linear"},
			"symbol":   {symbol + "USDT"},
			"limit":    {"1"},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("bybit: %w", err)
	}
	if resp.RetCode != 0 || len(resp.Result.List) == 0 {
		return 0, fmt.Errorf("bybit: no data for %s", symbol)
	}
	return toBps(resp.Result.List[0].FundingRate)
}

type okxResponse struct {
	Code string `json:"code"`
	Data []struct {
		RealizedRate string `json:"realizedRate"`
	} `json:"data"`
}

func (f *Fetcher) fetchOKX(ctx context.Context, symbol string) (float64, error) {
	var resp okxResponse
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    "https://www.okx.com/api/v5/public/funding-rate-history",
		QueryParams: map[string][]string{
			"instId": {symbol + "-USDT-SWAP"},
			"limit":  {"1"},
		},
	}, &resp)
	if err != nil {
		return 0, fmt.Errorf("okx: %w", err)
	}
	if resp.Code != "0" || len(resp.Data) == 0 {
		return 0, fmt.Errorf("okx: no data for %s", symbol)
	}
	return toBps(resp.Data[0].RealizedRate)
}

type hlFundingRow struct {
	Time        int64  `json:"time"`
	FundingRate string `json:"fundingRate"`
}

func (f *Fetcher) fetchHyperliquid(ctx context.Context, symbol string) (float64, error) {
	start := time.Now().Add(-24 * time.Hour).UnixMilli()
	var rows []hlFundingRow
	err := f.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    "https://api.hyperliquid.xyz/info",
		Body: map[string]interface{}{
			"type":      "fundingHistory",
			"coin":      symbol,
			"startTime": start,
		},
	}, &rows)
	if err != nil {
		return 0, fmt.Errorf("hyperliquid: %w", err)
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("hyperliquid: empty history for %s", symbol)
	}
	return toBps(rows[len(rows)-1].FundingRate)
}

// toBps converts an exchange decimal rate (0.0001 = 1 bps) to basis
// points.
func toBps(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("parse funding rate %q: %w", raw, err)
	}
	return v * 10000, nil
}
