package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"
	icache "PairPull/internal/service/cache"
	"PairPull/internal/service/ratelimit"
	"PairPull/internal/usecase"
	xhttp "PairPull/pkg/http"
	xlogger "PairPull/pkg/logger"
	"PairPull/pkg/util"
)

// Per-client budget for the replay endpoint. Replays are bulk writes,
// everything else is read-only and served from memory or cache.
const (
	replayRateCapacity = 5
	replayRateRefill   = 1
)

// SignalsHandler serves the REST and WebSocket API for the pair engine.
type SignalsHandler struct {
	logger  *xlogger.Logger
	runner  *usecase.SignalRunner
	store   drepo.SignalStore
	stream  drepo.MarketStream
	cache   icache.BytesCache
	limiter *ratelimit.Limiter
	hub     *Hub
}

func NewSignalsHandler(
	logger *xlogger.Logger,
	runner *usecase.SignalRunner,
	store drepo.SignalStore,
	stream drepo.MarketStream,
	cache icache.BytesCache,
	hub *Hub,
) *SignalsHandler {
	return &SignalsHandler{
		logger:  logger,
		runner:  runner,
		store:   store,
		stream:  stream,
		cache:   cache,
		limiter: ratelimit.New(),
		hub:     hub,
	}
}

func (h *SignalsHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Healthz)
	e.GET("/ws", h.hub.Serve)

	g := e.Group("/api")
	g.GET("/signals/current", h.CurrentSignal)
	g.GET("/signals/history", h.SignalHistory)
	g.GET("/signals/performance", h.SignalPerformance)
	g.GET("/signals/top-hedge/best", h.TopHedgeBest)
	g.GET("/prices/latest", h.LatestPrices)
	g.GET("/system/status", h.SystemStatus)
	g.GET("/stream/best", h.StreamBest)
	g.POST("/replay/prices", h.ReplayPrices)
}

// CurrentSignal returns the best divergent pair, serving from the cache
// when it is warm and falling back to the runner's in-memory state.
func (h *SignalsHandler) CurrentSignal(c echo.Context) error {
	if b, ok, err := h.cache.GetBytes(usecase.CacheKeyBestSignal); err == nil && ok && len(b) > 0 {
		var sig models.PairAnalysis
		if json.Unmarshal(b, &sig) == nil {
			return xhttp.SuccessResponse(c, &sig)
		}
	}

	sig := h.runner.Latest()
	if sig == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("no qualifying pair yet"))
	}
	return xhttp.SuccessResponse(c, sig)
}

func (h *SignalsHandler) SignalHistory(c echo.Context) error {
	req := &models.SignalHistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.store == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("signal history is not enabled"))
	}

	rows, err := h.store.Recent(c.Request().Context(), req.Limit)
	if err != nil {
		h.logger.Error("signal history query failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

func (h *SignalsHandler) LatestPrices(c echo.Context) error {
	prices := h.runner.LatestPrices()
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=1")
	return xhttp.ListResponse(c, prices, int64(len(prices)))
}

type systemStatus struct {
	Status           string    `json:"status"`
	StreamConnected  bool      `json:"streamConnected"`
	EligiblePairs    int       `json:"eligiblePairs"`
	TrackedSymbols   int       `json:"trackedSymbols"`
	ConnectedClients int       `json:"connectedClients"`
	LastComputeAt    time.Time `json:"lastComputeAt"`
	HasSignal        bool      `json:"hasSignal"`
}

func (h *SignalsHandler) SystemStatus(c echo.Context) error {
	prices := h.runner.LatestPrices()
	st := systemStatus{
		Status:           "ok",
		StreamConnected:  h.stream != nil && h.stream.IsConnected(),
		EligiblePairs:    h.runner.PairCount(),
		TrackedSymbols:   len(prices),
		ConnectedClients: h.hub.ClientCount(),
		LastComputeAt:    h.runner.LastComputeAt(),
		HasSignal:        h.runner.Latest() != nil,
	}
	if !st.StreamConnected {
		st.Status = "degraded"
	}
	return xhttp.SuccessResponse(c, st)
}

type symbolHealth struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
	Source string  `json:"source"`
	AgeSec float64 `json:"ageSec"`
	Points int     `json:"points"`
}

type healthReport struct {
	Status          string         `json:"status"`
	StreamConnected bool           `json:"streamConnected"`
	Symbols         []symbolHealth `json:"symbols"`
}

// Healthz reports per-symbol data freshness. A symbol with no update
// for over a minute marks the whole report degraded.
func (h *SignalsHandler) Healthz(c echo.Context) error {
	now := time.Now()
	rep := healthReport{
		Status:          "ok",
		StreamConnected: h.stream != nil && h.stream.IsConnected(),
	}
	for _, pt := range h.runner.LatestPrices() {
		age := now.Sub(pt.Timestamp).Seconds()
		rep.Symbols = append(rep.Symbols, symbolHealth{
			Symbol: pt.Symbol,
			Price:  pt.Price,
			Source: pt.Source,
			AgeSec: age,
			Points: len(h.runner.HistoryOf(pt.Symbol)),
		})
		if age > 60 {
			rep.Status = "degraded"
		}
	}
	if !rep.StreamConnected {
		rep.Status = "degraded"
	}
	return xhttp.SuccessResponse(c, rep)
}

// SignalPerformance returns lifetime aggregates over emitted signals.
func (h *SignalsHandler) SignalPerformance(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.runner.Performance())
}

// windowPoints approximates each named window by a point count at the
// expected sub-minute sampling density.
var windowPoints = map[string]int{
	"1h":  20,
	"6h":  50,
	"24h": 200,
}

type topHedgeResponse struct {
	AsOf    time.Time            `json:"asOf"`
	Windows []*models.WindowPair `json:"windows"`
}

// TopHedgeBest returns the best pair per requested window, ranked by
// cross-leg percentage-change gap, with per-leg trade sides.
func (h *SignalsHandler) TopHedgeBest(c echo.Context) error {
	raw := c.QueryParam("windows")
	if raw == "" {
		raw = "24h,6h,1h"
	}

	out := topHedgeResponse{AsOf: time.Now().UTC(), Windows: []*models.WindowPair{}}
	for _, w := range strings.Split(raw, ",") {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		n, ok := windowPoints[w]
		if !ok {
			n = windowPoints["1h"]
		}
		row := h.runner.BestWindowPair(n)
		if row == nil {
			continue
		}
		row.Window = w
		out.Windows = append(out.Windows, row)
	}
	return xhttp.SuccessResponse(c, out)
}

// StreamBest serves signal updates over SSE: an initial frame when a
// signal exists, then every broadcast frame, with keep-alive comments
// so proxies hold the connection open.
func (h *SignalsHandler) StreamBest(c echo.Context) error {
	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set(echo.HeaderCacheControl, "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	if sig := h.runner.Latest(); sig != nil {
		if b, err := json.Marshal(wsEvent{Event: "initial_signal", Payload: sig, Ts: time.Now()}); err == nil {
			fmt.Fprintf(w, "data: %s\n\n", b)
		}
	}
	w.Flush()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	keepAlive := time.NewTicker(10 * time.Second)
	defer keepAlive.Stop()

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case b := <-events:
			fmt.Fprintf(w, "data: %s\n\n", b)
			w.Flush()
		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			w.Flush()
		}
	}
}

// ReplayPrices ingests a historical price batch, rate limited per
// client IP.
func (h *SignalsHandler) ReplayPrices(c echo.Context) error {
	if !h.limiter.Allow("replay:"+c.RealIP(), replayRateCapacity, replayRateRefill) {
		return xhttp.AppErrorResponse(c,
			xhttp.NewAppError("rate_limited", "", "too many replay requests", 429))
	}

	req := &models.ReplayPricesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	points := make([]*models.PricePoint, 0, len(req.Prices))
	for _, row := range req.Prices {
		points = append(points, &models.PricePoint{
			Symbol:    row.Symbol,
			Price:     row.Price,
			Change24h: row.Change24h,
			Timestamp: util.ParseTimeDefault(row.Timestamp, time.Now()),
			Source:    models.SourceReplay,
		})
	}
	h.runner.IngestBatch(c.Request().Context(), points)

	return xhttp.SuccessResponse(c, map[string]interface{}{
		"accepted": len(points),
	})
}
