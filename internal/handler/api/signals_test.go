package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"PairPull/internal/domain/models"
	"PairPull/internal/engine"
	internalrepo "PairPull/internal/repository"
	icache "PairPull/internal/service/cache"
	"PairPull/internal/usecase"
	"PairPull/pkg/logger"
)

type stubCosts struct{}

func (stubCosts) Fees(a, b string) float64     { return 2 }
func (stubCosts) Funding(a, b string) float64  { return 0 }
func (stubCosts) Slippage(a, b string) float64 { return 0.5 }

type stubStream struct{ connected bool }

func (s *stubStream) Connect(ctx context.Context) error   { return nil }
func (s *stubStream) Subscribe(ctx context.Context) error { return nil }
func (s *stubStream) Read(ctx context.Context) (<-chan *models.PricePoint, <-chan error) {
	return nil, nil
}
func (s *stubStream) Reconnect(ctx context.Context) error { return nil }
func (s *stubStream) Close() error                        { return nil }
func (s *stubStream) IsConnected() bool                   { return s.connected }

type stubMetrics struct{}

func (stubMetrics) RecordPriceUpdate(string, string, float64) {}
func (stubMetrics) RecordSignal(string, string, string)       {}
func (stubMetrics) RecordError(string)                        {}
func (stubMetrics) RecordLatency(string, float64)             {}

type fixture struct {
	handler *SignalsHandler
	runner  *usecase.SignalRunner
	echo    *echo.Echo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	require.NoError(t, err)

	eng := engine.New(engine.Config{Universe: []string{"AAA", "BBB"}}, stubCosts{})
	cache := icache.NewTTLCache()
	store := internalrepo.NewMemorySignalStore(100)
	runner := usecase.NewSignalRunner(log, eng, cache, store, stubMetrics{})
	hub := NewHub(log, runner)

	h := NewSignalsHandler(log, runner, store, &stubStream{connected: true}, cache, hub)
	e := echo.New()
	h.RegisterRoutes(e)
	return &fixture{handler: h, runner: runner, echo: e}
}

// seedSignal ingests a diverging pair and forces one selection pass.
func (f *fixture) seedSignal(t *testing.T) *models.PairAnalysis {
	t.Helper()
	end := time.Now().UTC()
	var points []*models.PricePoint
	for i := 0; i < 20; i++ {
		ts := end.Add(-time.Duration(19-i) * time.Minute)
		points = append(points, &models.PricePoint{Symbol: "AAA", Price: 100 + float64(i), Timestamp: ts})
		pb := 100 + float64(i)
		if i == 19 {
			pb = 130
		}
		points = append(points, &models.PricePoint{Symbol: "BBB", Price: pb, Timestamp: ts})
	}
	f.runner.IngestBatch(context.Background(), points)
	sig := f.runner.ComputeNow(context.Background())
	require.NotNil(t, sig)
	return sig
}

func doJSON(e *echo.Echo, method, target, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var envelope map[string]interface{}
	_ = json.Unmarshal(rec.Body.Bytes(), &envelope)
	return rec, envelope
}

func TestCurrentSignalEmpty(t *testing.T) {
	f := newFixture(t)
	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/current", "")
	assert.Equal(t, float64(http.StatusNotFound), env["status"])
}

func TestCurrentSignal(t *testing.T) {
	f := newFixture(t)
	want := f.seedSignal(t)

	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/current", "")
	require.Equal(t, float64(http.StatusOK), env["status"])

	data := env["data"].(map[string]interface{})
	assert.Equal(t, want.PairA, data["pairA"])
	assert.Equal(t, want.PairB, data["pairB"])
	assert.Equal(t, string(want.SignalType), data["signalType"])
}

func TestSignalHistory(t *testing.T) {
	f := newFixture(t)
	f.seedSignal(t)

	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/history?limit=10", "")
	require.Equal(t, float64(http.StatusOK), env["status"])

	data := env["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}

func TestSignalHistoryRejectsBadLimit(t *testing.T) {
	f := newFixture(t)
	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/history?limit=10000", "")
	assert.Equal(t, float64(http.StatusBadRequest), env["status"])
}

func TestLatestPrices(t *testing.T) {
	f := newFixture(t)
	f.seedSignal(t)

	_, env := doJSON(f.echo, http.MethodGet, "/api/prices/latest", "")
	require.Equal(t, float64(http.StatusOK), env["status"])

	data := env["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	require.Len(t, rows, 2)
	first := rows[0].(map[string]interface{})
	assert.Equal(t, "AAA", first["symbol"])
}

func TestSystemStatus(t *testing.T) {
	f := newFixture(t)
	f.seedSignal(t)

	_, env := doJSON(f.echo, http.MethodGet, "/api/system/status", "")
	require.Equal(t, float64(http.StatusOK), env["status"])

	data := env["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.Equal(t, true, data["streamConnected"])
	assert.Equal(t, float64(2), data["eligiblePairs"])
	assert.Equal(t, true, data["hasSignal"])
}

func TestHealthzDegradedOnStaleData(t *testing.T) {
	f := newFixture(t)
	f.runner.IngestBatch(context.Background(), []*models.PricePoint{{
		Symbol:    "AAA",
		Price:     100,
		Timestamp: time.Now().Add(-5 * time.Minute),
	}})

	_, env := doJSON(f.echo, http.MethodGet, "/healthz", "")
	data := env["data"].(map[string]interface{})
	assert.Equal(t, "degraded", data["status"])
}

func TestSignalPerformance(t *testing.T) {
	f := newFixture(t)

	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/performance", "")
	require.Equal(t, float64(http.StatusOK), env["status"])
	data := env["data"].(map[string]interface{})
	assert.Equal(t, float64(0), data["totalSignals"])

	want := f.seedSignal(t)
	_, env = doJSON(f.echo, http.MethodGet, "/api/signals/performance", "")
	data = env["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["totalSignals"])
	assert.InDelta(t, want.Confidence, data["avgConfidence"].(float64), 1e-9)
	assert.InDelta(t, want.ExpectedEdge, data["avgExpectedEdge"].(float64), 1e-9)
}

func TestTopHedgeBest(t *testing.T) {
	f := newFixture(t)
	f.seedSignal(t)

	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/top-hedge/best?windows=1h", "")
	require.Equal(t, float64(http.StatusOK), env["status"])

	data := env["data"].(map[string]interface{})
	windows := data["windows"].([]interface{})
	require.Len(t, windows, 1)

	row := windows[0].(map[string]interface{})
	assert.Equal(t, "1h", row["window"])
	pair := row["pair"].(map[string]interface{})
	assert.Equal(t, "AAA", pair["a"])
	assert.Equal(t, "BBB", pair["b"])
	sides := row["sides"].(map[string]interface{})
	assert.Equal(t, "LONG", sides["a"])
	assert.Equal(t, "SHORT", sides["b"])
}

func TestTopHedgeBestEmptyUniverse(t *testing.T) {
	f := newFixture(t)
	_, env := doJSON(f.echo, http.MethodGet, "/api/signals/top-hedge/best", "")
	require.Equal(t, float64(http.StatusOK), env["status"])
	data := env["data"].(map[string]interface{})
	assert.Empty(t, data["windows"])
}

func TestStreamBest(t *testing.T) {
	f := newFixture(t)
	f.seedSignal(t)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/api/stream/best", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		f.echo.ServeHTTP(rec, req)
		close(done)
	}()

	hub := f.handler.hub
	require.Eventually(t, func() bool {
		hub.mu.RLock()
		defer hub.mu.RUnlock()
		return len(hub.sse) == 1
	}, time.Second, 5*time.Millisecond, "stream handler never subscribed")

	hub.Broadcast("signal_update", f.runner.Latest())
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get(echo.HeaderContentType))
	assert.Contains(t, body, "data: ")
	assert.Contains(t, body, "initial_signal")
	assert.Contains(t, body, "signal_update")
}

func TestReplayPrices(t *testing.T) {
	f := newFixture(t)

	body := `{"prices":[{"symbol":"AAA","price":101.5,"timestamp":"2026-02-10T15:00:00Z"}]}`
	_, env := doJSON(f.echo, http.MethodPost, "/api/replay/prices", body)
	require.Equal(t, float64(http.StatusOK), env["status"])

	data := env["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["accepted"])
	assert.Len(t, f.runner.HistoryOf("AAA"), 1)
}

func TestReplayPricesValidation(t *testing.T) {
	f := newFixture(t)

	_, env := doJSON(f.echo, http.MethodPost, "/api/replay/prices", `{"prices":[]}`)
	assert.Equal(t, float64(http.StatusBadRequest), env["status"])

	_, env = doJSON(f.echo, http.MethodPost, "/api/replay/prices", `{"prices":[{"symbol":"AAA","price":-1}]}`)
	assert.Equal(t, float64(http.StatusBadRequest), env["status"])
}

func TestReplayPricesRateLimited(t *testing.T) {
	f := newFixture(t)
	body := `{"prices":[{"symbol":"AAA","price":101.5}]}`

	limited := false
	for i := 0; i < 20; i++ {
		_, env := doJSON(f.echo, http.MethodPost, "/api/replay/prices", body)
		if env["status"] == float64(429) {
			limited = true
			break
		}
	}
	assert.True(t, limited, "burst of replays should trip the limiter")
}
