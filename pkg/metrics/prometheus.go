package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	priceUpdates *prometheus.CounterVec
	signalsTotal *prometheus.CounterVec
	errorsTotal  *prometheus.CounterVec
	lastPrice    *prometheus.GaugeVec
	latency      *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		priceUpdates: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairpull_price_updates_total",
				Help: "Total number of price observations ingested",
			},
			[]string{"source", "symbol"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairpull_signals_total",
				Help: "Total number of signals emitted",
			},
			[]string{"pair_a", "pair_b", "type"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pairpull_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "pairpull_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pairpull_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPriceUpdate records an ingested price observation.
func (r *Recorder) RecordPriceUpdate(symbol, source string, price float64) {
	r.priceUpdates.WithLabelValues(source, symbol).Inc()
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordSignal records an emitted signal.
func (r *Recorder) RecordSignal(pairA, pairB, signalType string) {
	r.signalsTotal.WithLabelValues(pairA, pairB, signalType).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
