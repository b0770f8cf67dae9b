package usecase

import (
	"context"
	"encoding/json"
	"time"

	"PairPull/internal/domain/models"
	drepo "PairPull/internal/domain/repository"
	pkgkafka "PairPull/pkg/kafka"
	"PairPull/pkg/util"
)

// KafkaPricesHandler consumes replayed price batches from Kafka and
// feeds them into the engine. The bus mirror of POST /api/replay/prices.
type KafkaPricesHandler struct {
	topic   string
	runner  *SignalRunner
	metrics drepo.Metrics
}

func NewKafkaPricesHandler(topic string, runner *SignalRunner, metrics drepo.Metrics) *KafkaPricesHandler {
	return &KafkaPricesHandler{topic: topic, runner: runner, metrics: metrics}
}

func (h *KafkaPricesHandler) Topic() string { return h.topic }

// incoming message schema: {prices: [{symbol, price, change24h, timestamp}]}
func (h *KafkaPricesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		Prices []models.ReplayPriceRow `json:"prices"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if len(m.Prices) == 0 {
		return nil
	}

	now := time.Now().UTC()
	points := make([]*models.PricePoint, 0, len(m.Prices))
	for _, row := range m.Prices {
		if row.Symbol == "" || row.Price <= 0 {
			h.metrics.RecordError("consumer_invalid_row")
			continue
		}
		points = append(points, &models.PricePoint{
			Symbol:    row.Symbol,
			Price:     row.Price,
			Change24h: row.Change24h,
			Timestamp: util.ParseTimeDefault(row.Timestamp, now),
			Source:    models.SourceReplay,
		})
	}
	if len(points) == 0 {
		return nil
	}

	h.runner.IngestBatch(ctx, points)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPricesHandler)(nil)
