package repository

import (
	"context"
	"fmt"

	"PairPull/internal/domain/models"
	"PairPull/internal/domain/repository"
	pkgkafka "PairPull/pkg/kafka"
)

// KafkaPublisher publishes price batches and signals to Kafka. Prices
// are keyed by symbol so each instrument stays in partition order.
type KafkaPublisher struct {
	producer     *pkgkafka.Producer
	pricesTopic  string
	signalsTopic string
}

// NewKafkaPublisher creates a Kafka-backed publisher.
func NewKafkaPublisher(producer *pkgkafka.Producer, pricesTopic, signalsTopic string) repository.Publisher {
	return &KafkaPublisher{
		producer:     producer,
		pricesTopic:  pricesTopic,
		signalsTopic: signalsTopic,
	}
}

func (p *KafkaPublisher) PublishPrices(ctx context.Context, points []*models.PricePoint) error {
	if len(points) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, 0, len(points))
	for _, pt := range points {
		if pt == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(pt.Symbol),
			Value: pt,
		})
	}
	return p.producer.PublishBatch(ctx, p.pricesTopic, msgs)
}

func (p *KafkaPublisher) PublishSignal(ctx context.Context, sig *models.PairAnalysis) error {
	if sig == nil {
		return nil
	}
	key := fmt.Sprintf("%s|%s", sig.PairA, sig.PairB)
	return p.producer.Publish(ctx, p.signalsTopic, []byte(key), sig)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
