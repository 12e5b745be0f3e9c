// Package kafka publishes JSON-encoded events with segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/Batch-Retrieval-Engine/pkg/config"
)

// Event is the unit of data published to Kafka. Key is used for partition
// hashing and Value is JSON-serialised.
type Event struct {
	Key   string
	Value any
}

// Producer publishes JSON-encoded events to one topic.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

// NewProducer creates a Producer for the configured analytics topic.
func NewProducer(cfg config.KafkaConfig) *Producer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.AnalyticsTopic,
		Balancer:     &kafka.Hash{},
		BatchSize:    100,
		BatchTimeout: 10 * time.Millisecond,
		MaxAttempts:  3,
		RequiredAcks: kafka.RequireOne,
	}
	return &Producer{
		writer: w,
		logger: slog.Default().With("component", "kafka-producer", "topic", cfg.AnalyticsTopic),
	}
}

// Messages encodes events into Kafka messages.
func Messages(events []Event) ([]kafka.Message, error) {
	messages := make([]kafka.Message, 0, len(events))
	for _, event := range events {
		value, err := json.Marshal(event.Value)
		if err != nil {
			return nil, fmt.Errorf("marshaling event value: %w", err)
		}
		messages = append(messages, kafka.Message{
			Key:   []byte(event.Key),
			Value: value,
		})
	}
	return messages, nil
}

// Publish writes a single event synchronously.
func (p *Producer) Publish(ctx context.Context, event Event) error {
	return p.PublishBatch(ctx, []Event{event})
}

// PublishBatch writes multiple events in a single write call.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	messages, err := Messages(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, messages...); err != nil {
		p.logger.Error("failed to publish batch",
			"count", len(messages),
			"error", err,
		)
		return fmt.Errorf("publishing batch to kafka: %w", err)
	}
	p.logger.Debug("batch published", "count", len(messages))
	return nil
}

// Close flushes pending writes and closes the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}
