package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	dbgen "github.com/noah-isme/toko-checkout/internal/db/gen"
)

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// NewKafkaWriter builds a writer for topic. Messages are keyed by aggregate so
// events of one order land on one partition.
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

// KafkaPublisher forwards persisted domain events to Kafka.
type KafkaPublisher struct {
	Writer MessageWriter
}

type kafkaEnvelope struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

// Notify implements Notifier.
func (p *KafkaPublisher) Notify(ctx context.Context, ev dbgen.DomainEvent) error {
	if p == nil || p.Writer == nil {
		return nil
	}
	value, err := json.Marshal(kafkaEnvelope{
		ID:          ev.ID.String(),
		Topic:       ev.Topic,
		AggregateID: ev.AggregateID.String(),
		OccurredAt:  ev.OccurredAt.Time.UTC(),
		Payload:     json.RawMessage(ev.Payload),
	})
	if err != nil {
		return fmt.Errorf("kafka: encode event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(ev.AggregateID.String()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(ev.Topic)},
		},
	}
	if err := p.Writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka: publish %s: %w", ev.Topic, err)
	}
	return nil
}
