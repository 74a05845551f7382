// Package publish announces committed actions and optimizer results to
// downstream consumers.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Akondltd/radbot/internal/domain"
	"github.com/Akondltd/radbot/internal/engine"
	"github.com/Akondltd/radbot/internal/observability"
)

// Event types.
const (
	EventAction       = "action"
	EventOptimization = "optimization"
)

// Event is the envelope written to the topic. Messages are keyed by trade ID
// so one trade's events stay ordered within a partition.
type Event struct {
	Type        string          `json:"type"`
	TradeID     string          `json:"trade_id"`
	TimestampMs int64           `json:"timestamp_ms"`
	Payload     json.RawMessage `json:"payload"`
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds producer settings.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	RequiredAcks int // -1 = all
	MaxAttempts  int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// KafkaPublisher writes events to a Kafka topic.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

var _ engine.EventPublisher = (*KafkaPublisher)(nil)

// NewKafkaPublisher creates a synchronous Kafka publisher.
func NewKafkaPublisher(cfg KafkaConfig) (*KafkaPublisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("topic is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 50 * time.Millisecond
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            kafka.Gzip,
		MaxAttempts:            cfg.MaxAttempts,
		BatchTimeout:           cfg.BatchTimeout,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return newKafkaPublisher(writer, cfg.Topic), nil
}

func newKafkaPublisher(w messageWriter, topic string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, topic: topic, now: time.Now}
}

// PublishAction implements engine.EventPublisher.
func (p *KafkaPublisher) PublishAction(ctx context.Context, action *domain.Action) error {
	return p.publish(ctx, EventAction, action.TradeID, action)
}

// PublishOptimization implements engine.EventPublisher.
func (p *KafkaPublisher) PublishOptimization(ctx context.Context, result *domain.OptimizationResult) error {
	return p.publish(ctx, EventOptimization, result.TradeID, result)
}

func (p *KafkaPublisher) publish(ctx context.Context, eventType, tradeID string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", eventType, err)
	}
	value, err := json.Marshal(Event{
		Type:        eventType,
		TradeID:     tradeID,
		TimestampMs: p.now().UnixMilli(),
		Payload:     body,
	})
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(tradeID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(eventType)},
		},
	})
	observability.RecordCollaboratorCall("kafka", time.Since(start).Seconds(), err)
	if err != nil {
		return fmt.Errorf("publish %s to %s: %w", eventType, p.topic, err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
