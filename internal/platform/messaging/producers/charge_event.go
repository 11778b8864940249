package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/chargehub-payments-api/internal/config"
	"github.com/segmentio/kafka-go"
)

// ChargeEventProducer publishes charge lifecycle events drained from the
// outbox. Writes are synchronous: the dispatcher only marks an outbox
// message processed once the broker has acknowledged it.
type ChargeEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter // Interface for testability
	topic  string
}

// NewChargeEventProducer creates the producer and ensures the events topic exists.
func NewChargeEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*ChargeEventProducer, error) {
	if cfg.EventsTopic == "" {
		return nil, fmt.Errorf("kafka events topic is not configured")
	}

	conn, err := kafka.Dial("tcp", cfg.Brokers)
	if err != nil {
		return nil, fmt.Errorf("failed to dial kafka for charge event producer: %w", err)
	}
	defer conn.Close()

	err = createKafkaTopicIfNotExists(conn, cfg.EventsTopic, cfg.NumPartitions, cfg.ReplicationFactor, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure events topic %s exists: %w", cfg.EventsTopic, err)
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers),
		Topic:        cfg.EventsTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		Async:        false,
		WriteTimeout: cfg.MaxWait,
	}

	return &ChargeEventProducer{
		logger: logger,
		writer: writer,
		topic:  cfg.EventsTopic,
	}, nil
}

func (p *ChargeEventProducer) Publish(ctx context.Context, key string, value interface{}) error {
	jsonValue, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal charge event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(key),
		Value: jsonValue,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish charge event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish charge event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published charge event",
		"topic", p.topic,
		"key", key,
	)
	return nil
}

func (p *ChargeEventProducer) Close() error {
	p.logger.Info("Closing charge event Kafka producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
