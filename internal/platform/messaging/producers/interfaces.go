// Package producers holds the Kafka producers draining the charge outbox:
// the events producer the dispatcher publishes through, and the DLQ
// producer that receives messages whose retry budget is exhausted.
package producers

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes one value under a key. The outbox dispatcher
// keys every charge event by charge ID so consumers see a charge's
// lifecycle in partition order.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// DeadLetterPublisher parks an undeliverable message with the reason it
// was given up on. The original payload travels inside the DLQ envelope.
type DeadLetterPublisher interface {
	PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error
	Close() error
}

// KafkaWriter is the slice of kafka.Writer both producers use, kept as an
// interface so tests can swap in a mock writer.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}
