package outbox_dispatcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/chargehub-payments-api/internal/domain/outbox"
	"github.com/chargehub-payments-api/internal/platform/messaging/producers"
)

// EventPublisher publishes a staged outbox message to the event stream
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher on top of the charge
// event producer
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	logger     *slog.Logger
}

// NewKafkaEventPublisher creates a new publisher
func NewKafkaEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		logger:     logger,
	}
}

// PublishEvent decodes the staged payload, hands it to Kafka keyed by
// charge ID, and marks the message PROCESSED once the broker acknowledged
// the write. A payload that no longer decodes is unrecoverable and is
// parked as FAILED_TO_PUBLISH immediately.
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	event, err := message.GetEvent()
	if err != nil {
		p.logger.Error("Failed to unmarshal charge event from outbox payload",
			"outbox_id", message.ID, "charge_id", message.ChargeID, "error", err,
		)
		if updateErr := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusFailedToPublish); updateErr != nil {
			p.logger.Error("Also failed to update outbox status to FAILED_TO_PUBLISH after unmarshal error", "outbox_id", message.ID, "update_error", updateErr)
		}
		return fmt.Errorf("unmarshal payload for outbox %d failed: %w", message.ID, err)
	}

	logger := p.logger
	if event.CorrelationID != "" {
		logger = p.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Attempting to publish outbox message to Kafka",
		"outbox_id", message.ID, "charge_id", message.ChargeID, "event_type", event.Type,
	)

	// Keying by charge ID keeps all events for a charge on one partition,
	// so consumers see status changes in order.
	if err := p.producer.Publish(ctx, event.ChargeID.String(), event); err != nil {
		logger.Error("Failed to publish charge event", "outbox_id", message.ID, "charge_id", message.ChargeID, "error", err)
		return fmt.Errorf("failed to publish charge event for outbox %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, outbox.StatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "charge_id", message.ChargeID, "error", err,
		)
		return fmt.Errorf("event for charge %s published, but failed to mark outbox %d as PROCESSED: %w", message.ChargeID, message.ID, err)
	}

	logger.Info("Outbox message successfully published and marked as PROCESSED", "outbox_id", message.ID, "charge_id", message.ChargeID)
	return nil
}
