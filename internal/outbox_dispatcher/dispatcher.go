package outbox_dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chargehub-payments-api/internal/config"
	"github.com/chargehub-payments-api/internal/domain/outbox"
	"github.com/chargehub-payments-api/internal/platform/messaging/producers"
)

// Dispatcher drains pending outbox messages to Kafka on a fixed interval.
// Messages in a batch are published concurrently through a bounded worker
// pool; a batch never overlaps with the next tick.
type Dispatcher struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	dlqProducer      producers.DeadLetterPublisher
	pool             *ants.Pool
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewDispatcher(
	outboxCfg *config.OutboxConfig,
	poolCfg *config.WorkerPoolConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	dlqProducer producers.DeadLetterPublisher,
	logger *slog.Logger,
) (*Dispatcher, error) {
	pool, err := ants.NewPool(poolCfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create dispatcher worker pool: %w", err)
	}

	return &Dispatcher{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		dlqProducer:      dlqProducer,
		pool:             pool,
		logger:           logger,
		pollInterval:     outboxCfg.PollingInterval,
		batchSize:        outboxCfg.BatchSize,
		maxRetryAttempts: outboxCfg.MaxRetryAttempts,
	}, nil
}

// Start begins polling until the context is canceled.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("Starting outbox dispatcher",
		"poll_interval", d.pollInterval.String(),
		"batch_size", d.batchSize,
		"max_retry_attempts", d.maxRetryAttempts,
		"pool_capacity", d.pool.Cap(),
	)
	ticker := time.NewTicker(d.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Outbox dispatcher stopping due to context cancellation.")
			return
		case <-ticker.C:
			d.logger.Debug("Outbox dispatcher tick: processing pending messages")
			if err := d.processPendingMessages(ctx); err != nil {
				d.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

// Shutdown releases the worker pool. Call after the Start context is
// canceled.
func (d *Dispatcher) Shutdown() {
	d.logger.Info("Shutting down outbox dispatcher worker pool", "running_workers", d.pool.Running())
	d.pool.Release()
}

func (d *Dispatcher) processPendingMessages(ctx context.Context) error {
	messages, err := d.outboxRepo.GetPending(ctx, d.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		d.logger.Debug("No pending outbox messages found.")
		return nil
	}

	d.logger.Info("Fetched pending outbox messages", "count", len(messages))

	var wg sync.WaitGroup
	for _, msg := range messages {
		msg := msg
		wg.Add(1)
		if submitErr := d.pool.Submit(func() {
			defer wg.Done()
			d.dispatchMessage(ctx, msg)
		}); submitErr != nil {
			// Pool is released or saturated; fall back to publishing inline
			// rather than dropping the message until the next tick.
			d.logger.Warn("Failed to submit outbox message to worker pool, dispatching inline", "outbox_id", msg.ID, "error", submitErr)
			d.dispatchMessage(ctx, msg)
			wg.Done()
		}
	}
	wg.Wait()
	return nil
}

func (d *Dispatcher) dispatchMessage(ctx context.Context, msg *outbox.Message) {
	err := d.publisher.PublishEvent(ctx, msg)
	if err == nil {
		return
	}

	d.logger.Error("Failed to publish outbox message",
		"outbox_id", msg.ID, "charge_id", msg.ChargeID, "current_attempts", msg.Attempts, "error", err,
	)

	if errInc := d.outboxRepo.IncrementAttempts(ctx, msg.ID); errInc != nil {
		d.logger.Error("Failed to increment attempts for outbox message", "outbox_id", msg.ID, "error", errInc)
		return
	}

	if msg.Attempts+1 >= d.maxRetryAttempts {
		d.logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH",
			"outbox_id", msg.ID, "charge_id", msg.ChargeID, "attempts_made", msg.Attempts+1,
		)
		if errUpdate := d.outboxRepo.UpdateStatus(ctx, msg.ID, outbox.StatusFailedToPublish); errUpdate != nil {
			d.logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "outbox_id", msg.ID, "error", errUpdate)
			return
		}
		d.sendToDLQ(ctx, msg, err)
	}
}

func (d *Dispatcher) sendToDLQ(ctx context.Context, msg *outbox.Message, publishErr error) {
	if d.dlqProducer == nil {
		return
	}
	reason := fmt.Sprintf("outbox publish failed after %d attempts: %v", msg.Attempts+1, publishErr)
	if err := d.dlqProducer.PublishToDLQ(ctx, msg.ChargeID.String(), msg.Payload, reason); err != nil {
		d.logger.Error("Failed to publish outbox message to DLQ", "outbox_id", msg.ID, "charge_id", msg.ChargeID, "error", err)
	}
}
