package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chargehub-payments-api/internal/domain/audit"
	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/domain/outbox"
)

// ChargeServiceImpl implements the ChargeService interface. Mutations commit
// the charge row and its outbox event in one transaction; the audit trail is
// written best-effort afterwards since MongoDB sits outside that transaction.
type ChargeServiceImpl struct {
	logger       *slog.Logger
	txRunner     TxRunner
	chargeRepo   charge.Repository
	customerRepo customer.Repository
	outboxRepo   outbox.Repository
	auditRepo    audit.Repository
}

// NewChargeService creates a new charge service
func NewChargeService(
	logger *slog.Logger,
	txRunner TxRunner,
	chargeRepo charge.Repository,
	customerRepo customer.Repository,
	outboxRepo outbox.Repository,
	auditRepo audit.Repository,
) ChargeService {
	return &ChargeServiceImpl{
		logger:       logger,
		txRunner:     txRunner,
		chargeRepo:   chargeRepo,
		customerRepo: customerRepo,
		outboxRepo:   outboxRepo,
		auditRepo:    auditRepo,
	}
}

// CreateCharge validates the method details, generates the artifacts and
// persists the new charge with its creation event.
func (s *ChargeServiceImpl) CreateCharge(ctx context.Context, params CreateChargeParams, correlationID string) (*charge.Charge, error) {
	owner, err := s.customerRepo.GetByID(ctx, params.CustomerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := params.Method.Validate(now); err != nil {
		return nil, err
	}

	artifacts, err := params.Method.Generate(now)
	if err != nil {
		return nil, err
	}

	ch, err := charge.NewCharge(params.CustomerID, params.AmountCents, params.Currency, params.Method.Name(), params.Description, artifacts)
	if err != nil {
		return nil, err
	}

	event := charge.NewCreatedEvent(ch, correlationID)
	message, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.chargeRepo.WithTx(tx).Create(ctx, ch); err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.NewCreationEntry(ch, correlationID))

	ch.Customer = owner
	return ch, nil
}

// ListCharges returns charges matching the filter, newest first
func (s *ChargeServiceImpl) ListCharges(ctx context.Context, filter charge.Filter) ([]*charge.Charge, error) {
	return s.chargeRepo.Find(ctx, filter)
}

// GetChargeByID retrieves a charge with its denormalized customer
func (s *ChargeServiceImpl) GetChargeByID(ctx context.Context, id uuid.UUID) (*charge.Charge, error) {
	return s.chargeRepo.GetByID(ctx, id)
}

// UpdateChargeStatus applies a status patch through the state machine.
// A patch without a status change reads and returns the charge untouched.
func (s *ChargeServiceImpl) UpdateChargeStatus(ctx context.Context, id uuid.UUID, patch charge.Patch, correlationID string) (*charge.Charge, error) {
	ch, err := s.chargeRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	previous := ch.Status
	changed, err := ch.ApplyPatch(patch)
	if err != nil {
		return nil, err
	}
	if !changed {
		return ch, nil
	}

	event := charge.NewStatusChangedEvent(ch, previous, correlationID)
	message, err := outbox.NewMessage(event)
	if err != nil {
		return nil, err
	}

	err = s.txRunner.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.chargeRepo.WithTx(tx).UpdateStatus(ctx, ch); err != nil {
			return err
		}
		return s.outboxRepo.WithTx(tx).Create(ctx, message)
	})
	if err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.NewTransitionEntry(ch, previous, correlationID))

	return ch, nil
}

// RemoveCharge deletes a charge regardless of its status
func (s *ChargeServiceImpl) RemoveCharge(ctx context.Context, id uuid.UUID) error {
	return s.chargeRepo.Delete(ctx, id)
}

// GetChargeHistory returns the lifecycle audit trail of an existing charge
func (s *ChargeServiceImpl) GetChargeHistory(ctx context.Context, id uuid.UUID) ([]*audit.Entry, error) {
	if _, err := s.chargeRepo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.auditRepo.ListByChargeID(ctx, id)
}

// recordAudit appends a lifecycle entry. Audit write failures are logged and
// swallowed; the charge mutation has already committed.
func (s *ChargeServiceImpl) recordAudit(ctx context.Context, entry *audit.Entry) {
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		s.logger.Error("Failed to record charge audit entry",
			"charge_id", entry.ChargeID.String(),
			"to_status", string(entry.ToStatus),
			"error", err,
		)
	}
}
