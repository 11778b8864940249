// Package postgres provides PostgreSQL implementations of the domain
// repositories. Charges are the system of record here; every mutation goes
// through these repositories, transactional writes pair with the outbox.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/platform/persistence"
)

// ChargeRepository implements the charge.Repository interface for PostgreSQL
type ChargeRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewChargeRepository creates a new PostgreSQL charge repository
func NewChargeRepository(logger *slog.Logger, db *persistence.PostgresDB) charge.Repository {
	return &ChargeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx wraps the repository with a transaction so charge mutations commit
// atomically with their outbox messages.
func (r *ChargeRepository) WithTx(tx pgx.Tx) charge.Repository {
	return &ChargeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

const chargeColumns = `
	c.id, c.customer_id, c.amount_cents, c.currency, c.payment_method, c.status,
	c.description, c.transfer_payload, c.transfer_expiration, c.card_last_digits,
	c.card_brand, c.installments, c.slip_code, c.slip_due_date, c.slip_url,
	c.version, c.created_at, c.updated_at,
	cu.id, cu.name, cu.email, cu.document, cu.phone, cu.created_at, cu.updated_at`

// Create stores a new charge in the database
func (r *ChargeRepository) Create(ctx context.Context, ch *charge.Charge) error {
	query := `
		INSERT INTO charges (
			id, customer_id, amount_cents, currency, payment_method, status,
			description, transfer_payload, transfer_expiration, card_last_digits,
			card_brand, installments, slip_code, slip_due_date, slip_url,
			version, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.querier.Exec(ctx, query,
		ch.ID,
		ch.CustomerID,
		ch.AmountCents,
		ch.Currency,
		ch.PaymentMethod,
		ch.Status,
		ch.Description,
		ch.Artifacts.TransferPayload,
		ch.Artifacts.TransferExpiration,
		ch.Artifacts.CardLastDigits,
		ch.Artifacts.CardBrand,
		ch.Artifacts.Installments,
		ch.Artifacts.SlipCode,
		ch.Artifacts.SlipDueDate,
		ch.Artifacts.SlipURL,
		ch.Version,
		ch.CreatedAt,
		ch.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create charge", "error", err)
		return fmt.Errorf("failed to create charge: %w", err)
	}

	return nil
}

// GetByID retrieves a charge with its denormalized customer
func (r *ChargeRepository) GetByID(ctx context.Context, id uuid.UUID) (*charge.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges c
		JOIN customers cu ON cu.id = c.customer_id
		WHERE c.id = $1
	`

	ch, err := scanCharge(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, charge.ErrChargeNotFound{ChargeID: id}
		}
		r.logger.Error("Failed to get charge", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get charge: %w", err)
	}

	return ch, nil
}

// Find returns charges matching the filter, newest first
func (r *ChargeRepository) Find(ctx context.Context, filter charge.Filter) ([]*charge.Charge, error) {
	query := `
		SELECT ` + chargeColumns + `
		FROM charges c
		JOIN customers cu ON cu.id = c.customer_id
	`
	var args []interface{}
	if filter.CustomerID != nil {
		query += ` WHERE c.customer_id = $1`
		args = append(args, *filter.CustomerID)
	}
	query += ` ORDER BY c.created_at DESC`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list charges", "error", err)
		return nil, fmt.Errorf("failed to list charges: %w", err)
	}
	defer rows.Close()

	charges := make([]*charge.Charge, 0)
	for rows.Next() {
		ch, err := scanCharge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan charge row: %w", err)
		}
		charges = append(charges, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate charge rows: %w", err)
	}

	return charges, nil
}

// UpdateStatus persists a status transition using optimistic locking.
// The entity's version has already been bumped, so the predicate checks
// the previous version.
func (r *ChargeRepository) UpdateStatus(ctx context.Context, ch *charge.Charge) error {
	query := `
		UPDATE charges
		SET status = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5
	`

	result, err := r.querier.Exec(ctx, query,
		ch.Status,
		ch.Version,
		ch.UpdatedAt,
		ch.ID,
		ch.Version-1,
	)
	if err != nil {
		r.logger.Error("Failed to update charge status", "id", ch.ID.String(), "error", err)
		return fmt.Errorf("failed to update charge status: %w", err)
	}

	if result.RowsAffected() == 0 {
		return charge.ErrConcurrentModification{ChargeID: ch.ID}
	}

	return nil
}

// Delete removes a charge regardless of its status
func (r *ChargeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM charges WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete charge", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete charge: %w", err)
	}

	if result.RowsAffected() == 0 {
		return charge.ErrChargeNotFound{ChargeID: id}
	}

	return nil
}

// scanCharge reads one charge row joined with its customer
func scanCharge(row pgx.Row) (*charge.Charge, error) {
	var ch charge.Charge
	var cu customer.Customer

	err := row.Scan(
		&ch.ID,
		&ch.CustomerID,
		&ch.AmountCents,
		&ch.Currency,
		&ch.PaymentMethod,
		&ch.Status,
		&ch.Description,
		&ch.Artifacts.TransferPayload,
		&ch.Artifacts.TransferExpiration,
		&ch.Artifacts.CardLastDigits,
		&ch.Artifacts.CardBrand,
		&ch.Artifacts.Installments,
		&ch.Artifacts.SlipCode,
		&ch.Artifacts.SlipDueDate,
		&ch.Artifacts.SlipURL,
		&ch.Version,
		&ch.CreatedAt,
		&ch.UpdatedAt,
		&cu.ID,
		&cu.Name,
		&cu.Email,
		&cu.Document,
		&cu.Phone,
		&cu.CreatedAt,
		&cu.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	ch.Customer = &cu
	return &ch, nil
}
