package charge

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Filter narrows charge listing. A nil CustomerID returns all charges.
type Filter struct {
	CustomerID *uuid.UUID
}

// Repository defines charge persistence operations
type Repository interface {
	Create(ctx context.Context, ch *Charge) error

	// Find returns charges matching the filter, newest first,
	// each with its denormalized customer
	Find(ctx context.Context, filter Filter) ([]*Charge, error)

	// GetByID retrieves a charge with its denormalized customer.
	// Returns ErrChargeNotFound if the charge doesn't exist.
	GetByID(ctx context.Context, id uuid.UUID) (*Charge, error)

	// UpdateStatus persists a status change using optimistic locking on the
	// version column. Returns ErrConcurrentModification when another update
	// won the race.
	UpdateStatus(ctx context.Context, ch *Charge) error

	// Delete removes a charge regardless of its status
	Delete(ctx context.Context, id uuid.UUID) error

	WithTx(tx pgx.Tx) Repository
}

// ErrChargeNotFound indicates missing charge
type ErrChargeNotFound struct {
	ChargeID uuid.UUID
}

func (e ErrChargeNotFound) Error() string {
	return "charge not found: " + e.ChargeID.String()
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	ChargeID uuid.UUID
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for charge: " + e.ChargeID.String()
}
