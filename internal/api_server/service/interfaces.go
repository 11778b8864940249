package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/chargehub-payments-api/internal/domain/audit"
	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/domain/payment"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// CreateChargeParams bundles the validated inputs of charge creation
type CreateChargeParams struct {
	CustomerID  uuid.UUID
	AmountCents int64
	Currency    string
	Method      payment.Method
	Description string
}

// ChargeService defines the interface for charge operations
type ChargeService interface {
	// CreateCharge validates the payment method details, synthesizes the
	// method artifacts and persists the charge in PENDING status.
	// Returns ErrCustomerNotFound when the referenced customer doesn't exist
	// and payment.ValidationError when method details are invalid.
	CreateCharge(ctx context.Context, params CreateChargeParams, correlationID string) (*charge.Charge, error)

	// ListCharges returns charges matching the filter, newest first
	ListCharges(ctx context.Context, filter charge.Filter) ([]*charge.Charge, error)

	// GetChargeByID retrieves a charge with its denormalized customer
	// Returns ErrChargeNotFound if the charge doesn't exist
	GetChargeByID(ctx context.Context, id uuid.UUID) (*charge.Charge, error)

	// UpdateChargeStatus applies a status patch through the state machine.
	// Returns charge.InvalidTransitionError for illegal transitions and
	// charge.ErrConcurrentModification when an optimistic lock race is lost.
	UpdateChargeStatus(ctx context.Context, id uuid.UUID, patch charge.Patch, correlationID string) (*charge.Charge, error)

	// RemoveCharge deletes a charge regardless of its status
	RemoveCharge(ctx context.Context, id uuid.UUID) error

	// GetChargeHistory returns the charge's lifecycle audit trail, oldest first
	// Returns ErrChargeNotFound if the charge doesn't exist
	GetChargeHistory(ctx context.Context, id uuid.UUID) ([]*audit.Entry, error)
}

// CustomerService defines the interface for customer operations
type CustomerService interface {
	// CreateCustomer creates a new customer
	// Returns ErrDuplicateEmail or ErrDuplicateDocument on uniqueness conflicts
	CreateCustomer(ctx context.Context, name, email, document, phone string) (*customer.Customer, error)

	// GetCustomerByID retrieves a customer by its ID
	GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error)

	// ListCustomers returns all customers, newest first
	ListCustomers(ctx context.Context) ([]*customer.Customer, error)

	// UpdateCustomer applies non-empty field updates to a customer
	UpdateCustomer(ctx context.Context, id uuid.UUID, name, email, document, phone string) (*customer.Customer, error)

	// RemoveCustomer deletes a customer
	RemoveCustomer(ctx context.Context, id uuid.UUID) error
}
