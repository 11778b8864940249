// Package charge defines the central Charge entity, its status state machine
// and the persistence contract. A charge is a payment intent against a
// customer, carrying the artifacts generated for its payment method and
// tracked through the status lifecycle.
package charge

import (
	"errors"
	"time"

	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/domain/payment"
	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidAmount         = errors.New("amount must be at least 0.01")
	ErrInvalidCurrencyFormat = errors.New("currency must be a 3-letter code")
)

// DefaultCurrency is applied when a creation request carries no currency
const DefaultCurrency = "BRL"

// Charge represents a payment charge against a customer.
// AmountCents stores the amount in minor units to avoid floating point
// arithmetic on money. Version backs optimistic locking on status updates.
type Charge struct {
	ID            uuid.UUID          `json:"id"`
	CustomerID    uuid.UUID          `json:"customer_id"`
	AmountCents   int64              `json:"amount_cents"`
	Currency      string             `json:"currency"`
	PaymentMethod payment.MethodName `json:"payment_method"`
	Status        Status             `json:"status"`
	Description   string             `json:"description,omitempty"`
	Artifacts     payment.Artifacts  `json:"artifacts"`
	Version       int                `json:"version"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// Customer is the denormalized owner, populated on reads
	Customer *customer.Customer `json:"customer,omitempty"`
}

// NewCharge creates a new pending charge with the supplied artifacts.
// Currency defaults to BRL when empty. Amount and payment method are
// immutable after this point.
func NewCharge(customerID uuid.UUID, amountCents int64, currency string, method payment.MethodName, description string, artifacts payment.Artifacts) (*Charge, error) {
	if amountCents < 1 {
		return nil, ErrInvalidAmount
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, ErrInvalidCurrencyFormat
	}

	now := time.Now()
	return &Charge{
		ID:            uuid.New(),
		CustomerID:    customerID,
		AmountCents:   amountCents,
		Currency:      currency,
		PaymentMethod: method,
		Status:        StatusPending,
		Description:   description,
		Artifacts:     artifacts,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Patch is the narrow mutable surface of an update. Status is the only field
// the state machine permits to change; a nil Status is a no-op update.
type Patch struct {
	Status *Status
}

// ApplyPatch validates the requested transition against the current status
// and applies it. Reopening a FAILED charge to PENDING keeps the previously
// generated artifacts untouched. Returns false when the patch carried no
// status change.
func (c *Charge) ApplyPatch(p Patch) (bool, error) {
	if err := ValidateTransition(c.Status, p.Status); err != nil {
		return false, err
	}
	if p.Status == nil {
		return false, nil
	}

	c.Status = *p.Status
	c.Version++
	c.UpdatedAt = time.Now()
	return true, nil
}
