package charge

import (
	"time"

	"github.com/chargehub-payments-api/internal/domain/payment"
	"github.com/google/uuid"
)

// EventType defines the published charge lifecycle events
type EventType string

const (
	EventChargeCreated       EventType = "charge.created"
	EventChargeStatusChanged EventType = "charge.status_changed"
)

// Event is the message published for a charge lifecycle change. It is written
// to the transactional outbox in the same transaction as the charge mutation
// and published asynchronously by the dispatcher.
type Event struct {
	EventID        uuid.UUID          `json:"event_id"`
	Type           EventType          `json:"type"`
	ChargeID       uuid.UUID          `json:"charge_id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	Status         Status             `json:"status"`
	PreviousStatus *Status            `json:"previous_status,omitempty"`
	AmountCents    int64              `json:"amount_cents"`
	Currency       string             `json:"currency"`
	PaymentMethod  payment.MethodName `json:"payment_method"`
	CorrelationID  string             `json:"correlation_id,omitempty"`
	OccurredAt     time.Time          `json:"occurred_at"`
}

// NewCreatedEvent builds the event for a freshly created charge
func NewCreatedEvent(ch *Charge, correlationID string) *Event {
	return &Event{
		EventID:       uuid.New(),
		Type:          EventChargeCreated,
		ChargeID:      ch.ID,
		CustomerID:    ch.CustomerID,
		Status:        ch.Status,
		AmountCents:   ch.AmountCents,
		Currency:      ch.Currency,
		PaymentMethod: ch.PaymentMethod,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
}

// NewStatusChangedEvent builds the event for a status transition
func NewStatusChangedEvent(ch *Charge, previous Status, correlationID string) *Event {
	return &Event{
		EventID:        uuid.New(),
		Type:           EventChargeStatusChanged,
		ChargeID:       ch.ID,
		CustomerID:     ch.CustomerID,
		Status:         ch.Status,
		PreviousStatus: &previous,
		AmountCents:    ch.AmountCents,
		Currency:       ch.Currency,
		PaymentMethod:  ch.PaymentMethod,
		CorrelationID:  correlationID,
		OccurredAt:     time.Now().UTC(),
	}
}
