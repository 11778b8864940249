package audit

import (
	"time"

	"github.com/google/uuid"

	"github.com/chargehub-payments-api/internal/domain/charge"
)

// Entry is one step in a charge's lifecycle history. Entries are
// append-only: creation records a nil FromStatus, every transition
// records both sides.
type Entry struct {
	EntryID       uuid.UUID      `bson:"entry_id" json:"entry_id"`
	ChargeID      uuid.UUID      `bson:"charge_id" json:"charge_id"`
	CustomerID    uuid.UUID      `bson:"customer_id" json:"customer_id"`
	FromStatus    *charge.Status `bson:"from_status,omitempty" json:"from_status,omitempty"`
	ToStatus      charge.Status  `bson:"to_status" json:"to_status"`
	CorrelationID string         `bson:"correlation_id,omitempty" json:"correlation_id,omitempty"`
	RecordedAt    time.Time      `bson:"recorded_at" json:"recorded_at"`
}

// NewCreationEntry records the birth of a charge.
func NewCreationEntry(ch *charge.Charge, correlationID string) *Entry {
	return &Entry{
		EntryID:       uuid.New(),
		ChargeID:      ch.ID,
		CustomerID:    ch.CustomerID,
		ToStatus:      ch.Status,
		CorrelationID: correlationID,
		RecordedAt:    time.Now().UTC(),
	}
}

// NewTransitionEntry records a status change on an existing charge.
func NewTransitionEntry(ch *charge.Charge, from charge.Status, correlationID string) *Entry {
	return &Entry{
		EntryID:       uuid.New(),
		ChargeID:      ch.ID,
		CustomerID:    ch.CustomerID,
		FromStatus:    &from,
		ToStatus:      ch.Status,
		CorrelationID: correlationID,
		RecordedAt:    time.Now().UTC(),
	}
}
