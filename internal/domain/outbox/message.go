package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/chargehub-payments-api/internal/domain/charge"
)

// Message statuses.
const (
	StatusPending         = "PENDING"
	StatusProcessed       = "PROCESSED"
	StatusFailedToPublish = "FAILED_TO_PUBLISH"
)

// Message is a charge event staged in the transactional outbox. It is
// written in the same transaction as the charge row it describes and
// later handed to Kafka by the dispatcher.
type Message struct {
	ID            int64           `json:"id"`
	ChargeID      uuid.UUID       `json:"charge_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	Payload       json.RawMessage `json:"payload"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	CreatedAt     time.Time       `json:"created_at"`
	LastAttemptAt *time.Time      `json:"last_attempt_at,omitempty"`
}

// NewMessage stages a charge event for publication.
func NewMessage(event *charge.Event) (*Message, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal charge event: %w", err)
	}

	return &Message{
		ChargeID:   event.ChargeID,
		CustomerID: event.CustomerID,
		Payload:    payload,
		Status:     StatusPending,
		Attempts:   0,
		CreatedAt:  time.Now(),
	}, nil
}

// GetEvent decodes the staged payload back into a charge event.
func (m *Message) GetEvent() (*charge.Event, error) {
	var event charge.Event
	if err := json.Unmarshal(m.Payload, &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal charge event: %w", err)
	}
	return &event, nil
}

// IncrementAttempts records a failed publication attempt.
func (m *Message) IncrementAttempts() {
	m.Attempts++
	now := time.Now()
	m.LastAttemptAt = &now
}

// MarkAsProcessed flags the message as successfully published.
func (m *Message) MarkAsProcessed() {
	m.Status = StatusProcessed
}

// MarkAsFailed flags the message as undeliverable after retries are
// exhausted.
func (m *Message) MarkAsFailed() {
	m.Status = StatusFailedToPublish
}
