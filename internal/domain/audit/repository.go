package audit

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores and reads charge history entries.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	ListByChargeID(ctx context.Context, chargeID uuid.UUID) ([]*Entry, error)
}
