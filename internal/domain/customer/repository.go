package customer

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines customer persistence operations. GetByID doubles as the
// customer lookup used by charge creation.
type Repository interface {
	Create(ctx context.Context, c *Customer) error

	// GetByID retrieves a customer by its ID
	// Returns ErrCustomerNotFound if the customer doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// GetByEmail returns (nil, nil) when no customer has the email
	GetByEmail(ctx context.Context, email string) (*Customer, error)

	// GetByDocument returns (nil, nil) when no customer has the document
	GetByDocument(ctx context.Context, document string) (*Customer, error)

	List(ctx context.Context) ([]*Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ErrCustomerNotFound indicates missing customer
type ErrCustomerNotFound struct {
	CustomerID uuid.UUID
}

func (e ErrCustomerNotFound) Error() string {
	return "customer not found: " + e.CustomerID.String()
}

// ErrDuplicateEmail indicates email uniqueness violation
type ErrDuplicateEmail struct {
	Email string
}

func (e ErrDuplicateEmail) Error() string {
	return "customer with email already exists: " + e.Email
}

// ErrDuplicateDocument indicates document uniqueness violation
type ErrDuplicateDocument struct {
	Document string
}

func (e ErrDuplicateDocument) Error() string {
	return "customer with document already exists: " + e.Document
}
