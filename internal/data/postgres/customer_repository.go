package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/platform/persistence"
)

// Unique constraint names from the customers migration
const (
	customersEmailConstraint    = "customers_email_key"
	customersDocumentConstraint = "customers_document_key"
)

// CustomerRepository implements the customer.Repository interface for PostgreSQL
type CustomerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewCustomerRepository creates a new PostgreSQL customer repository
func NewCustomerRepository(logger *slog.Logger, db *persistence.PostgresDB) customer.Repository {
	return &CustomerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// Create stores a new customer. Unique violations on email or document map
// to the typed duplicate errors.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	query := `
		INSERT INTO customers (id, name, email, document, phone, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.Name,
		c.Email,
		c.Document,
		c.Phone,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		if dupErr := mapUniqueViolation(err, c); dupErr != nil {
			return dupErr
		}
		r.logger.Error("Failed to create customer", "error", err)
		return fmt.Errorf("failed to create customer: %w", err)
	}

	return nil
}

// GetByID retrieves a customer by its ID
func (r *CustomerRepository) GetByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	query := `
		SELECT id, name, email, document, phone, created_at, updated_at
		FROM customers
		WHERE id = $1
	`

	var c customer.Customer
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Document,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrCustomerNotFound{CustomerID: id}
		}
		r.logger.Error("Failed to get customer", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get customer: %w", err)
	}

	return &c, nil
}

// GetByEmail returns (nil, nil) when no customer has the email
func (r *CustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	return r.getByField(ctx, "email", email)
}

// GetByDocument returns (nil, nil) when no customer has the document
func (r *CustomerRepository) GetByDocument(ctx context.Context, document string) (*customer.Customer, error) {
	return r.getByField(ctx, "document", document)
}

func (r *CustomerRepository) getByField(ctx context.Context, field, value string) (*customer.Customer, error) {
	query := fmt.Sprintf(`
		SELECT id, name, email, document, phone, created_at, updated_at
		FROM customers
		WHERE %s = $1
	`, field)

	var c customer.Customer
	err := r.querier.QueryRow(ctx, query, value).Scan(
		&c.ID,
		&c.Name,
		&c.Email,
		&c.Document,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get customer by "+field, "error", err)
		return nil, fmt.Errorf("failed to get customer by %s: %w", field, err)
	}

	return &c, nil
}

// List returns all customers ordered by creation time
func (r *CustomerRepository) List(ctx context.Context) ([]*customer.Customer, error) {
	query := `
		SELECT id, name, email, document, phone, created_at, updated_at
		FROM customers
		ORDER BY created_at DESC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list customers", "error", err)
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	customers := make([]*customer.Customer, 0)
	for rows.Next() {
		var c customer.Customer
		err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Email,
			&c.Document,
			&c.Phone,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer row: %w", err)
		}
		customers = append(customers, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customer rows: %w", err)
	}

	return customers, nil
}

// Update persists customer field changes
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	query := `
		UPDATE customers
		SET name = $1, email = $2, document = $3, phone = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		c.Name,
		c.Email,
		c.Document,
		c.Phone,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		if dupErr := mapUniqueViolation(err, c); dupErr != nil {
			return dupErr
		}
		r.logger.Error("Failed to update customer", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return customer.ErrCustomerNotFound{CustomerID: c.ID}
	}

	return nil
}

// Delete removes a customer
func (r *CustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM customers WHERE id = $1`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete customer", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return customer.ErrCustomerNotFound{CustomerID: id}
	}

	return nil
}

// mapUniqueViolation converts a pg unique violation into the typed duplicate
// error for the offending field, or nil when the error is something else.
func mapUniqueViolation(err error, c *customer.Customer) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != "23505" {
		return nil
	}
	switch pgErr.ConstraintName {
	case customersEmailConstraint:
		return customer.ErrDuplicateEmail{Email: c.Email}
	case customersDocumentConstraint:
		return customer.ErrDuplicateDocument{Document: c.Document}
	}
	return nil
}
