package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargehub-payments-api/internal/domain/customer"
)

var customerColumns = []string{"id", "name", "email", "document", "phone", "created_at", "updated_at"}

func testCustomer() *customer.Customer {
	now := time.Now()
	return &customer.Customer{
		ID:        uuid.New(),
		Name:      "Test Customer",
		Email:     "test@example.com",
		Document:  "12345678900",
		Phone:     "11987654321",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func customerRow(c *customer.Customer) *pgxmock.Rows {
	return pgxmock.NewRows(customerColumns).
		AddRow(c.ID, c.Name, c.Email, c.Document, c.Phone, c.CreatedAt, c.UpdatedAt)
}

func TestCustomerRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CustomerRepository{querier: mock, logger: newTestLogger()}
	c := testCustomer()

	query := `INSERT INTO customers`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(c.ID, c.Name, c.Email, c.Document, c.Phone, c.CreatedAt, c.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, c)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate email", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: customersEmailConstraint}
		mock.ExpectExec(query).
			WithArgs(c.ID, c.Name, c.Email, c.Document, c.Phone, c.CreatedAt, c.UpdatedAt).
			WillReturnError(pgErr)

		err := repo.Create(ctx, c)
		var dupErr customer.ErrDuplicateEmail
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, c.Email, dupErr.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate document", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "23505", ConstraintName: customersDocumentConstraint}
		mock.ExpectExec(query).
			WithArgs(c.ID, c.Name, c.Email, c.Document, c.Phone, c.CreatedAt, c.UpdatedAt).
			WillReturnError(pgErr)

		err := repo.Create(ctx, c)
		var dupErr customer.ErrDuplicateDocument
		require.ErrorAs(t, err, &dupErr)
		assert.Equal(t, c.Document, dupErr.Document)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomerRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CustomerRepository{querier: mock, logger: newTestLogger()}
	c := testCustomer()

	query := `SELECT(.|\n)*FROM customers(.|\n)*WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(c.ID).WillReturnRows(customerRow(c))

		got, err := repo.GetByID(ctx, c.ID)
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(c.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, c.ID)
		assert.Nil(t, got)
		var notFoundErr customer.ErrCustomerNotFound
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, c.ID, notFoundErr.CustomerID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomerRepository_GetByEmail(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CustomerRepository{querier: mock, logger: newTestLogger()}
	c := testCustomer()

	query := `SELECT(.|\n)*FROM customers(.|\n)*WHERE email = \$1`

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(c.Email).WillReturnRows(customerRow(c))

		got, err := repo.GetByEmail(ctx, c.Email)
		require.NoError(t, err)
		assert.Equal(t, c, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("absent returns nil, nil", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs("nobody@example.com").WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomerRepository_Update(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CustomerRepository{querier: mock, logger: newTestLogger()}
	c := testCustomer()

	query := `UPDATE customers`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(c.Name, c.Email, c.Document, c.Phone, c.UpdatedAt, c.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.Update(ctx, c)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(c.Name, c.Email, c.Document, c.Phone, c.UpdatedAt, c.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, c)
		var notFoundErr customer.ErrCustomerNotFound
		require.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCustomerRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &CustomerRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()

	query := `DELETE FROM customers WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err := repo.Delete(ctx, id)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(ctx, id)
		var notFoundErr customer.ErrCustomerNotFound
		require.ErrorAs(t, err, &notFoundErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
