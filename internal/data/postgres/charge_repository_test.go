package postgres

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/payment"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

var chargeRowColumns = []string{
	"id", "customer_id", "amount_cents", "currency", "payment_method", "status",
	"description", "transfer_payload", "transfer_expiration", "card_last_digits",
	"card_brand", "installments", "slip_code", "slip_due_date", "slip_url",
	"version", "created_at", "updated_at",
	"cu_id", "cu_name", "cu_email", "cu_document", "cu_phone", "cu_created_at", "cu_updated_at",
}

func testCharge() *charge.Charge {
	now := time.Now()
	lastDigits := "1111"
	brand := "Visa"
	installments := 3
	return &charge.Charge{
		ID:            uuid.New(),
		CustomerID:    uuid.New(),
		AmountCents:   12550,
		Currency:      "BRL",
		PaymentMethod: payment.MethodCreditCard,
		Status:        charge.StatusPending,
		Description:   "order 42",
		Artifacts: payment.Artifacts{
			CardLastDigits: &lastDigits,
			CardBrand:      &brand,
			Installments:   &installments,
		},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func chargeRow(ch *charge.Charge, now time.Time) *pgxmock.Rows {
	return pgxmock.NewRows(chargeRowColumns).AddRow(
		ch.ID, ch.CustomerID, ch.AmountCents, ch.Currency, ch.PaymentMethod, ch.Status,
		ch.Description, ch.Artifacts.TransferPayload, ch.Artifacts.TransferExpiration,
		ch.Artifacts.CardLastDigits, ch.Artifacts.CardBrand, ch.Artifacts.Installments,
		ch.Artifacts.SlipCode, ch.Artifacts.SlipDueDate, ch.Artifacts.SlipURL,
		ch.Version, ch.CreatedAt, ch.UpdatedAt,
		ch.CustomerID, "Test Customer", "test@example.com", "12345678900", "11987654321", now, now,
	)
}

func TestChargeRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ChargeRepository{querier: mock, logger: newTestLogger()}
	ch := testCharge()

	query := `INSERT INTO charges`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(ch.ID, ch.CustomerID, ch.AmountCents, ch.Currency, ch.PaymentMethod, ch.Status,
				ch.Description, ch.Artifacts.TransferPayload, ch.Artifacts.TransferExpiration,
				ch.Artifacts.CardLastDigits, ch.Artifacts.CardBrand, ch.Artifacts.Installments,
				ch.Artifacts.SlipCode, ch.Artifacts.SlipDueDate, ch.Artifacts.SlipURL,
				ch.Version, ch.CreatedAt, ch.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		err := repo.Create(ctx, ch)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		expectedErr := errors.New("db error")
		mock.ExpectExec(query).
			WithArgs(ch.ID, ch.CustomerID, ch.AmountCents, ch.Currency, ch.PaymentMethod, ch.Status,
				ch.Description, ch.Artifacts.TransferPayload, ch.Artifacts.TransferExpiration,
				ch.Artifacts.CardLastDigits, ch.Artifacts.CardBrand, ch.Artifacts.Installments,
				ch.Artifacts.SlipCode, ch.Artifacts.SlipDueDate, ch.Artifacts.SlipURL,
				ch.Version, ch.CreatedAt, ch.UpdatedAt).
			WillReturnError(expectedErr)

		err := repo.Create(ctx, ch)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create charge")
		assert.ErrorIs(t, err, expectedErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChargeRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ChargeRepository{querier: mock, logger: newTestLogger()}
	ch := testCharge()

	query := `SELECT(.|\n)*FROM charges c(.|\n)*WHERE c.id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ch.ID).WillReturnRows(chargeRow(ch, time.Now()))

		got, err := repo.GetByID(ctx, ch.ID)
		require.NoError(t, err)
		assert.Equal(t, ch.ID, got.ID)
		assert.Equal(t, ch.AmountCents, got.AmountCents)
		require.NotNil(t, got.Customer)
		assert.Equal(t, "test@example.com", got.Customer.Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(ch.ID).WillReturnError(pgx.ErrNoRows)

		got, err := repo.GetByID(ctx, ch.ID)
		assert.Nil(t, got)
		var notFoundErr charge.ErrChargeNotFound
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, ch.ID, notFoundErr.ChargeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChargeRepository_Find(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ChargeRepository{querier: mock, logger: newTestLogger()}
	ch := testCharge()

	t.Run("all charges", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)*FROM charges c(.|\n)*ORDER BY c.created_at DESC`).
			WillReturnRows(chargeRow(ch, time.Now()))

		charges, err := repo.Find(ctx, charge.Filter{})
		require.NoError(t, err)
		require.Len(t, charges, 1)
		assert.Equal(t, ch.ID, charges[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("filtered by customer", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)*FROM charges c(.|\n)*WHERE c.customer_id = \$1`).
			WithArgs(ch.CustomerID).
			WillReturnRows(chargeRow(ch, time.Now()))

		charges, err := repo.Find(ctx, charge.Filter{CustomerID: &ch.CustomerID})
		require.NoError(t, err)
		require.Len(t, charges, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result", func(t *testing.T) {
		mock.ExpectQuery(`SELECT(.|\n)*FROM charges c`).
			WillReturnRows(pgxmock.NewRows(chargeRowColumns))

		charges, err := repo.Find(ctx, charge.Filter{})
		require.NoError(t, err)
		assert.Empty(t, charges)
		assert.NotNil(t, charges, "empty list, not nil")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChargeRepository_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ChargeRepository{querier: mock, logger: newTestLogger()}

	ch := testCharge()
	ch.Status = charge.StatusPaid
	ch.Version = 2

	query := `UPDATE charges(.|\n)*SET status = \$1, version = \$2, updated_at = \$3(.|\n)*WHERE id = \$4 AND version = \$5`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(ch.Status, ch.Version, ch.UpdatedAt, ch.ID, ch.Version-1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		err := repo.UpdateStatus(ctx, ch)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("concurrent modification", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(ch.Status, ch.Version, ch.UpdatedAt, ch.ID, ch.Version-1).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.UpdateStatus(ctx, ch)
		var concurrentErr charge.ErrConcurrentModification
		require.ErrorAs(t, err, &concurrentErr)
		assert.Equal(t, ch.ID, concurrentErr.ChargeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestChargeRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &ChargeRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()

	query := `DELETE FROM charges WHERE id = \$1`

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		err := repo.Delete(ctx, id)
		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(ctx, id)
		var notFoundErr charge.ErrChargeNotFound
		require.ErrorAs(t, err, &notFoundErr)
		assert.Equal(t, id, notFoundErr.ChargeID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
