package outbox_dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/outbox"
	"github.com/chargehub-payments-api/internal/domain/payment"
)

// MockOutboxRepo for testing
type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status string) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	return args.Get(0).(outbox.Repository)
}

// MockMessagePublisher for testing
type MockMessagePublisher struct {
	mock.Mock
}

func (m *MockMessagePublisher) Publish(ctx context.Context, key string, value interface{}) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockMessagePublisher) Close() error {
	args := m.Called()
	return args.Error(0)
}

func stagedMessage(t *testing.T, id int64) (*outbox.Message, *charge.Event) {
	t.Helper()

	chargeID := uuid.New()
	customerID := uuid.New()
	event := &charge.Event{
		EventID:       uuid.New(),
		Type:          charge.EventChargeCreated,
		ChargeID:      chargeID,
		CustomerID:    customerID,
		Status:        charge.StatusPending,
		AmountCents:   12550,
		Currency:      "BRL",
		PaymentMethod: payment.MethodCreditCard,
		CorrelationID: "corr-1",
		OccurredAt:    time.Now().UTC(),
	}

	message, err := outbox.NewMessage(event)
	assert.NoError(t, err)
	message.ID = id
	return message, event
}

func TestKafkaEventPublisher_PublishEvent(t *testing.T) {
	logger := slog.Default()

	message, event := stagedMessage(t, 1)

	tests := []struct {
		name          string
		message       *outbox.Message
		setupMocks    func(outboxRepo *MockOutboxRepo, producer *MockMessagePublisher)
		expectedError string
	}{
		{
			name:    "successful publish marks message processed",
			message: message,
			setupMocks: func(outboxRepo *MockOutboxRepo, producer *MockMessagePublisher) {
				producer.On("Publish", mock.Anything, event.ChargeID.String(), mock.MatchedBy(func(v interface{}) bool {
					published, ok := v.(*charge.Event)
					return ok && published.EventID == event.EventID && published.Type == charge.EventChargeCreated
				})).Return(nil).Once()

				outboxRepo.On("UpdateStatus", mock.Anything, int64(1), outbox.StatusProcessed).Return(nil).Once()
			},
		},
		{
			name: "undecodable payload is parked as failed",
			message: &outbox.Message{
				ID:       2,
				ChargeID: uuid.New(),
				Payload:  []byte("not json"),
				Status:   outbox.StatusPending,
			},
			setupMocks: func(outboxRepo *MockOutboxRepo, producer *MockMessagePublisher) {
				outboxRepo.On("UpdateStatus", mock.Anything, int64(2), outbox.StatusFailedToPublish).Return(nil).Once()
			},
			expectedError: "unmarshal payload",
		},
		{
			name:    "broker error is returned and message stays pending",
			message: message,
			setupMocks: func(outboxRepo *MockOutboxRepo, producer *MockMessagePublisher) {
				producer.On("Publish", mock.Anything, event.ChargeID.String(), mock.Anything).Return(errors.New("broker down")).Once()
			},
			expectedError: "failed to publish charge event",
		},
		{
			name:    "status update failure after publish is reported",
			message: message,
			setupMocks: func(outboxRepo *MockOutboxRepo, producer *MockMessagePublisher) {
				producer.On("Publish", mock.Anything, event.ChargeID.String(), mock.Anything).Return(nil).Once()
				outboxRepo.On("UpdateStatus", mock.Anything, int64(1), outbox.StatusProcessed).Return(errors.New("db error")).Once()
			},
			expectedError: "failed to mark outbox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outboxRepo := &MockOutboxRepo{}
			producer := &MockMessagePublisher{}
			publisher := NewKafkaEventPublisher(outboxRepo, producer, logger)

			tt.setupMocks(outboxRepo, producer)

			err := publisher.PublishEvent(context.Background(), tt.message)

			if tt.expectedError != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectedError)
			} else {
				assert.NoError(t, err)
			}

			outboxRepo.AssertExpectations(t)
			producer.AssertExpectations(t)
		})
	}
}
