package handler

import (
	"time"

	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/domain/payment"
)

// CreateChargeRequest represents a request to create a new charge.
// Amount is a decimal in major units with at most two fraction digits.
// The payment detail fields are validated per method, not by binding tags.
type CreateChargeRequest struct {
	CustomerID    string  `json:"customer_id" binding:"required,uuid"`
	Amount        float64 `json:"amount" binding:"required,gt=0"`
	Currency      string  `json:"currency" binding:"omitempty,len=3"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	Description   string  `json:"description" binding:"omitempty,max=255"`

	// Instant transfer
	TransferExpiration string `json:"transfer_expiration,omitempty"`

	// Credit card
	CardNumber     string `json:"card_number,omitempty"`
	CardHolderName string `json:"card_holder_name,omitempty"`
	CardExpiration string `json:"card_expiration,omitempty"`
	CardCVV        string `json:"card_cvv,omitempty"`
	Installments   int    `json:"installments,omitempty"`

	// Bank slip
	SlipDueDate string `json:"slip_due_date,omitempty"`
}

// UpdateChargeStatusRequest carries the narrow mutable surface of a charge.
// A nil status is accepted and leaves the charge untouched.
type UpdateChargeStatusRequest struct {
	Status *string `json:"status"`
}

// ArtifactsResponse mirrors the method-specific fields of a charge
type ArtifactsResponse struct {
	TransferPayload    *string    `json:"transfer_payload,omitempty"`
	TransferExpiration *time.Time `json:"transfer_expiration,omitempty"`
	CardLastDigits     *string    `json:"card_last_digits,omitempty"`
	CardBrand          *string    `json:"card_brand,omitempty"`
	Installments       *int       `json:"installments,omitempty"`
	SlipCode           *string    `json:"slip_code,omitempty"`
	SlipDueDate        *time.Time `json:"slip_due_date,omitempty"`
	SlipURL            *string    `json:"slip_url,omitempty"`
}

// ChargeResponse represents a charge in API responses
type ChargeResponse struct {
	ID            string             `json:"id"`
	CustomerID    string             `json:"customer_id"`
	Amount        float64            `json:"amount"`
	Currency      string             `json:"currency"`
	PaymentMethod string             `json:"payment_method"`
	Status        string             `json:"status"`
	Description   string             `json:"description,omitempty"`
	Artifacts     ArtifactsResponse  `json:"artifacts"`
	Customer      *CustomerResponse  `json:"customer,omitempty"`
	CreatedAt     string             `json:"created_at"`
	UpdatedAt     string             `json:"updated_at"`
}

// ChargeListResponse represents a list of charges in API responses
type ChargeListResponse struct {
	Charges []ChargeResponse `json:"charges"`
}

// ChargeHistoryEntryResponse is one lifecycle step of a charge
type ChargeHistoryEntryResponse struct {
	FromStatus    *string `json:"from_status,omitempty"`
	ToStatus      string  `json:"to_status"`
	CorrelationID string  `json:"correlation_id,omitempty"`
	RecordedAt    string  `json:"recorded_at"`
}

// CreateCustomerRequest represents a request to create a new customer
type CreateCustomerRequest struct {
	Name     string `json:"name" binding:"required,min=3,max=255"`
	Email    string `json:"email" binding:"required,email"`
	Document string `json:"document" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
}

// UpdateCustomerRequest carries optional customer field updates
type UpdateCustomerRequest struct {
	Name     string `json:"name" binding:"omitempty,min=3,max=255"`
	Email    string `json:"email" binding:"omitempty,email"`
	Document string `json:"document" binding:"omitempty"`
	Phone    string `json:"phone" binding:"omitempty"`
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Document  string `json:"document"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// toChargeResponse converts a charge entity to its API representation.
// Amounts are stored in minor units and exposed as decimals.
func toChargeResponse(ch *charge.Charge) ChargeResponse {
	resp := ChargeResponse{
		ID:            ch.ID.String(),
		CustomerID:    ch.CustomerID.String(),
		Amount:        float64(ch.AmountCents) / 100,
		Currency:      ch.Currency,
		PaymentMethod: string(ch.PaymentMethod),
		Status:        string(ch.Status),
		Description:   ch.Description,
		Artifacts:     toArtifactsResponse(ch.Artifacts),
		CreatedAt:     ch.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     ch.UpdatedAt.Format(time.RFC3339),
	}
	if ch.Customer != nil {
		customerResp := toCustomerResponse(ch.Customer)
		resp.Customer = &customerResp
	}
	return resp
}

func toArtifactsResponse(a payment.Artifacts) ArtifactsResponse {
	return ArtifactsResponse{
		TransferPayload:    a.TransferPayload,
		TransferExpiration: a.TransferExpiration,
		CardLastDigits:     a.CardLastDigits,
		CardBrand:          a.CardBrand,
		Installments:       a.Installments,
		SlipCode:           a.SlipCode,
		SlipDueDate:        a.SlipDueDate,
		SlipURL:            a.SlipURL,
	}
}

func toCustomerResponse(c *customer.Customer) CustomerResponse {
	return CustomerResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Document:  c.Document,
		Phone:     c.Phone,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
		UpdatedAt: c.UpdatedAt.Format(time.RFC3339),
	}
}
