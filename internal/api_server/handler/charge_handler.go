package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chargehub-payments-api/internal/api_server/middleware"
	"github.com/chargehub-payments-api/internal/api_server/service"
	"github.com/chargehub-payments-api/internal/domain/charge"
	"github.com/chargehub-payments-api/internal/domain/customer"
	"github.com/chargehub-payments-api/internal/domain/payment"
)

// ChargeHandler handles HTTP requests for charge operations
type ChargeHandler struct {
	chargeService service.ChargeService
	logger        *slog.Logger
}

// NewChargeHandler creates a new charge handler
func NewChargeHandler(logger *slog.Logger, chargeService service.ChargeService) *ChargeHandler {
	return &ChargeHandler{
		chargeService: chargeService,
		logger:        logger,
	}
}

// Create handles creation of a new charge
func (h *ChargeHandler) Create(c *gin.Context) {
	var req CreateChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		RespondBadRequest(c, "Invalid customer ID")
		return
	}

	amountCents, err := amountToCents(req.Amount)
	if err != nil {
		RespondValidationError(c, err.Error())
		return
	}

	method, err := buildMethod(&req)
	if err != nil {
		var unknownErr payment.ErrUnknownMethod
		if errors.As(err, &unknownErr) {
			RespondBadRequest(c, "Unsupported payment method: "+unknownErr.Name)
			return
		}
		RespondValidationError(c, err.Error())
		return
	}

	params := service.CreateChargeParams{
		CustomerID:  customerID,
		AmountCents: amountCents,
		Currency:    req.Currency,
		Method:      method,
		Description: req.Description,
	}

	ch, err := h.chargeService.CreateCharge(c.Request.Context(), params, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondChargeError(c, err)
		return
	}

	RespondCreated(c, toChargeResponse(ch))
}

// List returns charges, optionally filtered by customer_id query parameter
func (h *ChargeHandler) List(c *gin.Context) {
	filter := charge.Filter{}
	if raw := c.Query("customer_id"); raw != "" {
		customerID, err := uuid.Parse(raw)
		if err != nil {
			RespondBadRequest(c, "Invalid customer ID filter")
			return
		}
		filter.CustomerID = &customerID
	}

	charges, err := h.chargeService.ListCharges(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list charges", "error", err)
		RespondInternalError(c)
		return
	}

	response := ChargeListResponse{Charges: make([]ChargeResponse, 0, len(charges))}
	for _, ch := range charges {
		response.Charges = append(response.Charges, toChargeResponse(ch))
	}
	RespondOK(c, response)
}

// GetByID retrieves a charge by its ID, returning 404 if not found
func (h *ChargeHandler) GetByID(c *gin.Context) {
	id, ok := h.chargeID(c)
	if !ok {
		return
	}

	ch, err := h.chargeService.GetChargeByID(c.Request.Context(), id)
	if err != nil {
		h.respondChargeError(c, err)
		return
	}

	RespondOK(c, toChargeResponse(ch))
}

// UpdateStatus applies a status patch to a charge
func (h *ChargeHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.chargeID(c)
	if !ok {
		return
	}

	var req UpdateChargeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	patch := charge.Patch{}
	if req.Status != nil {
		status, err := charge.ParseStatus(*req.Status)
		if err != nil {
			RespondBadRequest(c, "Unknown status: "+*req.Status)
			return
		}
		patch.Status = &status
	}

	ch, err := h.chargeService.UpdateChargeStatus(c.Request.Context(), id, patch, middleware.GetCorrelationID(c))
	if err != nil {
		h.respondChargeError(c, err)
		return
	}

	RespondOK(c, toChargeResponse(ch))
}

// Delete removes a charge regardless of its status
func (h *ChargeHandler) Delete(c *gin.Context) {
	id, ok := h.chargeID(c)
	if !ok {
		return
	}

	if err := h.chargeService.RemoveCharge(c.Request.Context(), id); err != nil {
		h.respondChargeError(c, err)
		return
	}

	RespondNoContent(c)
}

// History returns the lifecycle audit trail of a charge, oldest first
func (h *ChargeHandler) History(c *gin.Context) {
	id, ok := h.chargeID(c)
	if !ok {
		return
	}

	entries, err := h.chargeService.GetChargeHistory(c.Request.Context(), id)
	if err != nil {
		h.respondChargeError(c, err)
		return
	}

	response := make([]ChargeHistoryEntryResponse, 0, len(entries))
	for _, entry := range entries {
		item := ChargeHistoryEntryResponse{
			ToStatus:      string(entry.ToStatus),
			CorrelationID: entry.CorrelationID,
			RecordedAt:    entry.RecordedAt.Format(time.RFC3339),
		}
		if entry.FromStatus != nil {
			from := string(*entry.FromStatus)
			item.FromStatus = &from
		}
		response = append(response, item)
	}
	RespondOK(c, response)
}

func (h *ChargeHandler) chargeID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid charge ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondChargeError maps domain errors to HTTP status codes
func (h *ChargeHandler) respondChargeError(c *gin.Context, err error) {
	var chargeNotFound charge.ErrChargeNotFound
	if errors.As(err, &chargeNotFound) {
		RespondNotFound(c, "Charge not found")
		return
	}

	var customerNotFound customer.ErrCustomerNotFound
	if errors.As(err, &customerNotFound) {
		RespondNotFound(c, "Customer not found")
		return
	}

	var validationErr payment.ValidationError
	if errors.As(err, &validationErr) {
		RespondValidationError(c, validationErr.Message)
		return
	}

	var transitionErr charge.InvalidTransitionError
	if errors.As(err, &transitionErr) {
		RespondWithError(c, http.StatusBadRequest, "INVALID_TRANSITION", transitionErr.Error())
		return
	}

	var concurrentErr charge.ErrConcurrentModification
	if errors.As(err, &concurrentErr) {
		RespondConflict(c, "Charge was modified concurrently, retry the request")
		return
	}

	if errors.Is(err, charge.ErrInvalidAmount) || errors.Is(err, charge.ErrInvalidCurrencyFormat) {
		RespondValidationError(c, err.Error())
		return
	}

	h.logger.Error("Charge operation failed", "error", err)
	RespondInternalError(c)
}

const (
	minChargeAmount = 0.01
	// maxChargeAmount keeps amount*100 well inside float64's integer-exact
	// range, so a third fraction digit is always detectable and the cents
	// value cannot overflow int64.
	maxChargeAmount = 1e9
)

// amountToCents converts a decimal amount in major units to minor units,
// rejecting amounts outside [0.01, 1e9] or with more than two fraction digits.
func amountToCents(amount float64) (int64, error) {
	if math.IsNaN(amount) || amount < minChargeAmount {
		return 0, errors.New("amount must be at least 0.01")
	}
	if amount > maxChargeAmount {
		return 0, errors.New("amount cannot exceed 1000000000.00")
	}

	scaled := amount * 100
	cents := math.Round(scaled)
	if math.Abs(scaled-cents) > 1e-6 {
		return 0, errors.New("amount cannot have more than two decimal places")
	}

	return int64(cents), nil
}

// buildMethod constructs the payment method variant from the request fields
func buildMethod(req *CreateChargeRequest) (payment.Method, error) {
	name, err := payment.ParseMethodName(req.PaymentMethod)
	if err != nil {
		return nil, err
	}

	switch name {
	case payment.MethodInstantTransfer:
		transfer := payment.InstantTransfer{}
		if req.TransferExpiration != "" {
			expiration, err := time.Parse(time.RFC3339, req.TransferExpiration)
			if err != nil {
				return nil, payment.ValidationError{
					Field:   "transfer_expiration",
					Message: "transfer expiration must be an RFC3339 timestamp",
				}
			}
			transfer.Expiration = &expiration
		}
		return transfer, nil

	case payment.MethodCreditCard:
		return payment.CreditCard{
			Number:       req.CardNumber,
			HolderName:   req.CardHolderName,
			Expiration:   req.CardExpiration,
			CVV:          req.CardCVV,
			Installments: req.Installments,
		}, nil

	case payment.MethodBankSlip:
		if req.SlipDueDate == "" {
			return nil, payment.ValidationError{
				Field:   "slip_due_date",
				Message: "due date is required for bank slip payments",
			}
		}
		dueDate, err := parseDueDate(req.SlipDueDate)
		if err != nil {
			return nil, payment.ValidationError{
				Field:   "slip_due_date",
				Message: "due date must be an RFC3339 timestamp or a YYYY-MM-DD date",
			}
		}
		return payment.BankSlip{DueDate: dueDate}, nil
	}

	return nil, payment.ErrUnknownMethod{Name: req.PaymentMethod}
}

func parseDueDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unparseable due date: %s", raw)
}
