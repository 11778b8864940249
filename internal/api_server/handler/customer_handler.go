package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/chargehub-payments-api/internal/api_server/service"
	"github.com/chargehub-payments-api/internal/domain/customer"
)

// CustomerHandler handles HTTP requests for customer operations
type CustomerHandler struct {
	customerService service.CustomerService
	logger          *slog.Logger
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(logger *slog.Logger, customerService service.CustomerService) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
		logger:          logger,
	}
}

// Create handles creation of a new customer
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.customerService.CreateCustomer(c.Request.Context(), req.Name, req.Email, req.Document, req.Phone)
	if err != nil {
		h.respondCustomerError(c, err)
		return
	}

	RespondCreated(c, toCustomerResponse(created))
}

// List returns all customers
func (h *CustomerHandler) List(c *gin.Context) {
	customers, err := h.customerService.ListCustomers(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list customers", "error", err)
		RespondInternalError(c)
		return
	}

	response := make([]CustomerResponse, 0, len(customers))
	for _, cust := range customers {
		response = append(response, toCustomerResponse(cust))
	}
	RespondOK(c, response)
}

// GetByID retrieves a customer by its ID, returning 404 if not found
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.customerID(c)
	if !ok {
		return
	}

	cust, err := h.customerService.GetCustomerByID(c.Request.Context(), id)
	if err != nil {
		h.respondCustomerError(c, err)
		return
	}

	RespondOK(c, toCustomerResponse(cust))
}

// Update applies partial field updates to a customer
func (h *CustomerHandler) Update(c *gin.Context) {
	id, ok := h.customerID(c)
	if !ok {
		return
	}

	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.customerService.UpdateCustomer(c.Request.Context(), id, req.Name, req.Email, req.Document, req.Phone)
	if err != nil {
		h.respondCustomerError(c, err)
		return
	}

	RespondOK(c, toCustomerResponse(updated))
}

// Delete removes a customer
func (h *CustomerHandler) Delete(c *gin.Context) {
	id, ok := h.customerID(c)
	if !ok {
		return
	}

	if err := h.customerService.RemoveCustomer(c.Request.Context(), id); err != nil {
		h.respondCustomerError(c, err)
		return
	}

	RespondNoContent(c)
}

func (h *CustomerHandler) customerID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid customer ID")
		return uuid.Nil, false
	}
	return id, true
}

// respondCustomerError maps domain errors to HTTP status codes
func (h *CustomerHandler) respondCustomerError(c *gin.Context, err error) {
	var notFoundErr customer.ErrCustomerNotFound
	if errors.As(err, &notFoundErr) {
		RespondNotFound(c, "Customer not found")
		return
	}

	var dupEmailErr customer.ErrDuplicateEmail
	if errors.As(err, &dupEmailErr) {
		RespondConflict(c, "Customer with this email already exists")
		return
	}

	var dupDocumentErr customer.ErrDuplicateDocument
	if errors.As(err, &dupDocumentErr) {
		RespondConflict(c, "Customer with this document already exists")
		return
	}

	if errors.Is(err, customer.ErrInvalidName) ||
		errors.Is(err, customer.ErrInvalidEmail) ||
		errors.Is(err, customer.ErrInvalidDocument) ||
		errors.Is(err, customer.ErrInvalidPhone) {
		RespondValidationError(c, err.Error())
		return
	}

	h.logger.Error("Customer operation failed", "error", err)
	RespondInternalError(c)
}
