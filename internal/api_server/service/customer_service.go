package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/chargehub-payments-api/internal/domain/customer"
)

// CustomerServiceImpl implements the CustomerService interface
type CustomerServiceImpl struct {
	customerRepo customer.Repository
}

// NewCustomerService creates a new customer service
func NewCustomerService(customerRepo customer.Repository) CustomerService {
	return &CustomerServiceImpl{
		customerRepo: customerRepo,
	}
}

// CreateCustomer creates a new customer, checking email and document uniqueness
func (s *CustomerServiceImpl) CreateCustomer(ctx context.Context, name, email, document, phone string) (*customer.Customer, error) {
	existing, err := s.customerRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, customer.ErrDuplicateEmail{Email: email}
	}

	existing, err = s.customerRepo.GetByDocument(ctx, document)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, customer.ErrDuplicateDocument{Document: document}
	}

	c, err := customer.NewCustomer(name, email, document, phone)
	if err != nil {
		return nil, err
	}

	if err := s.customerRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// GetCustomerByID retrieves a customer by its ID
func (s *CustomerServiceImpl) GetCustomerByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	return s.customerRepo.GetByID(ctx, id)
}

// ListCustomers returns all customers, newest first
func (s *CustomerServiceImpl) ListCustomers(ctx context.Context) ([]*customer.Customer, error) {
	return s.customerRepo.List(ctx)
}

// UpdateCustomer applies non-empty field updates after uniqueness checks
func (s *CustomerServiceImpl) UpdateCustomer(ctx context.Context, id uuid.UUID, name, email, document, phone string) (*customer.Customer, error) {
	c, err := s.customerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if email != "" && email != c.Email {
		existing, err := s.customerRepo.GetByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, customer.ErrDuplicateEmail{Email: email}
		}
	}

	if document != "" && document != c.Document {
		existing, err := s.customerRepo.GetByDocument(ctx, document)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, customer.ErrDuplicateDocument{Document: document}
		}
	}

	if err := c.Update(name, email, document, phone); err != nil {
		return nil, err
	}

	if err := s.customerRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	return c, nil
}

// RemoveCustomer deletes a customer
func (s *CustomerServiceImpl) RemoveCustomer(ctx context.Context, id uuid.UUID) error {
	return s.customerRepo.Delete(ctx, id)
}
