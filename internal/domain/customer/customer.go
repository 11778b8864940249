package customer

import (
	"errors"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrInvalidName     = errors.New("name must be between 3 and 255 characters")
	ErrInvalidEmail    = errors.New("email is not valid")
	ErrInvalidDocument = errors.New("document must contain 11 to 14 digits")
	ErrInvalidPhone    = errors.New("phone must contain 10 or 11 digits")
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	documentPattern = regexp.MustCompile(`^[0-9]{11,14}$`)
	phonePattern    = regexp.MustCompile(`^[0-9]{10,11}$`)
)

// Customer represents a registered customer charges are created against.
// Document holds the national tax identifier (11 digits for individuals,
// 14 for companies).
type Customer struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Document  string    `json:"document"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewCustomer creates a new customer with the given parameters
func NewCustomer(name, email, document, phone string) (*Customer, error) {
	if len(name) < 3 || len(name) > 255 {
		return nil, ErrInvalidName
	}
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if !documentPattern.MatchString(document) {
		return nil, ErrInvalidDocument
	}
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	now := time.Now()
	return &Customer{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Document:  document,
		Phone:     phone,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// Update applies the non-empty fields of the patch, re-validating each
func (c *Customer) Update(name, email, document, phone string) error {
	if name != "" {
		if len(name) < 3 || len(name) > 255 {
			return ErrInvalidName
		}
		c.Name = name
	}
	if email != "" {
		if !emailPattern.MatchString(email) {
			return ErrInvalidEmail
		}
		c.Email = email
	}
	if document != "" {
		if !documentPattern.MatchString(document) {
			return ErrInvalidDocument
		}
		c.Document = document
	}
	if phone != "" {
		if !phonePattern.MatchString(phone) {
			return ErrInvalidPhone
		}
		c.Phone = phone
	}

	c.UpdatedAt = time.Now()
	return nil
}
