// Package payment defines the supported payment methods as a closed set of
// variant types. Each variant carries its own details payload and knows how to
// validate it and how to synthesize the artifacts attached to a new charge,
// so there is no runtime switch with a fallthrough branch.
package payment

import (
	"fmt"
	"regexp"
	"time"
)

// MethodName identifies a supported payment method
type MethodName string

const (
	MethodInstantTransfer MethodName = "INSTANT_TRANSFER"
	MethodCreditCard      MethodName = "CREDIT_CARD"
	MethodBankSlip        MethodName = "BANK_SLIP"
)

// ErrUnknownMethod indicates an unsupported payment method name
type ErrUnknownMethod struct {
	Name string
}

func (e ErrUnknownMethod) Error() string {
	return "unknown payment method: " + e.Name
}

// ParseMethodName converts a raw string into a MethodName
func ParseMethodName(name string) (MethodName, error) {
	switch MethodName(name) {
	case MethodInstantTransfer, MethodCreditCard, MethodBankSlip:
		return MethodName(name), nil
	}
	return "", ErrUnknownMethod{Name: name}
}

// ValidationError reports a missing or malformed payment detail field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Method is the closed interface over the three payment method variants.
// Validate runs before any persistence; Generate synthesizes the
// method-specific artifacts for a new charge. Both are pure apart from the
// random source used for tokens and slip codes.
type Method interface {
	Name() MethodName
	Validate(now time.Time) error
	Generate(now time.Time) (Artifacts, error)
}

// Compile-time checks that every variant satisfies Method
var (
	_ Method = InstantTransfer{}
	_ Method = CreditCard{}
	_ Method = BankSlip{}
)

// InstantTransfer carries the details for an instant-transfer charge.
// The expiration is optional; when absent the generated artifact defaults to
// 24 hours after creation.
type InstantTransfer struct {
	Expiration *time.Time
}

func (InstantTransfer) Name() MethodName { return MethodInstantTransfer }

// Validate always succeeds: instant transfers require no additional fields
func (InstantTransfer) Validate(now time.Time) error { return nil }

var (
	cardNumberPattern     = regexp.MustCompile(`^[0-9]{13,19}$`)
	cardExpirationPattern = regexp.MustCompile(`^(0[1-9]|1[0-2])/[0-9]{4}$`)
	cardCVVPattern        = regexp.MustCompile(`^[0-9]{3,4}$`)
)

const (
	// MinInstallments and MaxInstallments bound the card installment plan
	MinInstallments = 1
	MaxInstallments = 12
)

// CreditCard carries the details for a card charge. The full number and CVV
// live only in this value; artifact generation keeps the last four digits and
// the derived brand, never the raw fields.
type CreditCard struct {
	Number       string
	HolderName   string
	Expiration   string // MM/YYYY
	CVV          string
	Installments int // 0 means not supplied, defaults to 1
}

func (CreditCard) Name() MethodName { return MethodCreditCard }

func (c CreditCard) Validate(now time.Time) error {
	if c.Number == "" {
		return ValidationError{Field: "card_number", Message: "card number is required for credit card payments"}
	}
	if !cardNumberPattern.MatchString(c.Number) {
		return ValidationError{Field: "card_number", Message: "card number must contain 13 to 19 digits"}
	}
	if c.HolderName == "" {
		return ValidationError{Field: "card_holder_name", Message: "card holder name is required for credit card payments"}
	}
	if c.Expiration == "" {
		return ValidationError{Field: "card_expiration", Message: "card expiration is required for credit card payments"}
	}
	if !cardExpirationPattern.MatchString(c.Expiration) {
		return ValidationError{Field: "card_expiration", Message: "card expiration must be in MM/YYYY format"}
	}
	if c.CVV == "" {
		return ValidationError{Field: "card_cvv", Message: "CVV is required for credit card payments"}
	}
	if !cardCVVPattern.MatchString(c.CVV) {
		return ValidationError{Field: "card_cvv", Message: "CVV must contain 3 or 4 digits"}
	}
	if c.Installments != 0 && (c.Installments < MinInstallments || c.Installments > MaxInstallments) {
		return ValidationError{
			Field:   "installments",
			Message: fmt.Sprintf("installments must be between %d and %d", MinInstallments, MaxInstallments),
		}
	}
	return nil
}

// BankSlip carries the details for a bank-slip charge. A zero DueDate means
// the field was not supplied.
type BankSlip struct {
	DueDate time.Time
}

func (BankSlip) Name() MethodName { return MethodBankSlip }

func (b BankSlip) Validate(now time.Time) error {
	if b.DueDate.IsZero() {
		return ValidationError{Field: "slip_due_date", Message: "due date is required for bank slip payments"}
	}
	if !b.DueDate.After(now) {
		return ValidationError{Field: "slip_due_date", Message: "due date must be in the future"}
	}
	return nil
}
