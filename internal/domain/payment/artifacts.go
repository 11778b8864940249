package payment

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// transferMerchantName is embedded in every generated transfer payload.
	// The payload is an opaque simulation artifact, not a signed instrument.
	transferMerchantName = "CHARGEHUB SIMULATED MERCHANT"

	// defaultTransferTTL is applied when the client supplies no expiration
	defaultTransferTTL = 24 * time.Hour

	// slipCodeLength is the fixed length of a generated slip reference code
	slipCodeLength = 47

	// slipBaseURL is the deterministic prefix of every slip retrieval URL
	slipBaseURL = "https://slips.chargehub.example.com/"
)

// Artifacts holds the method-specific fields attached to a charge at creation.
// Exactly one method's group is populated; the others stay nil.
type Artifacts struct {
	// Instant transfer
	TransferPayload    *string    `json:"transfer_payload,omitempty"`
	TransferExpiration *time.Time `json:"transfer_expiration,omitempty"`

	// Credit card
	CardLastDigits *string `json:"card_last_digits,omitempty"`
	CardBrand      *string `json:"card_brand,omitempty"`
	Installments   *int    `json:"installments,omitempty"`

	// Bank slip
	SlipCode    *string    `json:"slip_code,omitempty"`
	SlipDueDate *time.Time `json:"slip_due_date,omitempty"`
	SlipURL     *string    `json:"slip_url,omitempty"`
}

// Generate synthesizes the transfer payload and expiration.
// The payload embeds a fresh token, so every charge gets a unique artifact.
func (t InstantTransfer) Generate(now time.Time) (Artifacts, error) {
	suffix, err := randomDigits(4)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to generate transfer payload suffix: %w", err)
	}

	token := strings.ReplaceAll(uuid.New().String(), "-", "")
	payload := fmt.Sprintf(
		"00020126360014BR.GOV.BCB.PIX0132%s5204000053039865802BR59%02d%s6009SAO PAULO62070503***6304%s",
		token, len(transferMerchantName), transferMerchantName, suffix,
	)

	expiration := now.Add(defaultTransferTTL)
	if t.Expiration != nil {
		expiration = *t.Expiration
	}

	return Artifacts{
		TransferPayload:    &payload,
		TransferExpiration: &expiration,
	}, nil
}

// brandByFirstDigit maps a card number's first digit to its brand
var brandByFirstDigit = map[byte]string{
	'4': "Visa",
	'5': "Mastercard",
	'3': "American Express",
	'6': "Discover",
}

// BrandUnknown is reported for card numbers outside the known first-digit ranges
const BrandUnknown = "Unknown"

// DetectCardBrand derives the card brand from the number's first digit
func DetectCardBrand(cardNumber string) string {
	if cardNumber == "" {
		return BrandUnknown
	}
	if brand, ok := brandByFirstDigit[cardNumber[0]]; ok {
		return brand
	}
	return BrandUnknown
}

// Generate masks the card: only the last four digits and the derived brand
// survive. The full number and CVV are dropped here and never persisted.
func (c CreditCard) Generate(now time.Time) (Artifacts, error) {
	lastDigits := c.Number
	if len(lastDigits) > 4 {
		lastDigits = lastDigits[len(lastDigits)-4:]
	}
	brand := DetectCardBrand(c.Number)

	installments := c.Installments
	if installments == 0 {
		installments = MinInstallments
	}

	return Artifacts{
		CardLastDigits: &lastDigits,
		CardBrand:      &brand,
		Installments:   &installments,
	}, nil
}

// Generate produces the slip reference code and its retrieval URL.
// The code comes from crypto/rand, the URL is a pure function of the code.
func (b BankSlip) Generate(now time.Time) (Artifacts, error) {
	code, err := randomDigits(slipCodeLength)
	if err != nil {
		return Artifacts{}, fmt.Errorf("failed to generate slip code: %w", err)
	}

	url := SlipURL(code)
	dueDate := b.DueDate

	return Artifacts{
		SlipCode:    &code,
		SlipDueDate: &dueDate,
		SlipURL:     &url,
	}, nil
}

// SlipURL derives the retrieval URL for a slip reference code
func SlipURL(code string) string {
	return slipBaseURL + code
}

// randomDigits returns n decimal digits from a non-predictable source
func randomDigits(n int) (string, error) {
	var sb strings.Builder
	sb.Grow(n)
	for i := 0; i < n; i++ {
		d, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		sb.WriteByte(byte('0' + d.Int64()))
	}
	return sb.String(), nil
}
