package validation

import (
	"fmt"
	"regexp"

	"github.com/google/uuid"
)

// Common validation errors
var (
	ErrInvalidUUID      = fmt.Errorf("invalid UUID format")
	ErrInvalidStockCode = fmt.Errorf("invalid stock code")
)

// stockCodePattern accepts domestic codes (2330, 00878, 00632R) and
// foreign tickers (AAPL, BRK.B).
var stockCodePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9.\-]{0,11}$`)

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidUUID, id)
	}
	return nil
}

// ValidateAccountID accepts a securities account UUID or the literal
// "null" used for transactions without an account.
func ValidateAccountID(id string) error {
	if id == "null" {
		return nil
	}
	return ValidateUUID(id)
}

// ValidateStockCode checks the shape of an instrument code.
func ValidateStockCode(code string) error {
	if !stockCodePattern.MatchString(code) {
		return fmt.Errorf("%w: %q", ErrInvalidStockCode, code)
	}
	return nil
}
