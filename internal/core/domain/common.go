package domain

import (
	"time"

	"github.com/SscSPs/wallet_ledger/internal/apperrors"
	"github.com/shopspring/decimal"
)

// AmountScale is the number of fractional digits every stored amount carries.
const AmountScale = 8

// MaxAmountIntegerDigits matches NUMERIC(24,8): 24 total digits, 8 after the point.
const MaxAmountIntegerDigits = 16

// minAmountExponent is the smallest exponent accepted, trailing zeros included.
// Exponents are bounded before any comparison, since rescaling is 10^|exponent| work.
const minAmountExponent = -(AmountScale + 24)

var maxAmount = decimal.New(1, MaxAmountIntegerDigits)

// AuditFields holds the persistence timestamps shared by domain entities.
// Both are assigned by the repository, never by callers.
type AuditFields struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ValidateAmount checks that amount is strictly positive and fits NUMERIC(24,8).
func ValidateAmount(amount decimal.Decimal) error {
	switch {
	case !amount.IsPositive():
		return apperrors.NewFieldError(apperrors.ErrValidation, "amount", "amount must be greater than zero")
	case amount.Exponent() < minAmountExponent:
		return apperrors.NewFieldError(apperrors.ErrValidation, "amount", "amount must have at most 8 decimal places")
	case amount.Exponent() > MaxAmountIntegerDigits:
		return apperrors.NewFieldError(apperrors.ErrValidation, "amount", "amount must have at most 16 integer digits")
	case !amount.Equal(amount.Truncate(AmountScale)):
		return apperrors.NewFieldError(apperrors.ErrValidation, "amount", "amount must have at most 8 decimal places")
	case amount.GreaterThanOrEqual(maxAmount):
		return apperrors.NewFieldError(apperrors.ErrValidation, "amount", "amount must have at most 16 integer digits")
	}
	return nil
}

// FormatAmount renders an amount with exactly AmountScale fractional digits.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(AmountScale)
}
