// Package core provides money parsing and handling utilities.
//
// Amounts are shopspring decimals with at most two fractional digits and at
// most twelve digits overall. Storage keeps them as integer cents.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

const (
	amountPlaces    = 2
	amountMaxDigits = 12
)

var (
	hundred   = decimal.NewFromInt(100)
	maxAmount = decimal.New(1, amountMaxDigits-amountPlaces)
)

// ParseAmount converts a decimal string to a positive amount.
//
// Both dot (12.34) and comma (12,34) decimal separators are accepted.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34, nil
//	ParseAmount("12,34")  -> 12.34, nil
//	ParseAmount("12.345") -> 0, ErrAmountPrecision
//	ParseAmount("-1")     -> 0, ErrInvalidAmount
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if err := ValidateAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidateAmount checks sign, precision and magnitude of a monetary amount.
func ValidateAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return ErrInvalidAmount
	}
	if !d.Equal(d.Round(amountPlaces)) {
		return ErrAmountPrecision
	}
	if d.GreaterThanOrEqual(maxAmount) {
		return ErrAmountTooLarge
	}
	return nil
}

// AmountMessage maps an amount error to its user-facing text.
func AmountMessage(err error) string {
	switch err {
	case ErrAmountPrecision:
		return "Ensure that there are no more than 2 decimal places."
	case ErrAmountTooLarge:
		return "Ensure that there are no more than 12 digits in total."
	case ErrInvalidAmount:
		return "Amount must be positive."
	default:
		return "A valid number is required."
	}
}

// ToCents converts an amount to integer cents. Callers validate precision first.
func ToCents(d decimal.Decimal) int64 {
	return d.Shift(amountPlaces).Round(0).IntPart()
}

// FromCents converts integer cents back to an amount.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -amountPlaces)
}

// FormatAmount renders an amount with exactly two decimals, e.g. "810.00".
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(amountPlaces)
}

// Percent returns part/whole as a percentage. whole must be non-zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	return part.Mul(hundred).Div(whole)
}
