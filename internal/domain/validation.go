package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation constants
const (
	MaxEntryAmount     = "999999999999.99" // NUMERIC(14,2)
	MinEntryAmount     = "0.01"
	MaxExternalCodeLen = 100
	DefaultPageSize    = 10
	MaxPageSize        = 100
)

var (
	maxEntryAmount = decimal.RequireFromString(MaxEntryAmount)
	minEntryAmount = decimal.RequireFromString(MinEntryAmount)
)

// ValidateAmount validates the magnitude of an entry amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.IsZero() || amount.IsNegative() {
		return ErrInvalidAmount
	}

	if amount.LessThan(minEntryAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinEntryAmount)
	}

	if amount.GreaterThan(maxEntryAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxEntryAmount)
	}

	return nil
}

// ValidateExternalCode validates a provenance code.
func ValidateExternalCode(code string) error {
	if strings.TrimSpace(code) == "" {
		return fmt.Errorf("%w: code cannot be blank", ErrInvalidCode)
	}

	if utf8.RuneCountInString(code) > MaxExternalCodeLen {
		return fmt.Errorf("%w: code exceeds %d characters", ErrInvalidCode, MaxExternalCodeLen)
	}

	return nil
}

// ValidatePagination clamps a 1-based page number and page size.
func ValidatePagination(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}

	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	return page, pageSize
}
