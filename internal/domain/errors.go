package domain

import (
	"errors"
	"fmt"
)

var (
	// Input errors. All of them wrap ErrInvalidEntry.
	ErrInvalidEntry     = errors.New("invalid entry")
	ErrInvalidKind      = fmt.Errorf("%w: kind must be deposit or expense", ErrInvalidEntry)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be non-zero", ErrInvalidEntry)
	ErrAmountTooLarge   = fmt.Errorf("%w: amount exceeds maximum allowed", ErrInvalidEntry)
	ErrAmountTooSmall   = fmt.Errorf("%w: amount below minimum allowed", ErrInvalidEntry)
	ErrSignMismatch     = fmt.Errorf("%w: amount sign does not match kind", ErrInvalidEntry)
	ErrInvalidTimestamp = fmt.Errorf("%w: malformed timestamp", ErrInvalidEntry)
	ErrInvalidCode      = fmt.Errorf("%w: malformed external code", ErrInvalidEntry)
	ErrMissingField     = fmt.Errorf("%w: required field missing", ErrInvalidEntry)

	// Store errors
	ErrDuplicateCode      = errors.New("external code already recorded")
	ErrEntryNotFound      = errors.New("entry not found")
	ErrStoreUnavailable   = errors.New("entry store unavailable")
	ErrInconsistentLedger = errors.New("ledger is inconsistent: running balances do not match prefix sums")

	// Admission errors
	ErrInsufficientBalance = errors.New("not enough balance")
	ErrDailyLimitExceeded  = errors.New("daily expense limit exceeded")
)

// IsBusinessRejection reports whether err is a rule rejection the caller can act on,
// as opposed to a system failure.
func IsBusinessRejection(err error) bool {
	return errors.Is(err, ErrInvalidEntry) ||
		errors.Is(err, ErrDuplicateCode) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDailyLimitExceeded)
}
