package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind is the direction of a ledger entry.
type Kind string

const (
	KindDeposit Kind = "deposit"
	KindExpense Kind = "expense"
)

// Source records how an entry entered the ledger.
type Source string

const (
	SourceManual Source = "manual"
	SourceImport Source = "import"
)

// AmountScale is the number of fraction digits kept for amounts and balances.
const AmountScale = 2

// ParseKind parses a kind name. Matching is exact and lower case.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDeposit, KindExpense:
		return Kind(s), nil
	default:
		return "", ErrInvalidKind
	}
}

// Label returns the human readable kind name.
func (k Kind) Label() string {
	switch k {
	case KindDeposit:
		return "Deposit"
	case KindExpense:
		return "Expense"
	default:
		return string(k)
	}
}

// Entry is one recorded deposit or expense.
//
// Everything except RunningBalance is immutable once committed. RunningBalance is
// owned by the recompute engine.
type Entry struct {
	OccurredAt     time.Time
	CreatedAt      time.Time
	ExternalCode   *string
	ID             string
	Kind           Kind
	Source         Source
	Amount         decimal.Decimal
	RunningBalance decimal.Decimal
}

// NormalizeAmount returns amount rounded to AmountScale with the sign implied by kind:
// deposits are non-negative, expenses non-positive.
func NormalizeAmount(kind Kind, amount decimal.Decimal) decimal.Decimal {
	amount = amount.Round(AmountScale)

	switch kind {
	case KindExpense:
		if amount.IsPositive() {
			return amount.Neg()
		}
	case KindDeposit:
		if amount.IsNegative() {
			return amount.Abs()
		}
	}

	return amount
}

// Normalize fixes the amount sign and fills OccurredAt when missing.
func (e *Entry) Normalize(now time.Time) {
	e.Amount = NormalizeAmount(e.Kind, e.Amount)
	if e.OccurredAt.IsZero() {
		e.OccurredAt = now
	}
	if e.Source == "" {
		e.Source = SourceManual
	}
}

// Validate checks the kind/amount invariant of a normalized entry.
func (e *Entry) Validate() error {
	if _, err := ParseKind(string(e.Kind)); err != nil {
		return err
	}

	if err := ValidateAmount(e.Amount.Abs()); err != nil {
		return err
	}

	if e.Kind == KindDeposit && e.Amount.IsNegative() {
		return ErrSignMismatch
	}
	if e.Kind == KindExpense && e.Amount.IsPositive() {
		return ErrSignMismatch
	}

	if e.ExternalCode != nil {
		if err := ValidateExternalCode(*e.ExternalCode); err != nil {
			return err
		}
	}

	return nil
}

// Code returns the external code or the empty string.
func (e *Entry) Code() string {
	if e.ExternalCode == nil {
		return ""
	}
	return *e.ExternalCode
}

// Before reports whether e sorts before other under the ordering key
// (occurred_at ascending, id ascending).
func (e *Entry) Before(other *Entry) bool {
	if !e.OccurredAt.Equal(other.OccurredAt) {
		return e.OccurredAt.Before(other.OccurredAt)
	}
	return e.ID < other.ID
}

// CompareEntries is the ordering key as a three-way comparison, for slices.SortFunc.
func CompareEntries(a, b *Entry) int {
	switch {
	case a.Before(b):
		return -1
	case b.Before(a):
		return 1
	default:
		return 0
	}
}

// EntryFilter narrows ordered reads and pages.
type EntryFilter struct {
	Kind Kind // empty means all kinds
}

// Matches reports whether e passes the filter.
func (f EntryFilter) Matches(e *Entry) bool {
	return f.Kind == "" || e.Kind == f.Kind
}
