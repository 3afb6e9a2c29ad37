package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// AddEntryRequest represents a request to record a deposit or expense.
type AddEntryRequest struct {
	Type       string          `json:"type"`
	Amount     decimal.Decimal `json:"amount"`
	OccurredAt *time.Time      `json:"occurred_at,omitempty"`
	Code       *string         `json:"code,omitempty"`
}

// ToUseCaseInput converts to use case input. The kind is checked by the use case.
func (r *AddEntryRequest) ToUseCaseInput() usecase.AddEntryInput {
	return usecase.AddEntryInput{
		Kind:         domain.Kind(r.Type),
		Amount:       r.Amount,
		OccurredAt:   r.OccurredAt,
		ExternalCode: r.Code,
	}
}

// ImportBatchRequest carries raw feed records for a batch import.
type ImportBatchRequest struct {
	Records []domain.RawRecord `json:"records"`
}
