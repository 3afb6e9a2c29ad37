package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// LedgerService defines the behavior needed by LedgerHandler.
type LedgerService interface {
	Recompute(ctx context.Context) (int, error)
	CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error)
}

// LedgerHandler handles ledger-wide operations.
type LedgerHandler struct {
	ledgerUC LedgerService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(ledgerUC LedgerService) *LedgerHandler {
	return &LedgerHandler{ledgerUC: ledgerUC}
}

// CheckConsistency checks if the ledger is consistent.
func (h *LedgerHandler) CheckConsistency(w http.ResponseWriter, r *http.Request) {
	report, err := h.ledgerUC.CheckConsistency(r.Context())
	if errors.Is(err, domain.ErrInconsistentLedger) && report != nil {
		writeJSON(w, http.StatusConflict, dto.ConsistencyFromReport(report))
		return
	}
	if err != nil {
		respondError(w, r, "failed to check consistency", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ConsistencyFromReport(report))
}

// Recompute rewrites every running balance from the prefix sums.
func (h *LedgerHandler) Recompute(w http.ResponseWriter, r *http.Request) {
	writes, err := h.ledgerUC.Recompute(r.Context())
	if err != nil {
		respondError(w, r, "failed to recompute balances", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.RecomputeResponse{Writes: writes})
}
