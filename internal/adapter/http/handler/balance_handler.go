package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
)

// BalanceService defines the behavior needed by BalanceHandler.
type BalanceService interface {
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
	BalanceAt(ctx context.Context, at time.Time) (decimal.Decimal, error)
}

// BalanceHandler serves the ledger total.
type BalanceHandler struct {
	balanceUC BalanceService
	formatter dto.Formatter
}

// NewBalanceHandler creates a new BalanceHandler.
func NewBalanceHandler(balanceUC BalanceService, formatter dto.Formatter) *BalanceHandler {
	return &BalanceHandler{balanceUC: balanceUC, formatter: formatter}
}

// Get returns the current total, or the total as of ?at=RFC3339.
func (h *BalanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	atStr := r.URL.Query().Get("at")
	if atStr == "" {
		balance, err := h.balanceUC.TotalBalance(r.Context())
		if err != nil {
			respondError(w, r, "failed to get balance", err)
			return
		}
		writeJSON(w, http.StatusOK, dto.NewBalanceResponse(balance, nil, h.formatter))
		return
	}

	at, err := time.Parse(time.RFC3339, atStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid 'at' format (use RFC3339)", err.Error())
		return
	}

	balance, err := h.balanceUC.BalanceAt(r.Context(), at)
	if err != nil {
		respondError(w, r, "failed to get historical balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.NewBalanceResponse(balance, &at, h.formatter))
}
