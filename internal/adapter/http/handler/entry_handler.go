package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// EntryService defines the behavior needed by EntryHandler.
type EntryService interface {
	AddEntry(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error)
	ListEntries(ctx context.Context, input usecase.ListEntriesInput) (*usecase.EntryPage, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC   EntryService
	formatter dto.Formatter
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, formatter dto.Formatter) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, formatter: formatter}
}

// Create records a deposit or expense.
func (h *EntryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.AddEntryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.entryUC.AddEntry(r.Context(), req.ToUseCaseInput())
	if err != nil {
		respondError(w, r, "failed to add entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.AddEntryFromResult(res, h.formatter))
}

// List returns a page of entries, newest first.
func (h *EntryHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.entryUC.ListEntries(r.Context(), usecase.ListEntriesInput{
		Kind:     domain.Kind(r.URL.Query().Get("type")),
		Page:     parseIntQuery(r, "page", 1),
		PageSize: parseIntQuery(r, "page_size", 0),
	})
	if err != nil {
		respondError(w, r, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntryPageFromResult(page, h.formatter))
}
