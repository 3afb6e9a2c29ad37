package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/infrastructure/logger"
	"github.com/iho/ledgerly/internal/usecase"
)

const maxImportBody = 32 << 20

// ImportService defines the behavior needed by ImportHandler.
type ImportService interface {
	ImportFromSource(ctx context.Context) (*usecase.ImportResult, error)
	ImportBatch(ctx context.Context, records []domain.RawRecord) (*usecase.ImportResult, error)
}

// ImportHandler handles feed imports.
type ImportHandler struct {
	importUC  ImportService
	formatter dto.Formatter
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importUC ImportService, formatter dto.Formatter) *ImportHandler {
	return &ImportHandler{importUC: importUC, formatter: formatter}
}

// FromSource pulls the configured feed and imports it.
func (h *ImportHandler) FromSource(w http.ResponseWriter, r *http.Request) {
	res, err := h.importUC.ImportFromSource(r.Context())
	if errors.Is(err, usecase.ErrImportSourceNotConfigured) {
		writeError(w, http.StatusNotImplemented, "import source not configured", "")
		return
	}
	if errors.Is(err, usecase.ErrImportSourceFailed) {
		l := logger.FromContext(r.Context(), log.Logger)
		l.Warn().Err(err).Msg("import source failed")
		writeError(w, http.StatusBadGateway, "import source unavailable", "")
		return
	}
	if err != nil {
		respondError(w, r, "failed to import entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportFromResult(res, h.formatter))
}

// Batch imports records supplied in the request body.
func (h *ImportHandler) Batch(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody))
	dec.UseNumber()

	var req dto.ImportBatchRequest
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	res, err := h.importUC.ImportBatch(r.Context(), req.Records)
	if err != nil {
		respondError(w, r, "failed to import entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ImportFromResult(res, h.formatter))
}
