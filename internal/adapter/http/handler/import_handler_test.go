package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

func TestImportHandler_Batch(t *testing.T) {
	var captured []domain.RawRecord
	h := NewImportHandler(&importServiceStub{
		batchFn: func(ctx context.Context, records []domain.RawRecord) (*usecase.ImportResult, error) {
			captured = records
			return &usecase.ImportResult{Imported: 1, TotalBalance: decimal.RequireFromString("12.5")}, nil
		},
	}, dto.NewFormatter("USD"))

	body := `{"records":[{"id":"TX-1","amount":12.50,"type":"deposit"}]}`
	rec := httptest.NewRecorder()
	h.Batch(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries/import/batch", strings.NewReader(body)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(captured) != 1 || captured[0]["amount"] != json.Number("12.50") {
		t.Fatalf("expected numbers to be preserved, got %#v", captured)
	}

	var resp dto.ImportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Imported != 1 || resp.TotalBalance != "12.50" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestImportHandler_BatchMalformedBody(t *testing.T) {
	h := NewImportHandler(&importServiceStub{}, dto.NewFormatter("USD"))

	rec := httptest.NewRecorder()
	h.Batch(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries/import/batch", strings.NewReader(`[`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestImportHandler_FromSource(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, http.StatusOK},
		{"not configured", usecase.ErrImportSourceNotConfigured, http.StatusNotImplemented},
		{"source failed", fmt.Errorf("%w: %w", usecase.ErrImportSourceFailed, errors.New("timeout")), http.StatusBadGateway},
		{"store unavailable", domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewImportHandler(&importServiceStub{
				sourceFn: func(ctx context.Context) (*usecase.ImportResult, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &usecase.ImportResult{Imported: 3}, nil
				},
			}, dto.NewFormatter("USD"))

			rec := httptest.NewRecorder()
			h.FromSource(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries/import", nil))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}
