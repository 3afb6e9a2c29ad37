package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/domain"
)

func TestBalanceHandler_Get(t *testing.T) {
	var capturedAt time.Time
	h := NewBalanceHandler(&ledgerServiceStub{
		totalFn: func(ctx context.Context) (decimal.Decimal, error) {
			return decimal.RequireFromString("1234.5"), nil
		},
		atFn: func(ctx context.Context, at time.Time) (decimal.Decimal, error) {
			capturedAt = at
			return decimal.NewFromInt(100), nil
		},
	}, dto.NewFormatter("USD"))

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil))

	var resp dto.BalanceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Balance != "1234.50" || resp.BalanceDisplay != "$1,234.50" || resp.At != nil {
		t.Fatalf("unexpected response: %+v", resp)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/balance?at=2024-03-09T00:00:00Z", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !capturedAt.Equal(time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected at: %s", capturedAt)
	}
}

func TestBalanceHandler_Errors(t *testing.T) {
	h := NewBalanceHandler(&ledgerServiceStub{
		totalFn: func(ctx context.Context) (decimal.Decimal, error) {
			return decimal.Zero, domain.ErrStoreUnavailable
		},
	}, dto.NewFormatter("USD"))

	rec := httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/balance?at=yesterday", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Get(rec, httptest.NewRequest(http.MethodGet, "/api/v1/balance", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
