package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/adapter/http/dto"
	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

func TestEntryHandler_Create_Success(t *testing.T) {
	var captured usecase.AddEntryInput
	h := NewEntryHandler(&ledgerServiceStub{
		addFn: func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
			captured = input
			return &usecase.AddEntryResult{
				Entry: &domain.Entry{
					ID:             "01HV",
					Kind:           domain.KindExpense,
					Amount:         decimal.RequireFromString("-30"),
					RunningBalance: decimal.RequireFromString("70"),
					Source:         domain.SourceManual,
				},
				TotalBalance: decimal.RequireFromString("70"),
			}, nil
		},
	}, dto.NewFormatter("USD"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(`{"type":"expense","amount":"30"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if captured.Kind != domain.KindExpense || !captured.Amount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected input to match request, got %+v", captured)
	}

	var resp dto.AddEntryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Entry.AmountDisplay != "-$30.00" || resp.TotalBalance != "70.00" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestEntryHandler_Create_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
	}{
		{"malformed body", `{`, nil, http.StatusBadRequest},
		{"invalid entry", `{"type":"gift","amount":"1"}`, domain.ErrInvalidKind, http.StatusBadRequest},
		{"insufficient balance", `{"type":"expense","amount":"1"}`, domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"daily limit", `{"type":"expense","amount":"1"}`, domain.ErrDailyLimitExceeded, http.StatusTooManyRequests},
		{"duplicate code", `{"type":"deposit","amount":"1","code":"X"}`, domain.ErrDuplicateCode, http.StatusConflict},
		{"store unavailable", `{"type":"deposit","amount":"1"}`, domain.ErrStoreUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewEntryHandler(&ledgerServiceStub{
				addFn: func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
					return nil, tt.err
				},
			}, dto.NewFormatter("USD"))

			rec := httptest.NewRecorder()
			h.Create(rec, httptest.NewRequest(http.MethodPost, "/api/v1/entries", strings.NewReader(tt.body)))

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d: %s", tt.status, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestEntryHandler_List(t *testing.T) {
	var captured usecase.ListEntriesInput
	h := NewEntryHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEntriesInput) (*usecase.EntryPage, error) {
			captured = input
			return &usecase.EntryPage{
				Entries: []*domain.Entry{{
					ID:         "01HV",
					Kind:       domain.KindDeposit,
					Amount:     decimal.NewFromInt(100),
					OccurredAt: time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC),
				}},
				Page:         2,
				PageSize:     5,
				TotalCount:   11,
				HasNext:      true,
				TotalBalance: decimal.NewFromInt(100),
			}, nil
		},
	}, dto.NewFormatter("USD"))

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries?type=deposit&page=2&page_size=5", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if captured.Kind != domain.KindDeposit || captured.Page != 2 || captured.PageSize != 5 {
		t.Fatalf("unexpected input: %+v", captured)
	}

	var resp dto.EntryPageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Entries) != 1 || resp.NextPage == nil || *resp.NextPage != 3 {
		t.Fatalf("unexpected page: %+v", resp)
	}
	if resp.Entries[0].AmountDisplay != "+$100.00" {
		t.Fatalf("unexpected display: %s", resp.Entries[0].AmountDisplay)
	}
}

func TestEntryHandler_List_DefaultsAndInvalidType(t *testing.T) {
	var captured usecase.ListEntriesInput
	h := NewEntryHandler(&ledgerServiceStub{
		listFn: func(ctx context.Context, input usecase.ListEntriesInput) (*usecase.EntryPage, error) {
			captured = input
			if input.Kind != "" {
				return nil, domain.ErrInvalidKind
			}
			return &usecase.EntryPage{Page: 1, PageSize: 10}, nil
		},
	}, dto.NewFormatter("USD"))

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries", nil))
	if rec.Code != http.StatusOK || captured.Page != 1 || captured.PageSize != 0 {
		t.Fatalf("unexpected defaults: %d %+v", rec.Code, captured)
	}

	rec = httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/v1/entries?type=transfer", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
