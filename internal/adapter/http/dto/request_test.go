package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
)

func TestAddEntryRequest_ToUseCaseInput(t *testing.T) {
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	code := "TX-1"

	tests := []struct {
		name string
		body string
		kind domain.Kind
		want string
		at   *time.Time
		code *string
	}{
		{
			name: "string amount",
			body: `{"type":"deposit","amount":"100.50"}`,
			kind: domain.KindDeposit,
			want: "100.5",
		},
		{
			name: "numeric amount with time and code",
			body: `{"type":"expense","amount":30,"occurred_at":"2024-03-15T09:00:00Z","code":"TX-1"}`,
			kind: domain.KindExpense,
			want: "30",
			at:   &at,
			code: &code,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req AddEntryRequest
			if err := json.Unmarshal([]byte(tt.body), &req); err != nil {
				t.Fatalf("decode failed: %v", err)
			}

			got := req.ToUseCaseInput()
			if got.Kind != tt.kind {
				t.Fatalf("kind = %s, want %s", got.Kind, tt.kind)
			}
			if !got.Amount.Equal(decimal.RequireFromString(tt.want)) {
				t.Fatalf("amount = %s, want %s", got.Amount, tt.want)
			}
			if (tt.at == nil) != (got.OccurredAt == nil) || (tt.at != nil && !tt.at.Equal(*got.OccurredAt)) {
				t.Fatalf("occurred_at = %v, want %v", got.OccurredAt, tt.at)
			}
			if (tt.code == nil) != (got.ExternalCode == nil) || (tt.code != nil && *tt.code != *got.ExternalCode) {
				t.Fatalf("code = %v, want %v", got.ExternalCode, tt.code)
			}
		})
	}
}
