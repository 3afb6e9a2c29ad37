package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseRecord(t *testing.T) {
	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)

	t.Run("valid expense with zone", func(t *testing.T) {
		e, err := ParseRecord(RawRecord{
			"id":        "17",
			"amount":    "12.50",
			"type":      "expense",
			"createdAt": "2024-06-30T10:00:00Z",
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Code() != "17" || e.Kind != KindExpense || e.Source != SourceImport {
			t.Fatalf("unexpected entry: %+v", e)
		}
		if !e.Amount.Equal(decimal.RequireFromString("-12.50")) {
			t.Fatalf("expected normalized amount -12.50, got %s", e.Amount)
		}
		if !e.OccurredAt.Equal(time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC)) {
			t.Fatalf("unexpected occurred_at %s", e.OccurredAt)
		}
	})

	t.Run("numeric id and amount", func(t *testing.T) {
		e, err := ParseRecord(RawRecord{
			"id":     json.Number("42"),
			"amount": json.Number("-3"),
			"type":   "Deposit",
		}, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Code() != "42" || !e.Amount.Equal(decimal.NewFromInt(3)) {
			t.Fatalf("unexpected entry: %+v", e)
		}
		if !e.OccurredAt.Equal(now) {
			t.Fatalf("expected missing createdAt to default to now, got %s", e.OccurredAt)
		}
	})

	tests := []struct {
		name string
		rec  RawRecord
		want error
	}{
		{"missing id", RawRecord{"amount": "1", "type": "deposit"}, ErrMissingField},
		{"blank id", RawRecord{"id": " ", "amount": "1", "type": "deposit"}, ErrMissingField},
		{"missing amount", RawRecord{"id": "1", "type": "deposit"}, ErrMissingField},
		{"bad amount", RawRecord{"id": "1", "amount": "ten", "type": "deposit"}, ErrInvalidAmount},
		{"bad type", RawRecord{"id": "1", "amount": "1", "type": "refund"}, ErrInvalidKind},
		{"bad timestamp", RawRecord{"id": "1", "amount": "1", "type": "deposit", "createdAt": "yesterday"}, ErrInvalidTimestamp},
		{"zero amount", RawRecord{"id": "1", "amount": "0", "type": "deposit"}, ErrInvalidAmount},
		{"unsupported id type", RawRecord{"id": []any{1}, "amount": "1", "type": "deposit"}, ErrInvalidEntry},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRecord(tt.rec, now)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrInvalidEntry) {
				t.Fatalf("expected ErrInvalidEntry in chain, got %v", err)
			}
		})
	}
}

func TestParseTimestampLayouts(t *testing.T) {
	inputs := []string{
		"2024-06-30T10:00:00Z",
		"2024-06-30T12:00:00+02:00",
		"2024-06-30T10:00:00",
		"2024-06-30 10:00:00",
		"2024-06-30T10:00:00.000",
	}

	want := time.Date(2024, 6, 30, 10, 0, 0, 0, time.UTC)
	for _, in := range inputs {
		got, err := ParseTimestamp(in)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", in, err)
		}
		if !got.Equal(want) {
			t.Fatalf("ParseTimestamp(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestRawRecordCode(t *testing.T) {
	tests := []struct {
		name string
		rec  RawRecord
		want string
	}{
		{"string", RawRecord{"id": " TX-1 "}, "TX-1"},
		{"json number", RawRecord{"id": json.Number("42")}, "42"},
		{"float", RawRecord{"id": float64(7)}, "7"},
		{"int", RawRecord{"id": 9}, "9"},
		{"missing", RawRecord{"amount": "1"}, ""},
		{"unsupported type", RawRecord{"id": true}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.rec.Code(); got != tt.want {
				t.Fatalf("Code() = %q, want %q", got, tt.want)
			}
		})
	}
}
