package dto

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

func TestFormatter(t *testing.T) {
	usd := NewFormatter("USD")
	eur := NewFormatter("EUR")

	tests := []struct {
		name   string
		f      Formatter
		amount string
		signed string
		plain  string
	}{
		{"positive with grouping", usd, "1234.56", "+$1,234.56", "$1,234.56"},
		{"negative", usd, "-30", "-$30.00", "-$30.00"},
		{"zero", usd, "0", "$0.00", "$0.00"},
		{"rounds half cents", usd, "0.005", "+$0.01", "$0.01"},
		{"other currency", eur, "-5", "-€5.00", "-€5.00"},
		{"unknown currency falls back to USD", NewFormatter("XXZ"), "1", "+$1.00", "$1.00"},
		{"zero value formatter", Formatter{}, "2", "+$2.00", "$2.00"},
		{"beyond int64 cents", usd, "100000000000000000", "+100000000000000000.00 USD", "100000000000000000.00 USD"},
		{"largest int64 cents", usd, "92233720368547758.07", "+$92,233,720,368,547,758.07", "$92,233,720,368,547,758.07"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := decimal.RequireFromString(tt.amount)
			if got := tt.f.Signed(d); got != tt.signed {
				t.Fatalf("Signed(%s) = %q, want %q", tt.amount, got, tt.signed)
			}
			if got := tt.f.Display(d); got != tt.plain {
				t.Fatalf("Display(%s) = %q, want %q", tt.amount, got, tt.plain)
			}
		})
	}
}

func TestEntryFromDomain(t *testing.T) {
	code := "TX-9"
	at := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	e := &domain.Entry{
		ID:             "01HV",
		Kind:           domain.KindExpense,
		Source:         domain.SourceImport,
		Amount:         decimal.RequireFromString("-30"),
		RunningBalance: decimal.RequireFromString("70"),
		ExternalCode:   &code,
		OccurredAt:     at,
	}

	resp := EntryFromDomain(e, NewFormatter("USD"))

	if resp.Type != "expense" || resp.TypeLabel != "Expense" || resp.Source != "import" {
		t.Fatalf("unexpected kind fields: %+v", resp)
	}
	if resp.Amount != "-30.00" || resp.AmountDisplay != "-$30.00" {
		t.Fatalf("unexpected amount fields: %s %s", resp.Amount, resp.AmountDisplay)
	}
	if resp.RunningBalance != "70.00" || resp.BalanceDisplay != "$70.00" {
		t.Fatalf("unexpected balance fields: %s %s", resp.RunningBalance, resp.BalanceDisplay)
	}
	if resp.Code == nil || *resp.Code != code || !resp.OccurredAt.Equal(at) {
		t.Fatalf("unexpected provenance: %+v", resp)
	}
}

func TestEntryPageFromResult(t *testing.T) {
	f := NewFormatter("USD")

	last := EntryPageFromResult(&usecase.EntryPage{Page: 2, PageSize: 10, TotalCount: 15}, f)
	if last.NextPage != nil || last.HasNext {
		t.Fatalf("expected no next page, got %+v", last)
	}
	if last.Entries == nil {
		t.Fatal("expected empty entries slice, got nil")
	}

	first := EntryPageFromResult(&usecase.EntryPage{Page: 1, PageSize: 10, TotalCount: 15, HasNext: true}, f)
	if first.NextPage == nil || *first.NextPage != 2 {
		t.Fatalf("expected next page 2, got %v", first.NextPage)
	}
}

func TestImportFromResult(t *testing.T) {
	resp := ImportFromResult(&usecase.ImportResult{
		Imported:     2,
		Skipped:      1,
		TotalBalance: decimal.RequireFromString("120"),
		Rejections:   []usecase.RecordRejection{{Index: 3, Code: "BAD", Err: errors.New("bad amount")}},
	}, NewFormatter("USD"))

	if resp.Imported != 2 || resp.Skipped != 1 || resp.TotalBalance != "120.00" {
		t.Fatalf("unexpected summary: %+v", resp)
	}
	if len(resp.Rejections) != 1 || resp.Rejections[0].Reason != "bad amount" || resp.Rejections[0].Index != 3 {
		t.Fatalf("unexpected rejections: %+v", resp.Rejections)
	}
}

func TestConsistencyFromReport(t *testing.T) {
	resp := ConsistencyFromReport(&usecase.ConsistencyReport{Entries: 3, Mismatches: 1})
	if resp.Status != "inconsistent" || resp.Consistent {
		t.Fatalf("unexpected status: %+v", resp)
	}

	resp = ConsistencyFromReport(&usecase.ConsistencyReport{Entries: 3, Consistent: true})
	if resp.Status != "consistent" {
		t.Fatalf("unexpected status: %+v", resp)
	}
}
