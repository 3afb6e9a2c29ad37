package dto

import (
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// Formatter renders amounts for display in one currency.
type Formatter struct {
	currency string
}

// NewFormatter returns a Formatter for an ISO 4217 code, falling back to USD for
// codes go-money does not know.
func NewFormatter(currency string) Formatter {
	if money.GetCurrency(currency) == nil {
		currency = money.USD
	}
	return Formatter{currency: currency}
}

// Display formats d with grouping and the currency symbol, e.g. "$1,234.56".
func (f Formatter) Display(d decimal.Decimal) string {
	if f.currency == "" {
		f.currency = money.USD
	}
	cents := d.Round(domain.AmountScale).Shift(domain.AmountScale).BigInt()
	if !cents.IsInt64() {
		// go-money counts in int64 minor units.
		return fixed(d) + " " + f.currency
	}
	return money.New(cents.Int64(), f.currency).Display()
}

// Signed is Display with an explicit "+" on positive amounts.
func (f Formatter) Signed(d decimal.Decimal) string {
	if d.IsPositive() {
		return "+" + f.Display(d)
	}
	return f.Display(d)
}

func fixed(d decimal.Decimal) string {
	return d.StringFixed(domain.AmountScale)
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID             string    `json:"id"`
	Type           string    `json:"type"`
	TypeLabel      string    `json:"type_label"`
	Amount         string    `json:"amount"`
	AmountDisplay  string    `json:"amount_display"`
	RunningBalance string    `json:"running_balance"`
	BalanceDisplay string    `json:"balance_display"`
	Code           *string   `json:"code,omitempty"`
	Source         string    `json:"source"`
	OccurredAt     time.Time `json:"occurred_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry, f Formatter) *EntryResponse {
	return &EntryResponse{
		ID:             e.ID,
		Type:           string(e.Kind),
		TypeLabel:      e.Kind.Label(),
		Amount:         fixed(e.Amount),
		AmountDisplay:  f.Signed(e.Amount),
		RunningBalance: fixed(e.RunningBalance),
		BalanceDisplay: f.Display(e.RunningBalance),
		Code:           e.ExternalCode,
		Source:         string(e.Source),
		OccurredAt:     e.OccurredAt,
		CreatedAt:      e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry, f Formatter) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e, f)
	}
	return result
}

// AddEntryResponse is the admitted entry and the ledger total after it.
type AddEntryResponse struct {
	Entry               *EntryResponse `json:"entry"`
	TotalBalance        string         `json:"total_balance"`
	TotalBalanceDisplay string         `json:"total_balance_display"`
}

// AddEntryFromResult converts an admission result to response.
func AddEntryFromResult(res *usecase.AddEntryResult, f Formatter) *AddEntryResponse {
	return &AddEntryResponse{
		Entry:               EntryFromDomain(res.Entry, f),
		TotalBalance:        fixed(res.TotalBalance),
		TotalBalanceDisplay: f.Display(res.TotalBalance),
	}
}

// EntryPageResponse is one page of entries, newest first.
type EntryPageResponse struct {
	Entries             []*EntryResponse `json:"entries"`
	Page                int              `json:"page"`
	PageSize            int              `json:"page_size"`
	TotalCount          int              `json:"total_count"`
	HasNext             bool             `json:"has_next"`
	NextPage            *int             `json:"next_page,omitempty"`
	TotalBalance        string           `json:"total_balance"`
	TotalBalanceDisplay string           `json:"total_balance_display"`
}

// EntryPageFromResult converts a page to response.
func EntryPageFromResult(p *usecase.EntryPage, f Formatter) *EntryPageResponse {
	resp := &EntryPageResponse{
		Entries:             EntriesFromDomain(p.Entries, f),
		Page:                p.Page,
		PageSize:            p.PageSize,
		TotalCount:          p.TotalCount,
		HasNext:             p.HasNext,
		TotalBalance:        fixed(p.TotalBalance),
		TotalBalanceDisplay: f.Display(p.TotalBalance),
	}
	if p.HasNext {
		next := p.NextPage()
		resp.NextPage = &next
	}
	return resp
}

// RejectionResponse explains a skipped import record.
type RejectionResponse struct {
	Index  int    `json:"index"`
	Code   string `json:"code,omitempty"`
	Reason string `json:"reason"`
}

// ImportResponse summarizes an import.
type ImportResponse struct {
	Imported            int                 `json:"imported"`
	Skipped             int                 `json:"skipped"`
	Rejections          []RejectionResponse `json:"rejections,omitempty"`
	TotalBalance        string              `json:"total_balance"`
	TotalBalanceDisplay string              `json:"total_balance_display"`
}

// ImportFromResult converts an import result to response.
func ImportFromResult(res *usecase.ImportResult, f Formatter) *ImportResponse {
	resp := &ImportResponse{
		Imported:            res.Imported,
		Skipped:             res.Skipped,
		TotalBalance:        fixed(res.TotalBalance),
		TotalBalanceDisplay: f.Display(res.TotalBalance),
	}
	for _, r := range res.Rejections {
		resp.Rejections = append(resp.Rejections, RejectionResponse{
			Index:  r.Index,
			Code:   r.Code,
			Reason: r.Err.Error(),
		})
	}
	return resp
}

// BalanceResponse is the total balance, optionally as of a past instant.
type BalanceResponse struct {
	Balance        string     `json:"balance"`
	BalanceDisplay string     `json:"balance_display"`
	At             *time.Time `json:"at,omitempty"`
}

// NewBalanceResponse builds a BalanceResponse.
func NewBalanceResponse(balance decimal.Decimal, at *time.Time, f Formatter) *BalanceResponse {
	return &BalanceResponse{
		Balance:        fixed(balance),
		BalanceDisplay: f.Display(balance),
		At:             at,
	}
}

// RecomputeResponse reports how many running balances were rewritten.
type RecomputeResponse struct {
	Writes int `json:"writes"`
}

// ConsistencyResponse reports the result of a consistency check.
type ConsistencyResponse struct {
	Status       string    `json:"status"`
	Consistent   bool      `json:"consistent"`
	Entries      int       `json:"entries"`
	Mismatches   int       `json:"mismatches"`
	TotalBalance string    `json:"total_balance"`
	CheckedAt    time.Time `json:"checked_at"`
}

// ConsistencyFromReport converts a report to response.
func ConsistencyFromReport(r *usecase.ConsistencyReport) *ConsistencyResponse {
	status := "consistent"
	if !r.Consistent {
		status = "inconsistent"
	}
	return &ConsistencyResponse{
		Status:       status,
		Consistent:   r.Consistent,
		Entries:      r.Entries,
		Mismatches:   r.Mismatches,
		TotalBalance: fixed(r.TotalBalance),
		CheckedAt:    r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
