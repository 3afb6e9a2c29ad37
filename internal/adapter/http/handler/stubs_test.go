package handler

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

type ledgerServiceStub struct {
	addFn         func(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error)
	listFn        func(ctx context.Context, input usecase.ListEntriesInput) (*usecase.EntryPage, error)
	totalFn       func(ctx context.Context) (decimal.Decimal, error)
	atFn          func(ctx context.Context, at time.Time) (decimal.Decimal, error)
	recomputeFn   func(ctx context.Context) (int, error)
	consistencyFn func(ctx context.Context) (*usecase.ConsistencyReport, error)
}

func (s *ledgerServiceStub) AddEntry(ctx context.Context, input usecase.AddEntryInput) (*usecase.AddEntryResult, error) {
	return s.addFn(ctx, input)
}

func (s *ledgerServiceStub) ListEntries(ctx context.Context, input usecase.ListEntriesInput) (*usecase.EntryPage, error) {
	return s.listFn(ctx, input)
}

func (s *ledgerServiceStub) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	return s.totalFn(ctx)
}

func (s *ledgerServiceStub) BalanceAt(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	return s.atFn(ctx, at)
}

func (s *ledgerServiceStub) Recompute(ctx context.Context) (int, error) {
	return s.recomputeFn(ctx)
}

func (s *ledgerServiceStub) CheckConsistency(ctx context.Context) (*usecase.ConsistencyReport, error) {
	return s.consistencyFn(ctx)
}

type importServiceStub struct {
	sourceFn func(ctx context.Context) (*usecase.ImportResult, error)
	batchFn  func(ctx context.Context, records []domain.RawRecord) (*usecase.ImportResult, error)
}

func (s *importServiceStub) ImportFromSource(ctx context.Context) (*usecase.ImportResult, error) {
	return s.sourceFn(ctx)
}

func (s *importServiceStub) ImportBatch(ctx context.Context, records []domain.RawRecord) (*usecase.ImportResult, error) {
	return s.batchFn(ctx, records)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }
