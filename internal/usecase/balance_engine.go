package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
)

// RecomputeResult is the outcome of one recompute pass.
type RecomputeResult struct {
	Changes []domain.BalanceChange
	Total   decimal.Decimal
}

// Writes is the number of entries whose running balance was persisted.
func (r RecomputeResult) Writes() int {
	return len(r.Changes)
}

// BalanceOf returns the recomputed balance for id if it changed, or fallback.
func (r RecomputeResult) BalanceOf(id string, fallback decimal.Decimal) decimal.Decimal {
	for _, c := range r.Changes {
		if c.EntryID == id {
			return c.Balance
		}
	}
	return fallback
}

// BalanceEngine derives running balances from the ordered entry sequence.
// It is the only writer of Entry.RunningBalance.
type BalanceEngine struct {
	entryRepo EntryRepository
	metrics   MetricsRecorder
}

// NewBalanceEngine creates a new BalanceEngine.
func NewBalanceEngine(entryRepo EntryRepository, metrics MetricsRecorder) *BalanceEngine {
	if metrics == nil {
		metrics = NoopMetrics{}
	}

	return &BalanceEngine{
		entryRepo: entryRepo,
		metrics:   metrics,
	}
}

// Recompute folds the full ordered sequence inside tx and persists only the balances
// that changed. Running it twice with no insert in between writes nothing the second
// time.
func (e *BalanceEngine) Recompute(ctx context.Context, tx Transaction) (RecomputeResult, error) {
	start := time.Now()

	changes, total, err := domain.Fold(e.entryRepo.Ordered(ctx, tx, domain.EntryFilter{}))
	if err != nil {
		return RecomputeResult{}, err
	}

	if len(changes) > 0 {
		if err := e.entryRepo.UpdateRunningBalances(ctx, tx, changes); err != nil {
			return RecomputeResult{}, err
		}
	}

	e.metrics.ObserveRecompute(time.Since(start), len(changes))

	return RecomputeResult{Changes: changes, Total: total}, nil
}

// NoopMetrics discards all measurements.
type NoopMetrics struct{}

func (NoopMetrics) ObserveAdmission(domain.Kind, string) {}
func (NoopMetrics) ObserveRecompute(time.Duration, int)  {}
func (NoopMetrics) ObserveImport(int, int)               {}
func (NoopMetrics) SetTotalBalance(decimal.Decimal)      {}
