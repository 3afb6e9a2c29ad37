package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
)

// LedgerConfig tunes the ledger use case. Zero values fall back to defaults.
type LedgerConfig struct {
	Retrier           Retrier
	Metrics           MetricsRecorder
	Location          *time.Location
	Clock             func() time.Time
	DailyExpenseLimit int
	PageSize          int
	TxTimeout         time.Duration
}

func (c LedgerConfig) withDefaults() LedgerConfig {
	if c.Metrics == nil {
		c.Metrics = NoopMetrics{}
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.Clock == nil {
		c.Clock = func() time.Time { return time.Now().UTC() }
	}
	if c.DailyExpenseLimit <= 0 {
		c.DailyExpenseLimit = DefaultDailyExpenseLimit
	}
	if c.PageSize <= 0 {
		c.PageSize = domain.DefaultPageSize
	}
	if c.TxTimeout <= 0 {
		c.TxTimeout = DefaultTransactionTimeout
	}
	return c
}

// LedgerUseCase admits entries and answers balance queries.
type LedgerUseCase struct {
	txManager  TransactionManager
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	engine     *BalanceEngine
	cfg        LedgerConfig
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	cfg LedgerConfig,
) *LedgerUseCase {
	cfg = cfg.withDefaults()

	return &LedgerUseCase{
		txManager:  txManager,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		engine:     NewBalanceEngine(entryRepo, cfg.Metrics),
		cfg:        cfg,
	}
}

// AddEntryInput represents input for a manual entry.
type AddEntryInput struct {
	OccurredAt   *time.Time
	ExternalCode *string
	Kind         domain.Kind
	Amount       decimal.Decimal
}

// AddEntryResult is an admitted entry and the ledger total after it.
type AddEntryResult struct {
	Entry        *domain.Entry
	TotalBalance decimal.Decimal
}

// AddEntry validates and admits one entry.
//
// Admission runs under the ledger lock: the sufficient-balance rule is checked
// against the total before any write, then the entry is inserted and balances are
// recomputed, then the daily expense limit is checked counting the new entry. A
// limit violation deletes the entry and recomputes again before reporting.
func (uc *LedgerUseCase) AddEntry(ctx context.Context, input AddEntryInput) (*AddEntryResult, error) {
	if _, err := domain.ParseKind(string(input.Kind)); err != nil {
		uc.cfg.Metrics.ObserveAdmission(input.Kind, OutcomeInvalid)
		return nil, err
	}

	entry := &domain.Entry{
		Kind:         input.Kind,
		Amount:       input.Amount,
		ExternalCode: input.ExternalCode,
		Source:       domain.SourceManual,
	}
	if input.OccurredAt != nil {
		entry.OccurredAt = input.OccurredAt.UTC()
	}
	entry.Normalize(uc.cfg.Clock())

	if err := entry.Validate(); err != nil {
		uc.cfg.Metrics.ObserveAdmission(entry.Kind, OutcomeInvalid)
		return nil, err
	}

	var result *AddEntryResult
	err := uc.retry(ctx, func() error {
		var err error
		result, err = uc.admit(ctx, entry)
		return err
	})

	uc.cfg.Metrics.ObserveAdmission(entry.Kind, admissionOutcome(err))
	if err != nil {
		return nil, err
	}

	uc.cfg.Metrics.SetTotalBalance(result.TotalBalance)

	return result, nil
}

func (uc *LedgerUseCase) admit(ctx context.Context, input *domain.Entry) (*AddEntryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if err := uc.entryRepo.LockLedger(ctx, tx); err != nil {
		return nil, err
	}

	// 1. Pre-check against the balance before insertion.
	before, err := uc.engine.Recompute(ctx, tx)
	if err != nil {
		return nil, err
	}

	if input.Kind == domain.KindExpense && before.Total.LessThan(input.Amount.Abs()) {
		return nil, fmt.Errorf("%w: balance %s, expense %s",
			domain.ErrInsufficientBalance, before.Total.StringFixed(domain.AmountScale), input.Amount.Abs().StringFixed(domain.AmountScale))
	}

	// 2. Insert and recompute.
	entry := *input
	entry.ID = uc.idGen.Generate()
	entry.CreatedAt = uc.cfg.Clock()
	entry.RunningBalance = decimal.Zero

	if err := uc.entryRepo.Insert(ctx, tx, &entry); err != nil {
		return nil, err
	}

	after, err := uc.engine.Recompute(ctx, tx)
	if err != nil {
		return nil, err
	}

	// 3. Post-check the daily limit, compensating on failure.
	if entry.Kind == domain.KindExpense {
		from, to := domain.DayBounds(entry.OccurredAt, uc.cfg.Location)

		count, err := uc.entryRepo.CountExpensesBetween(ctx, tx, from, to)
		if err != nil {
			return nil, err
		}

		if count > uc.cfg.DailyExpenseLimit {
			if err := uc.compensate(ctx, tx, entry.ID); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %d expenses on %s, limit %d",
				domain.ErrDailyLimitExceeded, count-1, from.Format(time.DateOnly), uc.cfg.DailyExpenseLimit)
		}
	}

	entry.RunningBalance = after.BalanceOf(entry.ID, entry.RunningBalance)

	event := &domain.OutboxEvent{
		ID:            uc.idGen.Generate(),
		AggregateID:   entry.ID,
		AggregateType: domain.AggregateTypeEntry,
		EventType:     domain.EventTypeEntryRecorded,
		Payload: domain.EntryRecordedEvent{
			EntryID:      entry.ID,
			Kind:         string(entry.Kind),
			Amount:       entry.Amount.StringFixed(domain.AmountScale),
			OccurredAt:   entry.OccurredAt.Format(time.RFC3339Nano),
			TotalBalance: after.Total.StringFixed(domain.AmountScale),
		}.Map(),
		CreatedAt: entry.CreatedAt,
	}

	if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &AddEntryResult{Entry: &entry, TotalBalance: after.Total}, nil
}

// compensate removes a just-inserted entry, restores balances and commits the
// restored state.
func (uc *LedgerUseCase) compensate(ctx context.Context, tx Transaction, id string) error {
	if err := uc.entryRepo.Delete(ctx, tx, id); err != nil {
		return err
	}

	if _, err := uc.engine.Recompute(ctx, tx); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Recompute runs a full recompute pass under the ledger lock and returns the number
// of balances written.
func (uc *LedgerUseCase) Recompute(ctx context.Context) (int, error) {
	var writes int
	err := uc.retry(ctx, func() error {
		ctx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
		defer cancel()

		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		if err := uc.entryRepo.LockLedger(ctx, tx); err != nil {
			return err
		}

		res, err := uc.engine.Recompute(ctx, tx)
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		writes = res.Writes()
		uc.cfg.Metrics.SetTotalBalance(res.Total)

		return nil
	})

	return writes, err
}

// ListEntriesInput represents input for listing entries.
type ListEntriesInput struct {
	Kind     domain.Kind
	Page     int
	PageSize int
}

// EntryPage is one page of entries, newest first.
type EntryPage struct {
	Entries      []*domain.Entry
	TotalBalance decimal.Decimal
	Page         int
	PageSize     int
	TotalCount   int
	HasNext      bool
}

// NextPage returns the following page number, or zero on the last page.
func (p *EntryPage) NextPage() int {
	if !p.HasNext {
		return 0
	}
	return p.Page + 1
}

// ListEntries returns a page of entries, newest first, with the current total.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) (*EntryPage, error) {
	filter := domain.EntryFilter{}
	if input.Kind != "" {
		kind, err := domain.ParseKind(string(input.Kind))
		if err != nil {
			return nil, err
		}
		filter.Kind = kind
	}

	pageSize := input.PageSize
	if pageSize <= 0 {
		pageSize = uc.cfg.PageSize
	}
	page, pageSize := domain.ValidatePagination(input.Page, pageSize)

	total, err := uc.entryRepo.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	entries := []*domain.Entry{}
	offset := (page - 1) * pageSize
	if offset < total {
		entries, err = uc.entryRepo.Page(ctx, filter, pageSize, offset)
		if err != nil {
			return nil, err
		}
	}

	balance, err := uc.entryRepo.TotalBalance(ctx)
	if err != nil {
		return nil, err
	}

	return &EntryPage{
		Entries:      entries,
		TotalBalance: balance,
		Page:         page,
		PageSize:     pageSize,
		TotalCount:   total,
		HasNext:      offset+len(entries) < total,
	}, nil
}

// TotalBalance returns the running balance of the chronologically last entry.
func (uc *LedgerUseCase) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	return uc.entryRepo.TotalBalance(ctx)
}

// BalanceAt returns the running balance as of at.
func (uc *LedgerUseCase) BalanceAt(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	return uc.entryRepo.BalanceAt(ctx, at)
}

// ConsistencyReport describes how stored balances compare to prefix sums.
type ConsistencyReport struct {
	CheckedAt    time.Time
	Entries      int
	Mismatches   int
	TotalBalance decimal.Decimal
	Consistent   bool
}

// CheckConsistency re-folds the ledger without writing and reports every entry whose
// stored running balance is not its prefix sum. The report is returned together with
// domain.ErrInconsistentLedger when mismatches exist.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context) (*ConsistencyReport, error) {
	count := 0
	ordered := uc.entryRepo.Ordered(ctx, nil, domain.EntryFilter{})
	counted := func(yield func(*domain.Entry, error) bool) {
		for e, err := range ordered {
			if err == nil {
				count++
			}
			if !yield(e, err) {
				return
			}
		}
	}

	mismatches, total, err := domain.Fold(counted)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{
		CheckedAt:    uc.cfg.Clock(),
		Entries:      count,
		Mismatches:   len(mismatches),
		TotalBalance: total,
		Consistent:   len(mismatches) == 0,
	}

	if !report.Consistent {
		return report, domain.ErrInconsistentLedger
	}

	return report, nil
}

func (uc *LedgerUseCase) retry(ctx context.Context, op func() error) error {
	if uc.cfg.Retrier == nil {
		return op()
	}
	return uc.cfg.Retrier.Retry(ctx, op)
}

func admissionOutcome(err error) string {
	switch {
	case err == nil:
		return OutcomeAdmitted
	case errors.Is(err, domain.ErrInsufficientBalance):
		return OutcomeInsufficient
	case errors.Is(err, domain.ErrDailyLimitExceeded):
		return OutcomeDailyLimit
	case errors.Is(err, domain.ErrDuplicateCode):
		return OutcomeDuplicate
	case errors.Is(err, domain.ErrInvalidEntry):
		return OutcomeInvalid
	default:
		return OutcomeFailed
	}
}
