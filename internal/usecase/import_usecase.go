package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
)

// ErrImportSourceNotConfigured is returned by ImportFromSource without a source.
var ErrImportSourceNotConfigured = errors.New("import source not configured")

// ErrImportSourceFailed wraps failures to fetch the external feed.
var ErrImportSourceFailed = errors.New("import source unavailable")

// ImportUseCase loads historical entries in bulk.
//
// Imported entries are normalized and deduplicated by external code but are not
// subject to the expense admission rules.
type ImportUseCase struct {
	txManager  TransactionManager
	entryRepo  EntryRepository
	outboxRepo OutboxRepository
	idGen      IDGenerator
	source     ImportSource
	engine     *BalanceEngine
	cfg        LedgerConfig
}

// NewImportUseCase creates a new ImportUseCase. source may be nil when only
// ImportBatch is used.
func NewImportUseCase(
	txManager TransactionManager,
	entryRepo EntryRepository,
	outboxRepo OutboxRepository,
	idGen IDGenerator,
	source ImportSource,
	cfg LedgerConfig,
) *ImportUseCase {
	cfg = cfg.withDefaults()

	return &ImportUseCase{
		txManager:  txManager,
		entryRepo:  entryRepo,
		outboxRepo: outboxRepo,
		idGen:      idGen,
		source:     source,
		engine:     NewBalanceEngine(entryRepo, cfg.Metrics),
		cfg:        cfg,
	}
}

// RecordRejection explains why one raw record was skipped before insertion.
type RecordRejection struct {
	Index int
	Code  string
	Err   error
}

// ImportResult summarizes a batch import.
type ImportResult struct {
	Rejections   []RecordRejection
	Imported     int
	Skipped      int
	TotalBalance decimal.Decimal
}

// ImportFromSource fetches records from the configured source and imports them.
func (uc *ImportUseCase) ImportFromSource(ctx context.Context) (*ImportResult, error) {
	if uc.source == nil {
		return nil, ErrImportSourceNotConfigured
	}

	records, err := uc.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrImportSourceFailed, err)
	}

	return uc.ImportBatch(ctx, records)
}

// ImportBatch parses records outside the ledger lock, then inserts the valid ones with
// skip-on-conflict semantics and recomputes once. Malformed records and duplicate codes
// are counted as skipped.
func (uc *ImportUseCase) ImportBatch(ctx context.Context, records []domain.RawRecord) (*ImportResult, error) {
	now := uc.cfg.Clock()

	entries := make([]*domain.Entry, 0, len(records))
	var rejections []RecordRejection
	for i, rec := range records {
		entry, err := domain.ParseRecord(rec, now)
		if err != nil {
			rejections = append(rejections, RecordRejection{Index: i, Code: rec.Code(), Err: err})
			continue
		}
		entries = append(entries, entry)
	}

	var (
		inserted int
		total    decimal.Decimal
	)
	err := uc.retry(ctx, func() error {
		var err error
		inserted, total, err = uc.insertBatch(ctx, entries, len(records), now)
		return err
	})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Rejections:   rejections,
		Imported:     inserted,
		Skipped:      len(records) - inserted,
		TotalBalance: total,
	}

	uc.cfg.Metrics.ObserveImport(result.Imported, result.Skipped)
	uc.cfg.Metrics.SetTotalBalance(total)

	return result, nil
}

func (uc *ImportUseCase) insertBatch(ctx context.Context, entries []*domain.Entry, received int, now time.Time) (int, decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, uc.cfg.TxTimeout)
	defer cancel()

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return 0, decimal.Zero, err
	}
	defer tx.Rollback(ctx)

	if err := uc.entryRepo.LockLedger(ctx, tx); err != nil {
		return 0, decimal.Zero, err
	}

	// ids are assigned under the lock so equal timestamps keep batch order
	for _, e := range entries {
		e.ID = uc.idGen.Generate()
		e.CreatedAt = now
		e.RunningBalance = decimal.Zero
	}

	inserted := 0
	if len(entries) > 0 {
		inserted, err = uc.entryRepo.InsertBatch(ctx, tx, entries)
		if err != nil {
			return 0, decimal.Zero, err
		}
	}

	res, err := uc.engine.Recompute(ctx, tx)
	if err != nil {
		return 0, decimal.Zero, err
	}

	if inserted > 0 {
		batchID := uc.idGen.Generate()
		event := &domain.OutboxEvent{
			ID:            uc.idGen.Generate(),
			AggregateID:   batchID,
			AggregateType: domain.AggregateTypeImport,
			EventType:     domain.EventTypeEntriesImported,
			Payload: domain.EntriesImportedEvent{
				Imported:     inserted,
				Skipped:      received - inserted,
				TotalBalance: res.Total.StringFixed(domain.AmountScale),
			}.Map(),
			CreatedAt: now,
		}

		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return 0, decimal.Zero, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, decimal.Zero, err
	}

	return inserted, res.Total, nil
}

func (uc *ImportUseCase) retry(ctx context.Context, op func() error) error {
	if uc.cfg.Retrier == nil {
		return op()
	}
	return uc.cfg.Retrier.Retry(ctx, op)
}
