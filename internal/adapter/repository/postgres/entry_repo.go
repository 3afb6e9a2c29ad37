package postgres

import (
	"context"
	"errors"
	"iter"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/infrastructure/postgres/generated"
	"github.com/iho/ledgerly/internal/usecase"
)

// ledgerLockKey is the pg_advisory_xact_lock key that serializes admissions.
const ledgerLockKey int64 = 0x6c6564676572

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	queries *generated.Queries
	idGen   usecase.IDGenerator
	now     func() time.Time
}

// NewEntryRepository creates a new EntryRepository. db is usually a *pgxpool.Pool.
func NewEntryRepository(db generated.DBTX, idGen usecase.IDGenerator) *EntryRepository {
	return &EntryRepository{
		queries: generated.New(db),
		idGen:   idGen,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (r *EntryRepository) q(tx usecase.Transaction) *generated.Queries {
	if tx == nil {
		return r.queries
	}
	return r.queries.WithTx(tx.(*Tx).PgxTx())
}

// LockLedger takes the transaction-scoped advisory lock.
func (r *EntryRepository) LockLedger(ctx context.Context, tx usecase.Transaction) error {
	return mapError(r.q(tx).LockLedger(ctx, ledgerLockKey))
}

// Insert normalizes and stores one entry.
func (r *EntryRepository) Insert(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if err := r.prepare(entry); err != nil {
		return err
	}

	err := r.q(tx).CreateEntry(ctx, generated.CreateEntryParams(entryParams(entry)))

	return mapError(err)
}

// InsertBatch stores entries, skipping those whose external code already exists.
func (r *EntryRepository) InsertBatch(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) (int, error) {
	q := r.q(tx)

	inserted := 0
	for _, entry := range entries {
		if err := r.prepare(entry); err != nil {
			return 0, err
		}

		n, err := q.CreateEntryIfAbsent(ctx, entryParams(entry))
		if err != nil {
			return 0, mapError(err)
		}
		inserted += int(n)
	}

	return inserted, nil
}

func (r *EntryRepository) prepare(entry *domain.Entry) error {
	entry.Normalize(r.now())
	if err := entry.Validate(); err != nil {
		return err
	}

	if entry.ID == "" {
		entry.ID = r.idGen.Generate()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	return nil
}

func entryParams(entry *domain.Entry) generated.CreateEntryIfAbsentParams {
	return generated.CreateEntryIfAbsentParams{
		ID:             entry.ID,
		Kind:           string(entry.Kind),
		Amount:         decimalToNumeric(entry.Amount),
		RunningBalance: decimalToNumeric(entry.RunningBalance),
		OccurredAt:     timeToPgTimestamptz(entry.OccurredAt),
		CreatedAt:      timeToPgTimestamptz(entry.CreatedAt),
		ExternalCode:   codeToText(entry.ExternalCode),
		Source:         string(entry.Source),
	}
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	n, err := r.q(tx).DeleteEntry(ctx, id)
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return domain.ErrEntryNotFound
	}
	return nil
}

// Ordered yields entries by (occurred_at, id). Each range runs one query.
func (r *EntryRepository) Ordered(ctx context.Context, tx usecase.Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error] {
	return func(yield func(*domain.Entry, error) bool) {
		rows, err := r.q(tx).ListEntriesOrdered(ctx, string(filter.Kind))
		if err != nil {
			yield(nil, mapError(err))
			return
		}

		for _, row := range rows {
			if !yield(rowToEntry(row), nil) {
				return
			}
		}
	}
}

// UpdateRunningBalances writes all changed balances in one statement.
func (r *EntryRepository) UpdateRunningBalances(ctx context.Context, tx usecase.Transaction, changes []domain.BalanceChange) error {
	if len(changes) == 0 {
		return nil
	}

	ids := make([]string, len(changes))
	balances := make([]pgtype.Numeric, len(changes))
	for i, c := range changes {
		ids[i] = c.EntryID
		balances[i] = decimalToNumeric(c.Balance)
	}

	err := r.q(tx).UpdateRunningBalances(ctx, generated.UpdateRunningBalancesParams{
		Ids:      ids,
		Balances: balances,
	})

	return mapError(err)
}

// Last returns the chronologically last entry, or nil on an empty ledger.
func (r *EntryRepository) Last(ctx context.Context, tx usecase.Transaction) (*domain.Entry, error) {
	row, err := r.q(tx).GetLastEntry(ctx)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err)
	}

	return rowToEntry(row), nil
}

// CountExpensesBetween counts expenses with from <= occurred_at <= to.
func (r *EntryRepository) CountExpensesBetween(ctx context.Context, tx usecase.Transaction, from, to time.Time) (int, error) {
	count, err := r.q(tx).CountExpensesBetween(ctx, generated.CountExpensesBetweenParams{
		FromTime: timeToPgTimestamptz(from),
		ToTime:   timeToPgTimestamptz(to),
	})
	if err != nil {
		return 0, mapError(err)
	}

	return int(count), nil
}

// Page returns entries newest first.
func (r *EntryRepository) Page(ctx context.Context, filter domain.EntryFilter, limit, offset int) ([]*domain.Entry, error) {
	rows, err := r.queries.ListEntriesPage(ctx, generated.ListEntriesPageParams{
		Kind:       string(filter.Kind),
		PageLimit:  int32(limit),
		PageOffset: int32(offset),
	})
	if err != nil {
		return nil, mapError(err)
	}

	entries := make([]*domain.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, rowToEntry(row))
	}

	return entries, nil
}

// Count returns the number of entries matching filter.
func (r *EntryRepository) Count(ctx context.Context, filter domain.EntryFilter) (int, error) {
	count, err := r.queries.CountEntries(ctx, string(filter.Kind))
	if err != nil {
		return 0, mapError(err)
	}

	return int(count), nil
}

// BalanceAt returns the running balance of the last entry at or before at.
func (r *EntryRepository) BalanceAt(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	balance, err := r.queries.GetBalanceAt(ctx, timeToPgTimestamptz(at))
	if err != nil {
		return decimal.Zero, mapError(err)
	}

	return numericToDecimal(balance), nil
}

// TotalBalance returns the running balance of the chronologically last entry.
func (r *EntryRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	last, err := r.Last(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.TotalOf(last), nil
}
