package memory

import (
	"context"
	"fmt"
	"iter"
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
	idGen usecase.IDGenerator
	now   func() time.Time
}

// NewEntryRepository creates a new EntryRepository. idGen assigns ids to entries
// inserted without one.
func NewEntryRepository(store *Store, idGen usecase.IDGenerator) *EntryRepository {
	return &EntryRepository{
		store: store,
		idGen: idGen,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// LockLedger is satisfied by the transaction itself, which holds the store lock.
func (r *EntryRepository) LockLedger(ctx context.Context, tx usecase.Transaction) error {
	return r.store.checkTx(tx)
}

// Insert normalizes and stores one entry.
func (r *EntryRepository) Insert(ctx context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	if err := r.store.checkTx(tx); err != nil {
		return err
	}

	if err := r.prepare(entry); err != nil {
		return err
	}

	if code := entry.Code(); code != "" {
		if _, exists := r.store.codes[code]; exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, code)
		}
	}

	r.add(entry)

	return nil
}

// InsertBatch stores entries, skipping those whose external code already exists.
func (r *EntryRepository) InsertBatch(ctx context.Context, tx usecase.Transaction, entries []*domain.Entry) (int, error) {
	if err := r.store.checkTx(tx); err != nil {
		return 0, err
	}

	inserted := 0
	for i, entry := range entries {
		if err := r.prepare(entry); err != nil {
			return 0, fmt.Errorf("entry %d: %w", i, err)
		}

		if code := entry.Code(); code != "" {
			if _, exists := r.store.codes[code]; exists {
				continue
			}
		}

		r.add(entry)
		inserted++
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

func (r *EntryRepository) add(entry *domain.Entry) {
	r.store.entries = append(r.store.entries, cloneEntry(entry))
	if code := entry.Code(); code != "" {
		r.store.codes[code] = entry.ID
	}
}

// Delete removes an entry.
func (r *EntryRepository) Delete(ctx context.Context, tx usecase.Transaction, id string) error {
	if err := r.store.checkTx(tx); err != nil {
		return err
	}

	idx := slices.IndexFunc(r.store.entries, func(e *domain.Entry) bool { return e.ID == id })
	if idx < 0 {
		return domain.ErrEntryNotFound
	}

	if code := r.store.entries[idx].Code(); code != "" {
		delete(r.store.codes, code)
	}
	r.store.entries = slices.Delete(r.store.entries, idx, idx+1)

	return nil
}

// Ordered yields copies of the entries in ordering-key order. With a nil tx the
// store is read-locked while the sequence is materialized.
func (r *EntryRepository) Ordered(ctx context.Context, tx usecase.Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error] {
	return func(yield func(*domain.Entry, error) bool) {
		sorted, err := r.sorted(tx, filter)
		if err != nil {
			yield(nil, err)
			return
		}

		for _, e := range sorted {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(e, nil) {
				return
			}
		}
	}
}

// sorted returns filtered copies in ascending ordering-key order.
func (r *EntryRepository) sorted(tx usecase.Transaction, filter domain.EntryFilter) ([]*domain.Entry, error) {
	if tx != nil {
		if err := r.store.checkTx(tx); err != nil {
			return nil, err
		}
	} else {
		r.store.mu.RLock()
		defer r.store.mu.RUnlock()
	}

	out := make([]*domain.Entry, 0, len(r.store.entries))
	for _, e := range r.store.entries {
		if filter.Matches(e) {
			out = append(out, cloneEntry(e))
		}
	}
	slices.SortFunc(out, domain.CompareEntries)

	return out, nil
}

// UpdateRunningBalances writes recomputed balances.
func (r *EntryRepository) UpdateRunningBalances(ctx context.Context, tx usecase.Transaction, changes []domain.BalanceChange) error {
	if err := r.store.checkTx(tx); err != nil {
		return err
	}

	byID := make(map[string]decimal.Decimal, len(changes))
	for _, c := range changes {
		byID[c.EntryID] = c.Balance
	}

	for _, e := range r.store.entries {
		if balance, ok := byID[e.ID]; ok {
			e.RunningBalance = balance
		}
	}

	return nil
}

// Last returns the chronologically last entry, or nil.
func (r *EntryRepository) Last(ctx context.Context, tx usecase.Transaction) (*domain.Entry, error) {
	sorted, err := r.sorted(tx, domain.EntryFilter{})
	if err != nil {
		return nil, err
	}

	if len(sorted) == 0 {
		return nil, nil
	}

	return sorted[len(sorted)-1], nil
}

// CountExpensesBetween counts expenses with from <= occurred_at <= to.
func (r *EntryRepository) CountExpensesBetween(ctx context.Context, tx usecase.Transaction, from, to time.Time) (int, error) {
	if err := r.store.checkTx(tx); err != nil {
		return 0, err
	}

	count := 0
	for _, e := range r.store.entries {
		if e.Kind == domain.KindExpense && !e.OccurredAt.Before(from) && !e.OccurredAt.After(to) {
			count++
		}
	}

	return count, nil
}

// Page returns entries newest first.
func (r *EntryRepository) Page(ctx context.Context, filter domain.EntryFilter, limit, offset int) ([]*domain.Entry, error) {
	sorted, err := r.sorted(nil, filter)
	if err != nil {
		return nil, err
	}
	slices.Reverse(sorted)

	if offset >= len(sorted) {
		return []*domain.Entry{}, nil
	}

	end := min(offset+limit, len(sorted))

	return sorted[offset:end], nil
}

// Count returns the number of entries matching filter.
func (r *EntryRepository) Count(ctx context.Context, filter domain.EntryFilter) (int, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	count := 0
	for _, e := range r.store.entries {
		if filter.Matches(e) {
			count++
		}
	}

	return count, nil
}

// BalanceAt returns the running balance of the last entry at or before at.
func (r *EntryRepository) BalanceAt(ctx context.Context, at time.Time) (decimal.Decimal, error) {
	sorted, err := r.sorted(nil, domain.EntryFilter{})
	if err != nil {
		return decimal.Zero, err
	}

	var last *domain.Entry
	for _, e := range sorted {
		if e.OccurredAt.After(at) {
			break
		}
		last = e
	}

	return domain.TotalOf(last), nil
}

// TotalBalance returns the running balance of the chronologically last entry.
func (r *EntryRepository) TotalBalance(ctx context.Context) (decimal.Decimal, error) {
	last, err := r.Last(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}

	return domain.TotalOf(last), nil
}
