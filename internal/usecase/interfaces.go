package usecase

import (
	"context"
	"iter"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
)

// EntryRepository defines data access for ledger entries.
//
// Methods taking a Transaction run inside it; the ones without open their own
// read-only access.
type EntryRepository interface {
	// LockLedger serializes admissions for the rest of tx.
	LockLedger(ctx context.Context, tx Transaction) error
	Insert(ctx context.Context, tx Transaction, entry *domain.Entry) error
	// InsertBatch skips entries whose external code already exists and returns how
	// many were inserted.
	InsertBatch(ctx context.Context, tx Transaction, entries []*domain.Entry) (int, error)
	Delete(ctx context.Context, tx Transaction, id string) error
	// Ordered yields entries by (occurred_at, id). Every range re-reads the store.
	Ordered(ctx context.Context, tx Transaction, filter domain.EntryFilter) iter.Seq2[*domain.Entry, error]
	UpdateRunningBalances(ctx context.Context, tx Transaction, changes []domain.BalanceChange) error
	// Last returns the chronologically last entry, or nil on an empty ledger.
	Last(ctx context.Context, tx Transaction) (*domain.Entry, error)
	CountExpensesBetween(ctx context.Context, tx Transaction, from, to time.Time) (int, error)

	Page(ctx context.Context, filter domain.EntryFilter, limit, offset int) ([]*domain.Entry, error)
	Count(ctx context.Context, filter domain.EntryFilter) (int, error)
	BalanceAt(ctx context.Context, at time.Time) (decimal.Decimal, error)
	TotalBalance(ctx context.Context) (decimal.Decimal, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// Retrier re-runs an operation on transient store failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// ImportSource fetches raw records from the external transaction feed.
type ImportSource interface {
	Fetch(ctx context.Context) ([]domain.RawRecord, error)
}

// MetricsRecorder receives ledger measurements.
type MetricsRecorder interface {
	ObserveAdmission(kind domain.Kind, outcome string)
	ObserveRecompute(duration time.Duration, writes int)
	ObserveImport(imported, skipped int)
	SetTotalBalance(balance decimal.Decimal)
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a key whose request did not complete.
	Release(ctx context.Context, key string) error
}
