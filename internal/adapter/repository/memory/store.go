// Package memory provides a concurrency-safe in-memory entry store. It backs
// STORAGE_DRIVER=memory and the use case tests.
//
// A transaction holds the store's write lock from Begin until Commit or Rollback,
// which serializes admissions the same way the Postgres advisory lock does.
// Rollback restores the snapshot taken at Begin.
package memory

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already finished")

// ErrForeignTx is returned when a transaction from another store is passed in.
var ErrForeignTx = errors.New("memory: transaction does not belong to this store")

// Store holds entries and outbox events.
type Store struct {
	mu      sync.RWMutex
	entries []*domain.Entry
	codes   map[string]string
	events  []*domain.OutboxEvent
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		codes: make(map[string]string),
	}
}

// Ping always succeeds; it satisfies the readiness check.
func (s *Store) Ping(context.Context) error {
	return nil
}

type snapshot struct {
	entries []*domain.Entry
	codes   map[string]string
	events  []*domain.OutboxEvent
}

func (s *Store) snapshot() snapshot {
	entries := make([]*domain.Entry, len(s.entries))
	for i, e := range s.entries {
		entries[i] = cloneEntry(e)
	}

	return snapshot{
		entries: entries,
		codes:   maps.Clone(s.codes),
		events:  slices.Clone(s.events),
	}
}

func (s *Store) restore(snap snapshot) {
	s.entries = snap.entries
	s.codes = snap.codes
	s.events = snap.events
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin locks the store and starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.store.mu.Lock()

	return &Tx{store: m.store, snap: m.store.snapshot()}, nil
}

// Tx is an in-memory transaction.
type Tx struct {
	store *Store
	snap  snapshot
	done  bool
}

// Commit keeps the changes and releases the store.
func (t *Tx) Commit(context.Context) error {
	if t.done {
		return ErrTxDone
	}

	t.done = true
	t.store.mu.Unlock()

	return nil
}

// Rollback restores the snapshot and releases the store. It is a no-op after Commit.
func (t *Tx) Rollback(context.Context) error {
	if t.done {
		return nil
	}

	t.store.restore(t.snap)
	t.done = true
	t.store.mu.Unlock()

	return nil
}

func (s *Store) checkTx(tx usecase.Transaction) error {
	mtx, ok := tx.(*Tx)
	if !ok || mtx.store != s {
		return ErrForeignTx
	}
	if mtx.done {
		return ErrTxDone
	}
	return nil
}

func cloneEntry(e *domain.Entry) *domain.Entry {
	c := *e
	if e.ExternalCode != nil {
		code := *e.ExternalCode
		c.ExternalCode = &code
	}
	return &c
}
