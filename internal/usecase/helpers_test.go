package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/adapter/repository/memory"
	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

var testNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

// seqIDGenerator yields increasing, sortable ids.
type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%06d", g.n)
}

type testLedger struct {
	store   *memory.Store
	entries *memory.EntryRepository
	outbox  *memory.OutboxRepository
	ledger  *usecase.LedgerUseCase
	imports *usecase.ImportUseCase
}

func newTestLedger(t *testing.T, cfg usecase.LedgerConfig, source usecase.ImportSource) *testLedger {
	t.Helper()

	if cfg.Clock == nil {
		cfg.Clock = func() time.Time { return testNow }
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}

	idGen := &seqIDGenerator{}
	store := memory.NewStore()
	entries := memory.NewEntryRepository(store, idGen)
	outbox := memory.NewOutboxRepository(store)
	txManager := memory.NewTxManager(store)

	return &testLedger{
		store:   store,
		entries: entries,
		outbox:  outbox,
		ledger:  usecase.NewLedgerUseCase(txManager, entries, outbox, idGen, cfg),
		imports: usecase.NewImportUseCase(txManager, entries, outbox, idGen, source, cfg),
	}
}

func (l *testLedger) add(t *testing.T, kind domain.Kind, amount string, at time.Time) (*usecase.AddEntryResult, error) {
	t.Helper()

	return l.ledger.AddEntry(context.Background(), usecase.AddEntryInput{
		Kind:       kind,
		Amount:     decimal.RequireFromString(amount),
		OccurredAt: &at,
	})
}

func (l *testLedger) mustAdd(t *testing.T, kind domain.Kind, amount string, at time.Time) *usecase.AddEntryResult {
	t.Helper()

	res, err := l.add(t, kind, amount, at)
	if err != nil {
		t.Fatalf("AddEntry(%s %s) failed: %v", kind, amount, err)
	}
	return res
}

// ordered returns all stored entries in chronological order.
func (l *testLedger) ordered(t *testing.T) []*domain.Entry {
	t.Helper()

	var out []*domain.Entry
	for e, err := range l.entries.Ordered(context.Background(), nil, domain.EntryFilter{}) {
		if err != nil {
			t.Fatalf("Ordered failed: %v", err)
		}
		out = append(out, e)
	}
	return out
}

func (l *testLedger) balances(t *testing.T) []string {
	t.Helper()

	var out []string
	for _, e := range l.ordered(t) {
		out = append(out, e.RunningBalance.StringFixed(domain.AmountScale))
	}
	return out
}

// assertPrefixSums checks every running balance against the prefix sum of amounts.
func (l *testLedger) assertPrefixSums(t *testing.T) {
	t.Helper()

	sum := decimal.Zero
	for _, e := range l.ordered(t) {
		sum = sum.Add(e.Amount)
		if !e.RunningBalance.Equal(sum) {
			t.Errorf("entry %s: running balance %s, prefix sum %s", e.ID, e.RunningBalance, sum)
		}
	}
}

func memoryTx(l *testLedger) (usecase.Transaction, error) {
	return memory.NewTxManager(l.store).Begin(context.Background())
}
