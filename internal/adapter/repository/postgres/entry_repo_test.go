package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/usecase"
)

var entryColumns = []string{"id", "kind", "amount", "running_balance", "occurred_at", "created_at", "external_code", "source"}

func beginTx(t *testing.T, pool pgxmock.PgxPoolIface) usecase.Transaction {
	t.Helper()
	pool.ExpectBegin()
	tx, err := newTxManagerWithPool(pool).Begin(context.Background())
	require.NoError(t, err)
	return tx
}

func TestEntryRepository_LockLedger(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	pool.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock($1)")).
		WithArgs(ledgerLockKey).
		WillReturnResult(pgxmock.NewResult("SELECT", 1))
	pool.ExpectCommit()

	require.NoError(t, repo.LockLedger(context.Background(), tx))
	require.NoError(t, tx.Commit(context.Background()))
	assertExpectations(t, pool)
}

func TestEntryRepository_InsertNormalizes(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	pool.ExpectExec("INSERT INTO entries").
		WithArgs(pgxmock.AnyArg(), "expense", decimalToNumeric(decimal.RequireFromString("-12.50")),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgtype.Text{}, "manual").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	entry := &domain.Entry{Kind: domain.KindExpense, Amount: decimal.RequireFromString("12.5")}
	require.NoError(t, repo.Insert(context.Background(), tx, entry))

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "-12.50", entry.Amount.StringFixed(2))
	assert.False(t, entry.OccurredAt.IsZero())
	assertExpectations(t, pool)
}

func TestEntryRepository_InsertRejectsInvalid(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	err := repo.Insert(context.Background(), tx, &domain.Entry{Kind: "gift", Amount: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, domain.ErrInvalidEntry)
	assertExpectations(t, pool)
}

func TestEntryRepository_InsertDuplicateCode(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	pool.ExpectExec("INSERT INTO entries").
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: externalCodeConstraint})

	code := "TX-1"
	err := repo.Insert(context.Background(), tx, &domain.Entry{
		Kind: domain.KindDeposit, Amount: decimal.NewFromInt(5), ExternalCode: &code,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestEntryRepository_InsertBatchCountsInserted(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	pool.ExpectExec("ON CONFLICT \\(external_code\\) DO NOTHING").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	pool.ExpectExec("ON CONFLICT \\(external_code\\) DO NOTHING").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	a, b := "A", "B"
	n, err := repo.InsertBatch(context.Background(), tx, []*domain.Entry{
		{Kind: domain.KindDeposit, Amount: decimal.NewFromInt(1), ExternalCode: &a, Source: domain.SourceImport},
		{Kind: domain.KindDeposit, Amount: decimal.NewFromInt(1), ExternalCode: &b, Source: domain.SourceImport},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assertExpectations(t, pool)
}

func TestEntryRepository_DeleteNotFound(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	pool.ExpectExec("DELETE FROM entries").
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := repo.Delete(context.Background(), tx, "missing")
	require.ErrorIs(t, err, domain.ErrEntryNotFound)
}

func TestEntryRepository_Ordered(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())

	t1 := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)

	pool.ExpectQuery("ORDER BY occurred_at, id").
		WithArgs("").
		WillReturnRows(pgxmock.NewRows(entryColumns).
			AddRow("01A", "deposit", decimalToNumeric(decimal.NewFromInt(100)), decimalToNumeric(decimal.NewFromInt(100)),
				timeToPgTimestamptz(t1), timeToPgTimestamptz(t1), pgtype.Text{String: "X", Valid: true}, "import").
			AddRow("01B", "expense", decimalToNumeric(decimal.NewFromInt(-30)), decimalToNumeric(decimal.Zero),
				timeToPgTimestamptz(t2), timeToPgTimestamptz(t2), pgtype.Text{}, "manual"))

	var got []*domain.Entry
	for e, err := range repo.Ordered(context.Background(), nil, domain.EntryFilter{}) {
		require.NoError(t, err)
		got = append(got, e)
	}

	require.Len(t, got, 2)
	assert.Equal(t, "X", got[0].Code())
	assert.Equal(t, domain.SourceImport, got[0].Source)
	assert.Equal(t, "-30", got[1].Amount.String())
	assert.Nil(t, got[1].ExternalCode)

	changes, total, err := domain.Fold(func(yield func(*domain.Entry, error) bool) {
		for _, e := range got {
			if !yield(e, nil) {
				return
			}
		}
	})
	require.NoError(t, err)
	assert.Equal(t, "70", total.String())
	require.Len(t, changes, 1)
	assert.Equal(t, "01B", changes[0].EntryID)
	assertExpectations(t, pool)
}

func TestEntryRepository_OrderedQueryError(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())

	pool.ExpectQuery("ORDER BY occurred_at, id").
		WithArgs("expense").
		WillReturnError(context.DeadlineExceeded)

	for _, err := range repo.Ordered(context.Background(), nil, domain.EntryFilter{Kind: domain.KindExpense}) {
		require.ErrorIs(t, err, domain.ErrStoreUnavailable)
	}
}

func TestEntryRepository_UpdateRunningBalances(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	pool.ExpectExec("UPDATE entries AS e").
		WithArgs([]string{"a", "b"}, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	err := repo.UpdateRunningBalances(context.Background(), tx, []domain.BalanceChange{
		{EntryID: "a", Balance: decimal.NewFromInt(1)},
		{EntryID: "b", Balance: decimal.NewFromInt(2)},
	})
	require.NoError(t, err)

	// nothing changed, nothing sent
	require.NoError(t, repo.UpdateRunningBalances(context.Background(), tx, nil))
	assertExpectations(t, pool)
}

func TestEntryRepository_LastOnEmptyLedger(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())

	pool.ExpectQuery("ORDER BY occurred_at DESC, id DESC").
		WillReturnError(pgx.ErrNoRows)

	total, err := repo.TotalBalance(context.Background())
	require.NoError(t, err)
	assert.True(t, total.IsZero())
}

func TestEntryRepository_CountExpensesBetween(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())
	tx := beginTx(t, pool)

	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(24*time.Hour - time.Nanosecond)

	pool.ExpectQuery("kind = 'expense'").
		WithArgs(timeToPgTimestamptz(from), timeToPgTimestamptz(to)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := repo.CountExpensesBetween(context.Background(), tx, from, to)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestEntryRepository_BalanceAt(t *testing.T) {
	pool := newMockPool(t)
	repo := NewEntryRepository(pool, NewULIDGenerator())

	at := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	pool.ExpectQuery("COALESCE").
		WithArgs(timeToPgTimestamptz(at)).
		WillReturnRows(pgxmock.NewRows([]string{"balance"}).AddRow(decimalToNumeric(decimal.RequireFromString("42.10"))))

	balance, err := repo.BalanceAt(context.Background(), at)
	require.NoError(t, err)
	assert.Equal(t, "42.10", balance.StringFixed(2))
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"duplicate code", &pgconn.PgError{Code: pgErrUniqueViolation, ConstraintName: externalCodeConstraint}, domain.ErrDuplicateCode},
		{"check violation", &pgconn.PgError{Code: pgErrCheckViolation, ConstraintName: "entries_amount_sign"}, domain.ErrInvalidEntry},
		{"timeout", context.DeadlineExceeded, domain.ErrStoreUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.want)
		})
	}

	other := errors.New("syntax error")
	assert.Equal(t, other, mapError(other))
	assert.NoError(t, mapError(nil))
}
