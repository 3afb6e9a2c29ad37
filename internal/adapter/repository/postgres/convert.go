package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/iho/ledgerly/internal/domain"
	"github.com/iho/ledgerly/internal/infrastructure/postgres/generated"
)

// PostgreSQL error codes mapped to domain errors.
const (
	pgErrUniqueViolation = "23505"
	pgErrCheckViolation  = "23514"
)

const externalCodeConstraint = "entries_external_code_key"

// mapError translates driver errors into domain errors. Connection-level failures
// become domain.ErrStoreUnavailable so the Retrier can re-run the whole admission.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgErrUniqueViolation && pgErr.ConstraintName == externalCodeConstraint:
			return fmt.Errorf("%w: %s", domain.ErrDuplicateCode, pgErr.Detail)
		case pgErr.Code == pgErrCheckViolation:
			return fmt.Errorf("%w: %s", domain.ErrInvalidEntry, pgErr.ConstraintName)
		}
		return err
	}

	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) || errors.Is(err, context.DeadlineExceeded) ||
		pgconn.Timeout(err) || pgconn.SafeToRetry(err) {
		return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
	}

	return err
}

func decimalToNumeric(d decimal.Decimal) pgtype.Numeric {
	var n pgtype.Numeric

	_ = n.Scan(d.String())

	return n
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}

	d, _ := decimal.NewFromString(n.Int.String())
	if n.Exp != 0 {
		d = d.Shift(n.Exp)
	}

	return d
}

func timeToPgTimestamptz(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

func codeToText(code *string) pgtype.Text {
	if code == nil {
		return pgtype.Text{}
	}
	return pgtype.Text{String: *code, Valid: true}
}

func rowToEntry(row generated.Entry) *domain.Entry {
	entry := &domain.Entry{
		ID:             row.ID,
		Kind:           domain.Kind(row.Kind),
		Source:         domain.Source(row.Source),
		Amount:         numericToDecimal(row.Amount),
		RunningBalance: numericToDecimal(row.RunningBalance),
		OccurredAt:     row.OccurredAt.Time.UTC(),
		CreatedAt:      row.CreatedAt.Time.UTC(),
	}

	if row.ExternalCode.Valid {
		code := row.ExternalCode.String
		entry.ExternalCode = &code
	}

	return entry
}
