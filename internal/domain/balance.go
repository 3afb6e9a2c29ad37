package domain

import (
	"iter"
	"time"

	"github.com/shopspring/decimal"
)

// BalanceChange is a running balance that must be persisted for one entry.
type BalanceChange struct {
	EntryID string
	Balance decimal.Decimal
}

// Fold walks entries in ordering-key order, accumulating amounts from zero, and returns
// the entries whose stored running balance differs from the prefix sum, together with
// the final total. The sequence must already be ordered.
func Fold(entries iter.Seq2[*Entry, error]) ([]BalanceChange, decimal.Decimal, error) {
	acc := decimal.Zero
	var changes []BalanceChange

	for e, err := range entries {
		if err != nil {
			return nil, decimal.Zero, err
		}

		acc = acc.Add(e.Amount)
		if !e.RunningBalance.Equal(acc) {
			changes = append(changes, BalanceChange{EntryID: e.ID, Balance: acc})
		}
	}

	return changes, acc, nil
}

// TotalOf returns the total balance given the chronologically last entry, which may be nil.
func TotalOf(last *Entry) decimal.Decimal {
	if last == nil {
		return decimal.Zero
	}
	return last.RunningBalance
}

// DayBounds returns the first and last instant of the calendar day containing t in loc.
// Both bounds are inclusive.
func DayBounds(t time.Time, loc *time.Location) (time.Time, time.Time) {
	if loc == nil {
		loc = time.Local
	}

	local := t.In(loc)
	start := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	end := start.AddDate(0, 0, 1).Add(-time.Nanosecond)

	return start, end
}
