package usecase

import "time"

const (
	// DefaultTransactionTimeout bounds how long an admission may hold the ledger lock.
	DefaultTransactionTimeout = 10 * time.Second

	// DefaultDailyExpenseLimit is the number of expense entries allowed per calendar day.
	DefaultDailyExpenseLimit = 200

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// IdempotencyPending is stored under a claimed key until its response is known.
	IdempotencyPending = "processing"
)

// Admission outcomes reported to MetricsRecorder.
const (
	OutcomeAdmitted     = "admitted"
	OutcomeInvalid      = "invalid"
	OutcomeDuplicate    = "duplicate"
	OutcomeInsufficient = "insufficient_balance"
	OutcomeDailyLimit   = "daily_limit"
	OutcomeFailed       = "failed"
)
