package domain

import "time"

// Event types
const (
	EventTypeEntryRecorded   = "entry.recorded"
	EventTypeEntriesImported = "entries.imported"
)

// Aggregate types
const (
	AggregateTypeEntry  = "entry"
	AggregateTypeImport = "import"
)

// OutboxEvent represents an event to be published
type OutboxEvent struct {
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Payload       map[string]any
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Published     bool
}

// EntryRecordedEvent payload
type EntryRecordedEvent struct {
	EntryID      string `json:"entry_id"`
	Kind         string `json:"kind"`
	Amount       string `json:"amount"`
	OccurredAt   string `json:"occurred_at"`
	TotalBalance string `json:"total_balance"`
}

// EntriesImportedEvent payload
type EntriesImportedEvent struct {
	Imported     int    `json:"imported"`
	Skipped      int    `json:"skipped"`
	TotalBalance string `json:"total_balance"`
}

// Map converts the payload to the generic outbox form.
func (e EntryRecordedEvent) Map() map[string]any {
	return map[string]any{
		"entry_id":      e.EntryID,
		"kind":          e.Kind,
		"amount":        e.Amount,
		"occurred_at":   e.OccurredAt,
		"total_balance": e.TotalBalance,
	}
}

// Map converts the payload to the generic outbox form.
func (e EntriesImportedEvent) Map() map[string]any {
	return map[string]any{
		"imported":      e.Imported,
		"skipped":       e.Skipped,
		"total_balance": e.TotalBalance,
	}
}
