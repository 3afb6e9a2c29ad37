package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawRecord is one undecoded record from the import source. Expected keys are
// "id", "amount", "type" and optionally "createdAt".
type RawRecord map[string]any

// Import record keys.
const (
	RecordKeyID        = "id"
	RecordKeyAmount    = "amount"
	RecordKeyType      = "type"
	RecordKeyCreatedAt = "createdAt"
)

var recordTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000",
}

// ParseRecord turns a raw import record into a normalized, validated entry.
// A missing createdAt defaults to now.
func ParseRecord(rec RawRecord, now time.Time) (*Entry, error) {
	code, err := recordString(rec, RecordKeyID)
	if err != nil {
		return nil, err
	}

	amountStr, err := recordString(rec, RecordKeyAmount)
	if err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q", ErrInvalidAmount, amountStr)
	}

	kindStr, err := recordString(rec, RecordKeyType)
	if err != nil {
		return nil, err
	}

	kind, err := ParseKind(strings.ToLower(kindStr))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, kindStr)
	}

	var occurredAt time.Time
	if raw, ok := rec[RecordKeyCreatedAt]; ok && raw != nil {
		s, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%w: createdAt is %T", ErrInvalidTimestamp, raw)
		}
		occurredAt, err = ParseTimestamp(s)
		if err != nil {
			return nil, err
		}
	}

	entry := &Entry{
		ExternalCode: &code,
		Kind:         kind,
		Amount:       amount,
		OccurredAt:   occurredAt,
		Source:       SourceImport,
	}
	entry.Normalize(now)

	if err := entry.Validate(); err != nil {
		return nil, err
	}

	return entry, nil
}

// Code returns the record's external code, or "" when the id is missing or unusable.
func (r RawRecord) Code() string {
	code, _ := recordString(r, RecordKeyID)
	return code
}

// ParseTimestamp parses the timestamp formats seen in import feeds. Values without a
// zone are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	for _, layout := range recordTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
}

func recordString(rec RawRecord, key string) (string, error) {
	raw, ok := rec[key]
	if !ok || raw == nil {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = v
	case json.Number:
		s = v.String()
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		s = strconv.Itoa(v)
	case int64:
		s = strconv.FormatInt(v, 10)
	default:
		return "", fmt.Errorf("%w: %s has type %T", ErrInvalidEntry, key, raw)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingField, key)
	}

	return s, nil
}
