package memory

import (
	"context"
	"sync"
	"time"

	"github.com/iho/ledgerly/internal/usecase"
)

var _ usecase.IdempotencyStore = (*IdempotencyStore)(nil)

type idempotencyRecord struct {
	value     []byte
	expiresAt time.Time
}

// IdempotencyStore keeps idempotency keys in process memory.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]idempotencyRecord
	now     func() time.Time
}

// NewIdempotencyStore creates a new IdempotencyStore.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: make(map[string]idempotencyRecord),
		now:     time.Now,
	}
}

// CheckAndSet claims key unless a live record already holds it.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if rec, ok := s.records[key]; ok && now.Before(rec.expiresAt) {
		return true, append([]byte(nil), rec.value...), nil
	}

	value := response
	if value == nil {
		value = []byte(usecase.IdempotencyPending)
	}
	s.records[key] = idempotencyRecord{value: append([]byte(nil), value...), expiresAt: now.Add(ttl)}

	return false, nil, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[key] = idempotencyRecord{value: append([]byte(nil), response...), expiresAt: s.now().Add(ttl)}

	return nil
}

// Release deletes key.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)

	return nil
}
