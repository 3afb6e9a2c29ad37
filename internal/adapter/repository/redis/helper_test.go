package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	redislib "github.com/redis/go-redis/v9"
)

// storeFixture is an IdempotencyStore backed by miniredis, with access to the raw keys.
type storeFixture struct {
	store *IdempotencyStore
	mr    *miniredis.Miniredis
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redislib.NewClient(&redislib.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return &storeFixture{store: NewIdempotencyStore(client), mr: mr}
}

// raw returns the value stored under the prefixed key, or "" when absent.
func (f *storeFixture) raw(t *testing.T, key string) string {
	t.Helper()

	val, err := f.mr.Get(f.store.prefix + key)
	if err != nil {
		return ""
	}
	return val
}

func (f *storeFixture) seed(t *testing.T, key, value string, ttl time.Duration) {
	t.Helper()

	if err := f.mr.Set(f.store.prefix+key, value); err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	f.mr.SetTTL(f.store.prefix+key, ttl)
}
