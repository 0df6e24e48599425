package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// memStore is an in-memory Store standing in for the PostgreSQL fallback.
type memStore struct {
	mu    sync.Mutex
	slots map[string]string
}

func newMemStore() *memStore {
	return &memStore{slots: make(map[string]string)}
}

func (s *memStore) Get(ctx context.Context, sid, slot string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.slots[sid+"/"+slot]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (s *memStore) Set(ctx context.Context, sid, slot, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[sid+"/"+slot] = value
	return nil
}

func (s *memStore) Clear(ctx context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.slots, sid+"/"+SlotToken)
	delete(s.slots, sid+"/"+SlotUser)
	return nil
}

func newFallbackFixture(t *testing.T) (*FallbackStore, *RedisStore, *memStore, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	primary := NewRedisStore(rdb)
	secondary := newMemStore()
	fs := NewFallbackStore(primary, secondary, time.Hour, zap.NewNop())
	return fs, primary, secondary, mr, func() { _ = rdb.Close(); mr.Close() }
}

func TestFallbackSetWritesBothStores(t *testing.T) {
	fs, primary, secondary, _, done := newFallbackFixture(t)
	defer done()
	ctx := context.Background()

	if err := fs.Set(ctx, "s1", SlotToken, "tok-1", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if v, err := primary.Get(ctx, "s1", SlotToken); err != nil || v != "tok-1" {
		t.Fatalf("primary miss: %q, %v", v, err)
	}
	if v, err := secondary.Get(ctx, "s1", SlotToken); err != nil || v != "tok-1" {
		t.Fatalf("secondary miss: %q, %v", v, err)
	}
}

func TestFallbackGetSurvivesPrimaryFlush(t *testing.T) {
	fs, primary, _, mr, done := newFallbackFixture(t)
	defer done()
	ctx := context.Background()

	if err := fs.Set(ctx, "s1", SlotToken, "tok-1", time.Hour); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	mr.FlushAll()

	v, err := fs.Get(ctx, "s1", SlotToken)
	if err != nil || v != "tok-1" {
		t.Fatalf("expected fallback hit, got %q, %v", v, err)
	}

	// The slot is restored to the primary shortly after.
	deadline := time.Now().Add(2 * time.Second)
	for {
		if v, err := primary.Get(ctx, "s1", SlotToken); err == nil && v == "tok-1" {
			return
		}
		if time.Now().After(deadline) {
			t.Fatal("slot was not restored to the primary store")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestFallbackClearClearsBothStores(t *testing.T) {
	fs, primary, secondary, _, done := newFallbackFixture(t)
	defer done()
	ctx := context.Background()

	fs.Set(ctx, "s1", SlotToken, "tok-1", time.Hour)
	fs.Set(ctx, "s1", SlotUser, `{"id":1}`, time.Hour)

	if err := fs.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear failed: %v", err)
	}

	if _, err := primary.Get(ctx, "s1", SlotToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected primary cleared, got %v", err)
	}
	if _, err := secondary.Get(ctx, "s1", SlotUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected secondary cleared, got %v", err)
	}
}
