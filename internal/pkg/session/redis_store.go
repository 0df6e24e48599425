// internal/pkg/session/redis_store.go
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore is the primary durable storage for session slots.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, sid, slot string) (string, error) {
	value, err := s.client.Get(ctx, slotKey(sid, slot)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session slot: %w", err)
	}
	return value, nil
}

func (s *RedisStore) Set(ctx context.Context, sid, slot, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, slotKey(sid, slot), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session slot: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context, sid string) error {
	keys := []string{slotKey(sid, SlotToken), slotKey(sid, SlotUser)}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func slotKey(sid, slot string) string {
	return fmt.Sprintf("session:%s:%s", sid, slot)
}
