// internal/pkg/session/store.go
package session

import (
	"context"
	"time"
)

// Store is durable string-slot storage scoped by session id. Implementations
// must return ErrNotFound for absent or expired slots.
type Store interface {
	Get(ctx context.Context, sid, slot string) (string, error)
	Set(ctx context.Context, sid, slot, value string, ttl time.Duration) error
	Clear(ctx context.Context, sid string) error
}
