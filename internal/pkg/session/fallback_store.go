// internal/pkg/session/fallback_store.go
package session

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// FallbackStore reads from a primary store (Redis) and falls back to a
// secondary (PostgreSQL) on a miss. Writes go to both; the primary is the
// source of truth, so a secondary write failure is logged, not returned.
type FallbackStore struct {
	primary   Store
	secondary Store
	ttl       time.Duration
	logger    *zap.Logger
}

func NewFallbackStore(primary, secondary Store, ttl time.Duration, logger *zap.Logger) *FallbackStore {
	return &FallbackStore{
		primary:   primary,
		secondary: secondary,
		ttl:       ttl,
		logger:    logger,
	}
}

func (s *FallbackStore) Get(ctx context.Context, sid, slot string) (string, error) {
	value, err := s.primary.Get(ctx, sid, slot)
	if err == nil {
		return value, nil
	}
	if !errors.Is(err, ErrNotFound) {
		s.logger.Warn("primary session store error, falling back",
			zap.String("sid", sid),
			zap.Error(err),
		)
	}

	value, err = s.secondary.Get(ctx, sid, slot)
	if err != nil {
		return "", err
	}

	// Restore to the primary for next time.
	go func() {
		restoreCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if rerr := s.primary.Set(restoreCtx, sid, slot, value, s.ttl); rerr != nil {
			s.logger.Warn("failed to restore session slot to primary", zap.Error(rerr))
		}
	}()

	return value, nil
}

func (s *FallbackStore) Set(ctx context.Context, sid, slot, value string, ttl time.Duration) error {
	if err := s.primary.Set(ctx, sid, slot, value, ttl); err != nil {
		return err
	}
	if err := s.secondary.Set(ctx, sid, slot, value, ttl); err != nil {
		s.logger.Warn("failed to write session slot to secondary", zap.Error(err))
	}
	return nil
}

func (s *FallbackStore) Clear(ctx context.Context, sid string) error {
	perr := s.primary.Clear(ctx, sid)
	if err := s.secondary.Clear(ctx, sid); err != nil {
		s.logger.Warn("failed to clear session in secondary", zap.Error(err))
	}
	return perr
}
