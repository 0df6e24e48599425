// internal/pkg/token/validator.go
package token

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// Verifier checks a credential against the backend's verification endpoint.
type Verifier interface {
	Verify(ctx context.Context, credential string) error
}

// Sessions is the slice of the session manager the validator needs: clearing
// a dead session and reading the identity generation for staleness checks.
type Sessions interface {
	Invalidate(ctx context.Context, sid string)
	Generation(sid string) uint64
}

// Validator decides whether a held credential is still usable. The common
// case (well-formed, non-expired token) is decided locally without a
// network round-trip; only a structurally malformed credential degrades to
// a backend verification call.
type Validator struct {
	upstream Verifier
	sessions Sessions
	logger   *zap.Logger
	now      func() time.Time

	mu      sync.Mutex
	checked map[string]memo
}

// memo records the outcome of the last check for a session. One entry per
// sid keeps the cache bounded by the number of live sessions. The decoded
// expiry is kept so the deadline is enforced on every hit; only the
// structural work (claim decode, network verification) is deduplicated.
type memo struct {
	gen        uint64
	credential string
	expiry     *time.Time
	valid      bool
}

func NewValidator(upstream Verifier, sessions Sessions, logger *zap.Logger) *Validator {
	return &Validator{
		upstream: upstream,
		sessions: sessions,
		logger:   logger,
		now:      time.Now,
		checked:  make(map[string]memo),
	}
}

// Check reports whether credential is still valid for sid. Decode and
// verification run at most once per (sid, credential, generation); the
// expiry compare runs on every call, so a credential that lapses between
// navigations is caught at the next one.
func (v *Validator) Check(ctx context.Context, sid, credential string) bool {
	if credential == "" {
		return false
	}

	gen := v.sessions.Generation(sid)

	v.mu.Lock()
	m, hit := v.checked[sid]
	v.mu.Unlock()
	if hit && m.gen == gen && m.credential == credential {
		if m.expiry != nil && !v.now().Before(*m.expiry) {
			v.expire(ctx, sid)
			return false
		}
		return m.valid
	}

	valid, expiry := v.check(ctx, sid, gen, credential)

	// A late verification result must not resurrect a session whose
	// identity changed while the call was in flight.
	if v.sessions.Generation(sid) != gen {
		return false
	}

	v.mu.Lock()
	v.checked[sid] = memo{gen: gen, credential: credential, expiry: expiry, valid: valid}
	v.mu.Unlock()
	return valid
}

// Forget drops the memoized outcome for sid. Session-end subscribers call
// it so the cache holds live sessions only.
func (v *Validator) Forget(sid string) {
	v.mu.Lock()
	delete(v.checked, sid)
	v.mu.Unlock()
}

// expire ends a session whose credential passed its embedded deadline.
func (v *Validator) expire(ctx context.Context, sid string) {
	v.sessions.Invalidate(ctx, sid)
	v.Forget(sid)
}

func (v *Validator) check(ctx context.Context, sid string, gen uint64, credential string) (bool, *time.Time) {
	expiry, decodeErr := decodeExpiry(credential)
	if decodeErr == nil {
		if expiry != nil && !v.now().Before(*expiry) {
			// now >= exp: expired at the exact boundary too.
			v.expire(ctx, sid)
			return false, expiry
		}
		return true, expiry
	}

	// Malformed credential: fall back to backend verification.
	err := v.upstream.Verify(ctx, credential)

	if v.sessions.Generation(sid) != gen {
		return false, nil
	}

	if err != nil {
		v.logger.Info("credential verification failed, clearing session",
			zap.String("sid", sid),
			zap.Error(err),
		)
		v.expire(ctx, sid)
		return false, nil
	}
	return true, nil
}

// decodeExpiry extracts the embedded expiry instant from the credential's
// claims segment without verifying the signature; the backend owns the
// signing keys. A decodable payload without an exp claim yields (nil, nil).
func decodeExpiry(credential string) (*time.Time, error) {
	claims := jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(credential, &claims); err != nil {
		return nil, err
	}
	if claims.ExpiresAt == nil {
		return nil, nil
	}
	t := claims.ExpiresAt.Time
	return &t, nil
}
