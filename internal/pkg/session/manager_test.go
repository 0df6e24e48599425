package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"gestock-gateway/internal/domain/auth"
	xerrors "gestock-gateway/internal/pkg/errors"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*RedisStore, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewRedisStore(rdb), func() { _ = rdb.Close(); mr.Close() }
}

func testProfile(role auth.Role) *auth.Profile {
	return &auth.Profile{
		ID:         42,
		Nom:        "Durand",
		Email:      "durand@example.com",
		Role:       role,
		Profession: auth.Profession{Poste: "Comptable"},
		Entreprise: auth.Entreprise{ID: 7, Nom: "GeStock SARL"},
	}
}

func TestLoginHydrateRoundTrip(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	if err := m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser)); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// A fresh manager over the same storage reconstructs an identical state.
	m2 := NewManager(store, time.Hour, zap.NewNop())
	state := m2.Hydrate(ctx, "s1")
	if !state.Authenticated {
		t.Fatal("expected authenticated state after round trip")
	}
	if state.Token != "tok-1" {
		t.Fatalf("expected token tok-1, got %q", state.Token)
	}
	if state.Profile == nil || state.Profile.ID != 42 || state.Profile.Role != auth.RoleUser {
		t.Fatalf("profile not reconstructed: %+v", state.Profile)
	}
	if state.Profile.Entreprise.Nom != "GeStock SARL" {
		t.Fatalf("nested descriptors not reconstructed: %+v", state.Profile.Entreprise)
	}
	if state.Loading {
		t.Fatal("loading must be false after hydration")
	}
}

func TestHydrateAbsentSessionIsUnauthenticated(t *testing.T) {
	store, done := newTestStore(t)
	defer done()

	m := NewManager(store, time.Hour, zap.NewNop())
	state := m.Hydrate(context.Background(), "unknown")
	if state.Authenticated {
		t.Fatal("expected unauthenticated state for absent session")
	}
	if state.Loading {
		t.Fatal("loading must be false after hydration")
	}
}

func TestHydrateCorruptProfileClearsStorage(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	if err := store.Set(ctx, "s1", SlotToken, "tok-1", time.Hour); err != nil {
		t.Fatalf("seed token: %v", err)
	}
	if err := store.Set(ctx, "s1", SlotUser, "{not json", time.Hour); err != nil {
		t.Fatalf("seed user: %v", err)
	}

	m := NewManager(store, time.Hour, zap.NewNop())
	state := m.Hydrate(ctx, "s1")
	if state.Authenticated {
		t.Fatal("corrupt profile must fold to unauthenticated")
	}

	// Both slots are gone, including the token that parsed fine.
	if _, err := store.Get(ctx, "s1", SlotToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected token slot cleared, got %v", err)
	}
	if _, err := store.Get(ctx, "s1", SlotUser); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected user slot cleared, got %v", err)
	}
}

func TestLoadReportsCorruptSession(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	store.Set(ctx, "s1", SlotToken, "tok-1", time.Hour)
	store.Set(ctx, "s1", SlotUser, "{not json", time.Hour)

	m := NewManager(store, time.Hour, zap.NewNop())
	if _, err := m.load(ctx, "s1"); !errors.Is(err, xerrors.ErrCorruptSession) {
		t.Fatalf("expected ErrCorruptSession, got %v", err)
	}
}

func TestHydrateCacheDefersToStorageAfterDeadline(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	now := time.Unix(1_700_000_000, 0)
	m.now = func() time.Time { return now }

	if err := m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser)); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	// The slots lapse behind the manager's back, as a storage TTL would.
	if err := store.Clear(ctx, "s1"); err != nil {
		t.Fatalf("clear: %v", err)
	}

	// Within the deadline the cached snapshot stands.
	if !m.Hydrate(ctx, "s1").Authenticated {
		t.Fatal("expected cached state within the deadline")
	}

	// Past it, storage is the source of truth again.
	now = now.Add(time.Hour + time.Minute)
	if m.Hydrate(ctx, "s1").Authenticated {
		t.Fatal("stale cache must defer to storage after the deadline")
	}
}

func TestTerminateEvictsCachedEntry(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser))
	m.Logout(ctx, "s1")

	m.mu.Lock()
	_, cached := m.entries["s1"]
	m.mu.Unlock()
	if cached {
		t.Fatal("terminated session must not stay cached")
	}
	if m.GetState("s1").Authenticated {
		t.Fatal("expected unauthenticated state after logout")
	}
}

func TestGenerationsNeverRepeatAcrossSessions(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	seen := make(map[uint64]bool)
	for i := 0; i < 3; i++ {
		m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser))
		g := m.Generation("s1")
		if seen[g] {
			t.Fatalf("generation %d issued twice", g)
		}
		seen[g] = true
		m.Logout(ctx, "s1")
	}
}

func TestLogoutIdempotent(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	if err := m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleAdmin)); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := m.Logout(ctx, "s1"); err != nil {
		t.Fatalf("first logout failed: %v", err)
	}
	first := m.GetState("s1")

	if err := m.Logout(ctx, "s1"); err != nil {
		t.Fatalf("second logout failed: %v", err)
	}
	second := m.GetState("s1")

	if first != second {
		t.Fatalf("logout must be idempotent: %+v vs %+v", first, second)
	}
	if first.Authenticated {
		t.Fatal("expected unauthenticated end state")
	}
	if _, err := store.Get(ctx, "s1", SlotToken); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected storage cleared, got %v", err)
	}
}

func TestSubscribeReceivesTransitions(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())

	var events []Event
	cancel := m.Subscribe(func(sid string, ev Event, s State) {
		if sid == "s1" {
			events = append(events, ev)
		}
	})
	defer cancel()

	m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser))
	m.Logout(ctx, "s1")
	m.Logout(ctx, "s1") // no-op, no event

	if len(events) != 2 || events[0] != EventLogin || events[1] != EventLogout {
		t.Fatalf("expected [login logout], got %v", events)
	}
}

func TestInvalidateNotifiesExpired(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser))

	var got Event
	cancel := m.Subscribe(func(sid string, ev Event, s State) { got = ev })
	defer cancel()

	m.Invalidate(ctx, "s1")
	if got != EventExpired {
		t.Fatalf("expected expired event, got %q", got)
	}
	if m.GetState("s1").Authenticated {
		t.Fatal("expected unauthenticated state after invalidation")
	}
}

func TestGenerationBumpsOnIdentityChange(t *testing.T) {
	store, done := newTestStore(t)
	defer done()
	ctx := context.Background()

	m := NewManager(store, time.Hour, zap.NewNop())
	before := m.Generation("s1")

	m.Login(ctx, "s1", "tok-1", testProfile(auth.RoleUser))
	afterLogin := m.Generation("s1")
	if afterLogin == before {
		t.Fatal("login must change the session generation")
	}

	m.Logout(ctx, "s1")
	if m.Generation("s1") == afterLogin {
		t.Fatal("logout must change the session generation")
	}
}
