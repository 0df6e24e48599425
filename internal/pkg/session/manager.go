// internal/pkg/session/manager.go
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"gestock-gateway/internal/domain/auth"
	xerrors "gestock-gateway/internal/pkg/errors"

	"go.uber.org/zap"
)

// Manager is the single source of truth for session state. All mutation
// goes through Login, Logout and Invalidate; guards and handlers are
// read-only consumers.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	gen     uint64
	entries map[string]*entry
	subs    map[int]func(sid string, ev Event, s State)
	nextSub int
}

// entry caches the hydrated state per session id. The cache is bounded by
// live sessions: a terminated session is evicted, and a cached snapshot past
// its deadline defers to storage again, so the durable slots stay the source
// of truth across their TTL. gen values are drawn from a manager-wide
// counter, so they are unique across all sessions and never repeat for a
// sid that ends and logs in again.
type entry struct {
	state    State
	gen      uint64
	deadline time.Time
}

func NewManager(store Store, ttl time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		now:     time.Now,
		entries: make(map[string]*entry),
		subs:    make(map[int]func(sid string, ev Event, s State)),
	}
}

// Hydrate reconstructs the session state for sid from durable storage.
// It never returns an error: a missing slot or corrupt profile JSON clears
// both slots and folds to the unauthenticated default. The result is cached
// until the session identity changes.
func (m *Manager) Hydrate(ctx context.Context, sid string) State {
	if sid == "" {
		return Unauthenticated()
	}

	m.mu.Lock()
	if e, ok := m.entries[sid]; ok {
		if m.now().Before(e.deadline) {
			state := e.state
			m.mu.Unlock()
			return state
		}
		// The snapshot outlived the storage TTL; storage decides again.
		delete(m.entries, sid)
	}
	m.mu.Unlock()

	state, err := m.load(ctx, sid)
	if err != nil {
		if !xerrors.Is(err, ErrNotFound) {
			m.logger.Warn("session hydration failed, clearing session",
				zap.String("sid", sid),
				zap.Error(err),
			)
		}
		if cerr := m.store.Clear(ctx, sid); cerr != nil {
			m.logger.Warn("failed to clear session storage", zap.Error(cerr))
		}
		state = Unauthenticated()
	}

	m.mu.Lock()
	if e, ok := m.entries[sid]; ok {
		// Another hydration won the race; its state stands.
		state = e.state
	} else {
		m.gen++
		m.entries[sid] = &entry{state: state, gen: m.gen, deadline: m.now().Add(m.ttl)}
	}
	m.mu.Unlock()

	return state
}

// load keeps the fallible shape of hydration inspectable for tests.
func (m *Manager) load(ctx context.Context, sid string) (State, error) {
	tok, err := m.store.Get(ctx, sid, SlotToken)
	if err != nil {
		return Unauthenticated(), err
	}

	raw, err := m.store.Get(ctx, sid, SlotUser)
	if err != nil {
		return Unauthenticated(), err
	}

	var profile auth.Profile
	if err := json.Unmarshal([]byte(raw), &profile); err != nil {
		return Unauthenticated(), xerrors.Wrap(xerrors.ErrCorruptSession, err.Error())
	}

	return State{Token: tok, Profile: &profile, Authenticated: true}, nil
}

// Login persists the credential and profile, then updates the in-memory
// state. The storage writes complete before Login returns so a navigation
// issued by the caller can never observe storage behind memory.
func (m *Manager) Login(ctx context.Context, sid, credential string, profile *auth.Profile) error {
	raw, err := json.Marshal(profile)
	if err != nil {
		return xerrors.Wrap(err, "failed to serialize profile")
	}

	if err := m.store.Set(ctx, sid, SlotToken, credential, m.ttl); err != nil {
		return err
	}
	if err := m.store.Set(ctx, sid, SlotUser, string(raw), m.ttl); err != nil {
		return err
	}

	state := State{Token: credential, Profile: profile, Authenticated: true}
	m.replace(sid, state)
	m.notify(sid, EventLogin, state)
	return nil
}

// Logout clears durable storage and resets the in-memory state. Calling it
// on an already logged-out session is a no-op with the same end state.
func (m *Manager) Logout(ctx context.Context, sid string) error {
	return m.terminate(ctx, sid, EventLogout)
}

// Invalidate is logout without the navigation side effect. The token
// validator calls it when a credential turns out expired or invalid.
func (m *Manager) Invalidate(ctx context.Context, sid string) {
	if err := m.terminate(ctx, sid, EventExpired); err != nil {
		m.logger.Warn("session invalidation failed", zap.String("sid", sid), zap.Error(err))
	}
}

func (m *Manager) terminate(ctx context.Context, sid string, ev Event) error {
	if sid == "" {
		return nil
	}
	if err := m.store.Clear(ctx, sid); err != nil {
		return err
	}

	m.mu.Lock()
	wasAuthenticated := false
	if e, ok := m.entries[sid]; ok {
		wasAuthenticated = e.state.Authenticated
		delete(m.entries, sid)
	}
	m.mu.Unlock()

	if wasAuthenticated {
		m.notify(sid, ev, Unauthenticated())
	}
	return nil
}

// GetState returns the cached state for sid, or the unauthenticated default.
func (m *Manager) GetState(sid string) State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[sid]; ok {
		return e.state
	}
	return Unauthenticated()
}

// Generation returns the identity generation of sid. A verification result
// obtained under an older generation must be discarded.
func (m *Manager) Generation(sid string) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.entries[sid]; ok {
		return e.gen
	}
	return 0
}

// Subscribe registers fn for session transitions. The returned function
// cancels the subscription.
func (m *Manager) Subscribe(fn func(sid string, ev Event, s State)) func() {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) replace(sid string, state State) {
	m.mu.Lock()
	m.gen++
	m.entries[sid] = &entry{state: state, gen: m.gen, deadline: m.now().Add(m.ttl)}
	m.mu.Unlock()
}

func (m *Manager) notify(sid string, ev Event, state State) {
	m.mu.Lock()
	fns := make([]func(string, Event, State), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.mu.Unlock()

	for _, fn := range fns {
		fn(sid, ev, state)
	}
}
