// internal/pkg/session/types.go
package session

import (
	"errors"

	"gestock-gateway/internal/domain/auth"
)

// Storage slot names. One session owns exactly these two string slots.
const (
	SlotToken = "token"
	SlotUser  = "user"
)

// ErrNotFound is returned by a Store when a slot has no value.
var ErrNotFound = errors.New("session slot not found")

// Event describes a session state transition fanned out to subscribers.
type Event string

const (
	EventLogin   Event = "login"
	EventLogout  Event = "logout"
	EventExpired Event = "expired"
)

// State is the in-memory session snapshot consumed by guards and the
// navigation shell. Invariant: Authenticated is true iff both the token
// and the profile are present.
type State struct {
	Token         string
	Profile       *auth.Profile
	Authenticated bool
	Loading       bool
}

// Unauthenticated is the default state a failed or absent hydration folds to.
func Unauthenticated() State {
	return State{}
}
