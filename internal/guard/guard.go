// internal/guard/guard.go

// Package guard holds the route-guard decision machine. It is deliberately
// free of HTTP concerns: the middleware layer maps each decision to a
// redirect-or-serve action.
package guard

import (
	"gestock-gateway/internal/domain/auth"
	"gestock-gateway/internal/pkg/session"
)

// Decision is the outcome of evaluating a protected route.
type Decision int

const (
	Checking Decision = iota
	Granted
	DeniedUnauthenticated
	DeniedRole
)

func (d Decision) String() string {
	switch d {
	case Checking:
		return "checking"
	case Granted:
		return "granted"
	case DeniedUnauthenticated:
		return "denied_unauthenticated"
	case DeniedRole:
		return "denied_role"
	}
	return "unknown"
}

// PublicDecision is the outcome of evaluating a public-only route.
type PublicDecision int

const (
	PublicChecking PublicDecision = iota
	PublicGranted
	PublicRedirect
)

// Evaluate decides access to a protected route from a session snapshot, an
// optional role requirement (empty means any authenticated profile) and the
// credential validity established by the token validator.
func Evaluate(s session.State, required auth.Role, tokenValid bool) Decision {
	if s.Loading {
		return Checking
	}
	if !s.Authenticated || !tokenValid {
		return DeniedUnauthenticated
	}
	if required != "" && !RoleAllowed(s.Profile.Role, required) {
		return DeniedRole
	}
	return Granted
}

// EvaluatePublic decides access to a public-only route such as the login
// screen. An authenticated session is sent to the landing route instead.
func EvaluatePublic(s session.State) PublicDecision {
	if s.Loading {
		return PublicChecking
	}
	if s.Authenticated {
		return PublicRedirect
	}
	return PublicGranted
}

// RoleAllowed reports whether role satisfies required. An empty requirement
// admits every role; SUPERADMIN bypasses every requirement. There is no
// other hierarchy between roles.
func RoleAllowed(role, required auth.Role) bool {
	if required == "" {
		return true
	}
	return role == required || role == auth.RoleSuperAdmin
}
