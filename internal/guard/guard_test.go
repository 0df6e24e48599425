package guard

import (
	"testing"

	"gestock-gateway/internal/domain/auth"
	"gestock-gateway/internal/pkg/session"
)

func authedState(role auth.Role) session.State {
	return session.State{
		Token:         "tok",
		Profile:       &auth.Profile{ID: 1, Nom: "Test", Email: "t@example.com", Role: role},
		Authenticated: true,
	}
}

func TestEvaluateLoadingStaysChecking(t *testing.T) {
	s := session.State{Loading: true}
	if d := Evaluate(s, "", true); d != Checking {
		t.Fatalf("expected checking while loading, got %s", d)
	}
}

func TestEvaluateUnauthenticated(t *testing.T) {
	if d := Evaluate(session.Unauthenticated(), "", true); d != DeniedUnauthenticated {
		t.Fatalf("expected denied_unauthenticated, got %s", d)
	}
}

func TestEvaluateInvalidTokenDenies(t *testing.T) {
	if d := Evaluate(authedState(auth.RoleAdmin), "", false); d != DeniedUnauthenticated {
		t.Fatalf("expected denied_unauthenticated for invalid token, got %s", d)
	}
}

func TestEvaluateNoRequirementAdmitsEveryRole(t *testing.T) {
	for _, role := range []auth.Role{auth.RoleUser, auth.RoleAdmin, auth.RoleSuperAdmin} {
		if d := Evaluate(authedState(role), "", true); d != Granted {
			t.Fatalf("role %s: expected granted, got %s", role, d)
		}
	}
}

func TestEvaluateRoleRequirement(t *testing.T) {
	tests := []struct {
		role     auth.Role
		required auth.Role
		want     Decision
	}{
		{auth.RoleAdmin, auth.RoleAdmin, Granted},
		{auth.RoleSuperAdmin, auth.RoleAdmin, Granted},
		{auth.RoleUser, auth.RoleAdmin, DeniedRole},
		{auth.RoleUser, auth.RoleUser, Granted},
		{auth.RoleAdmin, auth.RoleUser, DeniedRole},
		{auth.RoleSuperAdmin, auth.RoleUser, Granted},
	}

	for _, tc := range tests {
		if d := Evaluate(authedState(tc.role), tc.required, true); d != tc.want {
			t.Fatalf("role %s on %s-route: expected %s, got %s", tc.role, tc.required, tc.want, d)
		}
	}
}

func TestRoleAllowedSuperAdminBypass(t *testing.T) {
	if !RoleAllowed(auth.RoleSuperAdmin, auth.RoleAdmin) {
		t.Fatal("superadmin must bypass every requirement")
	}
	if !RoleAllowed(auth.RoleSuperAdmin, auth.RoleUser) {
		t.Fatal("superadmin must bypass every requirement")
	}
}

func TestRoleAllowedNoImplicitHierarchy(t *testing.T) {
	// ADMIN does not inherit USER routes, and vice versa.
	if RoleAllowed(auth.RoleAdmin, auth.RoleUser) {
		t.Fatal("admin must not satisfy a USER requirement")
	}
	if RoleAllowed(auth.RoleUser, auth.RoleAdmin) {
		t.Fatal("user must not satisfy an ADMIN requirement")
	}
}

func TestEvaluatePublic(t *testing.T) {
	if d := EvaluatePublic(session.State{Loading: true}); d != PublicChecking {
		t.Fatalf("expected checking while loading, got %d", d)
	}
	if d := EvaluatePublic(session.Unauthenticated()); d != PublicGranted {
		t.Fatalf("expected granted for anonymous visitor, got %d", d)
	}
	if d := EvaluatePublic(authedState(auth.RoleUser)); d != PublicRedirect {
		t.Fatalf("expected redirect for authenticated visitor, got %d", d)
	}
}
