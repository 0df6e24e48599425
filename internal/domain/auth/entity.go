// internal/domain/auth/entity.go
package auth

// Role is the closed set of dashboard roles.
type Role string

const (
	RoleUser       Role = "USER"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// Valid reports whether r is one of the known role variants.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Profession describes the user's position inside the company.
type Profession struct {
	Poste string `json:"poste"`
}

// Entreprise is the company a profile belongs to.
type Entreprise struct {
	ID  int64  `json:"id"`
	Nom string `json:"nom"`
}

// Profile is the authenticated identity snapshot issued by the backend at
// login. It is immutable on the gateway side: a stale profile is replaced
// wholesale on the next login, never patched.
type Profile struct {
	ID         int64      `json:"id"`
	Nom        string     `json:"nom"`
	Email      string     `json:"email"`
	Role       Role       `json:"role"`
	Profession Profession `json:"profession"`
	Entreprise Entreprise `json:"entreprise"`
}

// IsSuperAdmin reports whether the profile holds the universal-bypass role.
func (p *Profile) IsSuperAdmin() bool {
	return p != nil && p.Role == RoleSuperAdmin
}

// IsAdmin reports whether the profile is an admin (super admin included).
func (p *Profile) IsAdmin() bool {
	return p != nil && (p.Role == RoleAdmin || p.Role == RoleSuperAdmin)
}
