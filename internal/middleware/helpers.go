// internal/middleware/helpers.go
package middleware

import (
	"gestock-gateway/internal/domain/auth"

	"github.com/gin-gonic/gin"
)

const (
	ctxKeySID     = "sid"
	ctxKeyToken   = "token"
	ctxKeyProfile = "profile"
)

// CurrentProfile returns the authenticated profile set by the guard.
func CurrentProfile(c *gin.Context) (*auth.Profile, bool) {
	v, exists := c.Get(ctxKeyProfile)
	if !exists {
		return nil, false
	}
	p, ok := v.(*auth.Profile)
	return p, ok && p != nil
}

// MustProfile returns the authenticated profile or panics. Only valid
// behind a Protected guard.
func MustProfile(c *gin.Context) *auth.Profile {
	p, ok := CurrentProfile(c)
	if !ok {
		panic("profile not found in context")
	}
	return p
}

// CurrentToken returns the bearer credential set by the guard.
func CurrentToken(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxKeyToken)
	if !exists {
		return "", false
	}
	tok, ok := v.(string)
	return tok, ok && tok != ""
}

// MustToken returns the bearer credential or panics. Only valid behind a
// Protected guard.
func MustToken(c *gin.Context) string {
	tok, ok := CurrentToken(c)
	if !ok {
		panic("token not found in context")
	}
	return tok
}

// CurrentSID returns the session id set by the guard.
func CurrentSID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxKeySID)
	if !exists {
		return "", false
	}
	sid, ok := v.(string)
	return sid, ok && sid != ""
}

// IsAuthenticated checks if the request passed a Protected guard.
func IsAuthenticated(c *gin.Context) bool {
	_, ok := CurrentProfile(c)
	return ok
}

// IsAdmin checks if the current profile is an admin (super admin included).
func IsAdmin(c *gin.Context) bool {
	p, ok := CurrentProfile(c)
	return ok && p.IsAdmin()
}
