// internal/middleware/guard_middleware.go
package middleware

import (
	"net/url"

	"gestock-gateway/internal/domain/auth"
	"gestock-gateway/internal/guard"
	"gestock-gateway/internal/pkg/response"
	"gestock-gateway/internal/pkg/session"
	"gestock-gateway/internal/pkg/token"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Navigation targets the guard decisions resolve to.
const (
	PublicEntryRoute = "/"
	LandingRoute     = "/dashboard"
)

// Guard renders guard decisions as HTTP actions. Browsers get redirects,
// programmatic clients get 401/403 envelopes.
type Guard struct {
	sessions   *session.Manager
	tokens     *token.Validator
	cookieName string
	logger     *zap.Logger
}

func NewGuard(sessions *session.Manager, tokens *token.Validator, cookieName string, logger *zap.Logger) *Guard {
	return &Guard{
		sessions:   sessions,
		tokens:     tokens,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Protected gates a route on an authenticated, valid session. An optional
// role restricts access further; SUPERADMIN passes every restriction.
// Nothing is written to the response before the validity check completes.
func (g *Guard) Protected(required ...auth.Role) gin.HandlerFunc {
	var requiredRole auth.Role
	if len(required) > 0 {
		requiredRole = required[0]
	}

	return func(c *gin.Context) {
		sid, _ := c.Cookie(g.cookieName)
		state := g.sessions.Hydrate(c.Request.Context(), sid)

		tokenValid := false
		if state.Authenticated {
			tokenValid = g.tokens.Check(c.Request.Context(), sid, state.Token)
			if !tokenValid {
				// The validator may have cleared the session.
				state = g.sessions.GetState(sid)
			}
		}

		decision := guard.Evaluate(state, requiredRole, tokenValid)
		switch decision {
		case guard.Granted:
			c.Set(ctxKeySID, sid)
			c.Set(ctxKeyToken, state.Token)
			c.Set(ctxKeyProfile, state.Profile)
			c.Next()

		case guard.DeniedRole:
			// Authenticated but under-privileged: back to the landing
			// route, not to login.
			g.logger.Info("route denied by role",
				zap.String("path", c.Request.URL.Path),
				zap.String("role", string(state.Profile.Role)),
				zap.String("required", string(requiredRole)),
			)
			if response.WantsJSON(c) {
				response.Forbidden(c, "insufficient role")
				return
			}
			response.Redirect(c, LandingRoute)

		default: // DeniedUnauthenticated, Checking
			if response.WantsJSON(c) {
				response.Unauthorized(c, "authentication required")
				return
			}
			// Carry the attempted location for post-login return routing.
			response.Redirect(c, PublicEntryRoute+"?from="+url.QueryEscape(c.Request.URL.Path))
		}
	}
}

// Public gates a public-only route such as the login screen: an already
// authenticated session is sent to the landing route instead.
func (g *Guard) Public() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, _ := c.Cookie(g.cookieName)
		state := g.sessions.Hydrate(c.Request.Context(), sid)

		if guard.EvaluatePublic(state) == guard.PublicRedirect {
			response.Redirect(c, LandingRoute)
			return
		}
		c.Next()
	}
}
