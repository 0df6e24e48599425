// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"gestock-gateway/internal/domain/auth"
	"gestock-gateway/internal/middleware"
	"gestock-gateway/internal/pkg/response"
	"gestock-gateway/internal/pkg/session"
	"gestock-gateway/internal/upstream"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

type AuthHandler struct {
	upstream     *upstream.Client
	sessions     *session.Manager
	cookieName   string
	cookieMaxAge int
	cookieSecure bool
	logger       *zap.Logger
}

func NewAuthHandler(up *upstream.Client, sessions *session.Manager, cookieName string, cookieMaxAge int, cookieSecure bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		upstream:     up,
		sessions:     sessions,
		cookieName:   cookieName,
		cookieMaxAge: cookieMaxAge,
		cookieSecure: cookieSecure,
		logger:       logger,
	}
}

// Login exchanges credentials with the backend and opens a gateway session.
// The session slots are written before the navigation response is sent.
func (h *AuthHandler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}
	req.IPAddress = c.ClientIP()
	req.UserAgent = c.GetHeader("User-Agent")

	data, err := h.upstream.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Error("login failed",
			zap.String("email", req.Email),
			zap.String("ip", req.IPAddress),
			zap.Error(err),
		)
		// Surfaced inline; the session stays unauthenticated, no retry.
		response.Error(c, http.StatusUnauthorized, "login failed", err)
		return
	}

	sid, _ := c.Cookie(h.cookieName)
	if sid == "" {
		sid = ulid.Make().String()
	}

	if err := h.sessions.Login(c.Request.Context(), sid, data.Token, &data.User); err != nil {
		h.logger.Error("failed to persist session",
			zap.String("sid", sid),
			zap.Error(err),
		)
		response.Error(c, http.StatusInternalServerError, "failed to open session", err)
		return
	}

	c.SetCookie(h.cookieName, sid, h.cookieMaxAge, "/", "", h.cookieSecure, true)

	h.logger.Info("user logged in",
		zap.Int64("user_id", data.User.ID),
		zap.String("email", data.User.Email),
		zap.String("role", string(data.User.Role)),
	)

	if response.WantsJSON(c) {
		response.Success(c, http.StatusOK, "login successful", gin.H{
			"user":     data.User,
			"redirect": middleware.LandingRoute,
		})
		return
	}
	response.Redirect(c, middleware.LandingRoute)
}

// Logout closes the gateway session and returns to the public entry route.
// Logging out an already closed session is a no-op with the same end state.
func (h *AuthHandler) Logout(c *gin.Context) {
	sid, _ := c.Cookie(h.cookieName)
	if sid != "" {
		if err := h.sessions.Logout(c.Request.Context(), sid); err != nil {
			h.logger.Error("logout failed", zap.String("sid", sid), zap.Error(err))
			response.Error(c, http.StatusInternalServerError, "logout failed", err)
			return
		}
		c.SetCookie(h.cookieName, "", -1, "/", "", h.cookieSecure, true)
	}

	if response.WantsJSON(c) {
		response.Success(c, http.StatusOK, "logout successful", nil)
		return
	}
	response.Redirect(c, middleware.PublicEntryRoute)
}

// Session reports the current session for the navigation shell.
func (h *AuthHandler) Session(c *gin.Context) {
	sid, _ := c.Cookie(h.cookieName)
	state := h.sessions.Hydrate(c.Request.Context(), sid)

	view := auth.SessionView{Authenticated: state.Authenticated, User: state.Profile}
	response.Success(c, http.StatusOK, "session", view)
}
