// internal/app/router.go
package app

import (
	"gestock-gateway/internal/domain/auth"
	authHandler "gestock-gateway/internal/handlers/auth"
	pagesHandler "gestock-gateway/internal/handlers/pages"
	wsHandler "gestock-gateway/internal/handlers/websocket"
	"gestock-gateway/internal/middleware"
	"gestock-gateway/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handlers struct {
	AuthHandler  *authHandler.AuthHandler
	PagesHandler *pagesHandler.PagesHandler
	WSHandler    *wsHandler.WebSocketHandler
	Guard        *middleware.Guard
}

// SetupRouter declares the dashboard route surface. Role requirements are
// declared here, per route, and are immutable for the process lifetime.
func SetupRouter(r *gin.Engine, logger *zap.Logger, h *Handlers) {
	g := h.Guard

	// ==================== Health Check ====================
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "version": "1.0.0"})
	})

	// ==================== Session Events ====================
	r.GET("/ws", g.Protected(), h.WSHandler.HandleConnection)

	// ==================== Auth ====================
	r.POST("/auth/login", h.AuthHandler.Login)
	r.POST("/auth/logout", h.AuthHandler.Logout)
	r.GET("/auth/session", h.AuthHandler.Session)

	// ==================== Public Entry ====================
	r.GET("/", g.Public(), h.PagesHandler.Home)

	// ==================== Dashboard ====================
	r.GET("/dashboard", g.Protected(), h.PagesHandler.Dashboard)

	// ==================== Stock ====================
	r.GET("/stock", g.Protected(), h.PagesHandler.Stock)
	r.GET("/stock/:id", g.Protected(), h.PagesHandler.StockDetail)
	r.POST("/stock/add", g.Protected(auth.RoleAdmin), h.PagesHandler.StockAdd)
	r.PUT("/stock/update/:id", g.Protected(auth.RoleAdmin), h.PagesHandler.StockUpdate)

	// ==================== Ventes ====================
	r.GET("/vente", g.Protected(), h.PagesHandler.Vente)

	// ==================== Finance ====================
	r.GET("/finance", g.Protected(), h.PagesHandler.Finance)
	r.GET("/report", g.Protected(), h.PagesHandler.Report)

	// ==================== RH ====================
	r.GET("/rh", g.Protected(auth.RoleAdmin), h.PagesHandler.RH)
	r.GET("/rh/:id", g.Protected(), h.PagesHandler.RHDetail)
	r.POST("/rh/add", g.Protected(auth.RoleAdmin), h.PagesHandler.RHAdd)
	r.PUT("/rh/update/:id", g.Protected(auth.RoleAdmin), h.PagesHandler.RHUpdate)

	// ==================== Fallback ====================
	// Any unknown path goes back to the public entry route.
	r.NoRoute(func(c *gin.Context) {
		logger.Debug("unknown route", zap.String("path", c.Request.URL.Path))
		response.Redirect(c, middleware.PublicEntryRoute)
	})
}
