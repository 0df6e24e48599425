// internal/handlers/pages/pages_handler.go

// Package pages exposes the dashboard's guarded data routes. Each route is a
// thin authenticated relay to the backend; the guard middleware has already
// resolved access before any of these run.
package pages

import (
	"io"
	"net/http"

	"gestock-gateway/internal/middleware"
	"gestock-gateway/internal/pkg/response"
	"gestock-gateway/internal/upstream"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PagesHandler struct {
	upstream *upstream.Client
	logger   *zap.Logger
}

func NewPagesHandler(up *upstream.Client, logger *zap.Logger) *PagesHandler {
	return &PagesHandler{upstream: up, logger: logger}
}

// Home is the public entry route: the login shell. The attempted location,
// if any, is echoed back for post-login return routing.
func (h *PagesHandler) Home(c *gin.Context) {
	response.Success(c, http.StatusOK, "login required", gin.H{
		"app":  "gestock",
		"from": c.Query("from"),
	})
}

// Dashboard is the authenticated landing route.
func (h *PagesHandler) Dashboard(c *gin.Context) {
	h.relay(c, http.MethodGet, "/finance/general", nil)
}

// ---- Stock ----

func (h *PagesHandler) Stock(c *gin.Context) {
	h.relay(c, http.MethodGet, "/stock/products", nil)
}

func (h *PagesHandler) StockDetail(c *gin.Context) {
	h.relay(c, http.MethodGet, "/stock/products/"+c.Param("id"), nil)
}

func (h *PagesHandler) StockAdd(c *gin.Context) {
	h.relay(c, http.MethodPost, "/stock/products", c.Request.Body)
}

func (h *PagesHandler) StockUpdate(c *gin.Context) {
	h.relay(c, http.MethodPut, "/stock/products/"+c.Param("id"), c.Request.Body)
}

// ---- Ventes ----

func (h *PagesHandler) Vente(c *gin.Context) {
	h.relay(c, http.MethodGet, "/vente/commande", nil)
}

// ---- Finance ----

func (h *PagesHandler) Finance(c *gin.Context) {
	h.relay(c, http.MethodGet, "/finance/compte-resultat", nil)
}

func (h *PagesHandler) Report(c *gin.Context) {
	h.relay(c, http.MethodGet, "/transactions/all", nil)
}

// ---- RH ----

func (h *PagesHandler) RH(c *gin.Context) {
	h.relay(c, http.MethodGet, "/rh/staff/", nil)
}

func (h *PagesHandler) RHDetail(c *gin.Context) {
	h.relay(c, http.MethodGet, "/rh/staff/"+c.Param("id"), nil)
}

func (h *PagesHandler) RHAdd(c *gin.Context) {
	h.relay(c, http.MethodPost, "/rh/staff/", c.Request.Body)
}

func (h *PagesHandler) RHUpdate(c *gin.Context) {
	h.relay(c, http.MethodPut, "/rh/staff/"+c.Param("id"), c.Request.Body)
}

// relay forwards the request to the backend with the session's credential
// and streams the backend response through unchanged.
func (h *PagesHandler) relay(c *gin.Context, method, path string, body io.Reader) {
	credential := middleware.MustToken(c)

	resp, err := h.upstream.Proxy(c.Request.Context(), credential, method, path, body)
	if err != nil {
		response.Error(c, http.StatusBadGateway, "backend unreachable", err)
		return
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/json"
	}

	c.DataFromReader(resp.StatusCode, resp.ContentLength, contentType, resp.Body, nil)
}
