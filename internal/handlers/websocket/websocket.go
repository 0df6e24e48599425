// internal/handlers/websocket/websocket.go
package websocket

import (
	"net/http"

	"gestock-gateway/internal/middleware"
	"gestock-gateway/internal/pkg/response"
	ws "gestock-gateway/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the dashboard origin once it is configurable
		return true
	},
}

type WebSocketHandler struct {
	hub    *ws.Hub
	logger *zap.Logger
}

func NewWebSocketHandler(hub *ws.Hub, logger *zap.Logger) *WebSocketHandler {
	return &WebSocketHandler{hub: hub, logger: logger}
}

// HandleConnection upgrades a guarded request to a session event stream.
// Runs behind the Protected guard, so the session is already resolved.
func (h *WebSocketHandler) HandleConnection(c *gin.Context) {
	sid, ok := middleware.CurrentSID(c)
	if !ok {
		response.Unauthorized(c, "missing session")
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed",
			zap.Error(err),
			zap.String("ip", c.ClientIP()),
		)
		return
	}

	client := ws.NewClient(h.hub, conn, sid)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
