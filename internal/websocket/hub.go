// internal/websocket/hub.go
package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"gestock-gateway/internal/domain/auth"
	"gestock-gateway/internal/pkg/session"

	"go.uber.org/zap"
)

// SessionEvent is pushed to every connection of a session when its state
// changes, so open tabs can drop to the login screen the moment the session
// ends elsewhere.
type SessionEvent struct {
	Type          string        `json:"type"` // login, logout, expired
	Authenticated bool          `json:"authenticated"`
	User          *auth.Profile `json:"user,omitempty"`
}

type outbound struct {
	sid     string
	payload []byte
}

type Hub struct {
	// Registered clients by session id
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client

	events chan outbound

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan outbound, 256),
		logger:     logger,
	}
}

// Attach subscribes the hub to session transitions. The returned function
// detaches it again.
func (h *Hub) Attach(sessions *session.Manager) func() {
	return sessions.Subscribe(func(sid string, ev session.Event, s session.State) {
		event := SessionEvent{
			Type:          string(ev),
			Authenticated: s.Authenticated,
			User:          s.Profile,
		}
		payload, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to marshal session event", zap.Error(err))
			return
		}

		select {
		case h.events <- outbound{sid: sid, payload: payload}:
		default:
			h.logger.Warn("session event dropped, hub backlog full",
				zap.String("sid", sid),
			)
		}
	})
}

// Run owns the client registry until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case client := <-h.Register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)

		case ev := <-h.events:
			h.push(ev)

		case <-ctx.Done():
			return
		}
	}
}

// TotalClients returns the number of open connections.
func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	total := 0
	for _, conns := range h.clients {
		total += len(conns)
	}
	return total
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	conns, ok := h.clients[client.sid]
	if !ok {
		conns = make(map[*Client]bool)
		h.clients[client.sid] = conns
	}
	conns[client] = true
	h.mu.Unlock()

	h.logger.Info("websocket client connected", zap.String("sid", client.sid))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[client.sid]; ok {
		if _, ok := conns[client]; ok {
			delete(conns, client)
			close(client.send)
			if len(conns) == 0 {
				delete(h.clients, client.sid)
			}
		}
	}
	h.mu.Unlock()
}

func (h *Hub) push(ev outbound) {
	h.mu.RLock()
	conns := make([]*Client, 0, len(h.clients[ev.sid]))
	for client := range h.clients[ev.sid] {
		conns = append(conns, client)
	}
	h.mu.RUnlock()

	for _, client := range conns {
		select {
		case client.send <- ev.payload:
		default:
			// Slow consumer: drop the connection rather than block the hub.
			h.removeClient(client)
		}
	}
}
