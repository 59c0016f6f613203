package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"srefhub/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

// ErrConnectionLimit is returned by Register when a limit is reached.
var ErrConnectionLimit = errors.New("connection limit reached")

// Hub maps userID -> open notification streams on this instance.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[uint]map[*Client]struct{})}
}

// Register adds a connection for userID.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("hub is shut down")
	}
	if h.totalConns >= maxTotalConns {
		return nil, fmt.Errorf("server %w", ErrConnectionLimit)
	}
	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, fmt.Errorf("user %w", ErrConnectionLimit)
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()
	return client, nil
}

// UnregisterClient removes client and closes its send channel. Safe to call twice.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.UserID]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	client.closeSend(websocket.CloseNormalClosure, "")
	h.totalConns--
	observability.WebSocketConnectionsTotal.Dec()
	if len(m) == 0 {
		delete(h.conns, client.UserID)
	}
}

// Broadcast sends message to every connection of userID and returns how
// many accepted it.
func (h *Hub) Broadcast(userID uint, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	sent := 0
	for c := range h.conns[userID] {
		if c.TrySend(message) {
			sent++
		}
	}
	return sent
}

// Connections reports the number of open streams for userID.
func (h *Hub) Connections(userID uint) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// StartWiring forwards every user-channel message from n to local connections.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		var userID uint
		if _, err := fmt.Sscanf(channel, "notifications:user:%d", &userID); err != nil {
			slog.Default().Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(userID, []byte(payload))
	})
}

// Shutdown tells every connection to close with 1001 and forgets them.
// The writers send the close frames; new registrations are refused.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	for _, userConns := range h.conns {
		for client := range userConns {
			if client.closeSend(websocket.CloseGoingAway, "Server shutting down") {
				observability.WebSocketConnectionsTotal.Dec()
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
