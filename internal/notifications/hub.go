package notifications

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"devgram/internal/middleware"
	"devgram/internal/models"
	"devgram/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	maxConnsPerUser = 12
	maxTotalConns   = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
)

// Hub maps usernames to their open WebSocket clients on this instance.
type Hub struct {
	mu         sync.RWMutex
	conns      map[string]map[*Client]struct{}
	totalConns int
	logger     *slog.Logger
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{
		conns:  make(map[string]map[*Client]struct{}),
		logger: middleware.Logger.With(slog.String("component", "hub")),
	}
}

// Name identifies the hub in metrics.
func (h *Hub) Name() string { return "notifications" }

// Register adds a connection for username. It fails once either connection
// limit is reached.
func (h *Hub) Register(username string, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.totalConns >= maxTotalConns {
		return nil, ErrServerConnLimit
	}
	m, ok := h.conns[username]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[username] = m
	}
	if len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := NewClient(h, conn, username)
	m[client] = struct{}{}
	h.totalConns++
	observability.ActiveWebSockets.Inc()
	return client, nil
}

// UnregisterClient removes a client. Removing an unknown client is a no-op.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	m, ok := h.conns[client.Username]
	if !ok {
		return
	}
	if _, exists := m[client]; exists {
		delete(m, client)
		h.totalConns--
		observability.ActiveWebSockets.Dec()
	}
	if len(m) == 0 {
		delete(h.conns, client.Username)
	}
}

// Connections returns how many clients username has open.
func (h *Hub) Connections(username string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[username])
}

// Broadcast sends message to all connections of username.
func (h *Hub) Broadcast(username string, message []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.conns[username] {
		c.TrySend(message)
	}
}

// Deliver encodes n as a frame and sends it to its recipient's connections.
func (h *Hub) Deliver(n *models.Notification) error {
	frame, err := EncodeFrame(n)
	if err != nil {
		return err
	}
	h.Broadcast(n.Recipient, frame)
	return nil
}

// StartWiring routes every Redis user-channel payload to the matching
// connections on this instance.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartPatternSubscriber(ctx, func(channel, payload string) {
		username, ok := UsernameFromChannel(channel)
		if !ok {
			h.logger.Warn("invalid notification channel", slog.String("channel", channel))
			return
		}
		h.Broadcast(username, []byte(payload))
	})
}

// Shutdown ends every client's send queue; each WritePump then sends a
// going-away frame and closes its connection.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.conns {
		for client := range clients {
			client.Close()
		}
		observability.ActiveWebSockets.Sub(float64(len(clients)))
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.totalConns = 0
	return nil
}
