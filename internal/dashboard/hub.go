package dashboard

import (
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"intraday-signals/internal/metrics"
)

var upgrader = websocket.Upgrader{
	CheckOrigin:       func(r *http.Request) bool { return true },
	EnableCompression: true,
}

// Hub manages WebSocket clients and fans every snapshot out to them.
// A client connecting after the first refresh receives the latest snapshot
// immediately.
type Hub struct {
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu      sync.RWMutex
	clients map[*Client]bool
	latest  []byte
}

// NewHub creates a hub. m and logger may be nil.
func NewHub(m *metrics.Metrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		metrics: m,
		logger:  logger,
		clients: make(map[*Client]bool),
	}
}

// Broadcast sends snap to every client and keeps it for late joiners.
// Slow clients whose queue is full miss the message; the next snapshot
// supersedes it anyway.
func (h *Hub) Broadcast(snap Snapshot) {
	env := snap.Envelope()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = env
	for c := range h.clients {
		select {
		case c.send <- env:
		default:
			h.logger.Debug("ws client queue full, snapshot dropped")
		}
	}
}

// ServeHTTP upgrades the request to a WebSocket and registers the client.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	conn.EnableWriteCompression(true)

	client := &Client{conn: conn, send: make(chan []byte, 16), hub: h}
	count := h.register(client)
	h.logger.Info("ws client connected", "clients", count, "remote", r.RemoteAddr)

	go client.writePump()
	go client.readPump()
}

// register adds c and queues the latest snapshot for it. Broadcast holds the
// same lock while fanning out, so c sees each snapshot exactly once.
func (h *Hub) register(c *Client) int {
	h.mu.Lock()
	h.clients[c] = true
	count := len(h.clients)
	if h.latest != nil {
		c.send <- h.latest
	}
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
	return count
}

// RemoveClient removes a client from the hub.
func (h *Hub) RemoveClient(c *Client) {
	h.mu.Lock()
	if !h.clients[c] {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c)
	count := len(h.clients)
	close(c.send)
	h.mu.Unlock()

	if h.metrics != nil {
		h.metrics.WSClients.Set(float64(count))
	}
	h.logger.Info("ws client disconnected", "clients", count)
}

// ClientCount returns the number of connected WS clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
