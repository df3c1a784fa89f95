package testserver

import (
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mcoot/clickpot/internal/model"
)

// frame is one push event before it is encoded for a transport
type frame struct {
	name model.EventName
	data []byte
}

// subscriber is one connected push client, SSE or WebSocket
type subscriber struct {
	id          string
	transport   string
	send        chan frame
	connectedAt time.Time
}

// Hub fans push events out to every connected client and keeps them
// informed of the connected-user count
type Hub struct {
	clients map[*subscriber]bool
	mu      sync.RWMutex
	logger  *slog.Logger

	register   chan *subscriber
	unregister chan *subscriber
	broadcast  chan frame
	done       chan struct{}
	closeOnce  sync.Once
}

func newHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*subscriber]bool),
		logger:     logger.With(slog.String("component", "push_hub")),
		register:   make(chan *subscriber),
		unregister: make(chan *subscriber),
		broadcast:  make(chan frame, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop
func (h *Hub) Run() {
	for {
		select {
		case sub := <-h.register:
			h.mu.Lock()
			h.clients[sub] = true
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("push client registered",
				slog.String("client_id", sub.id),
				slog.String("transport", sub.transport),
				slog.Int("total_clients", count))
			h.fanOut(userCountFrame(count))

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub]; !ok {
				h.mu.Unlock()
				continue
			}
			delete(h.clients, sub)
			close(sub.send)
			count := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("push client unregistered",
				slog.String("client_id", sub.id),
				slog.Duration("connection_duration", time.Since(sub.connectedAt)),
				slog.Int("total_clients", count))
			h.fanOut(userCountFrame(count))

		case f := <-h.broadcast:
			h.fanOut(f)

		case <-h.done:
			h.mu.Lock()
			for sub := range h.clients {
				close(sub.send)
				delete(h.clients, sub)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) fanOut(f frame) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for sub := range h.clients {
		select {
		case sub.send <- f:
		default:
			h.logger.Warn("push message dropped - client buffer full",
				slog.String("client_id", sub.id))
		}
	}
}

// Register adds a client. It returns false once the hub is closed.
func (h *Hub) Register(sub *subscriber) bool {
	select {
	case h.register <- sub:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client
func (h *Hub) Unregister(sub *subscriber) {
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

// Publish encodes payload as JSON and sends it to all clients
func (h *Hub) Publish(name model.EventName, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("failed to encode push payload",
			slog.String("event", string(name)),
			slog.String("error", err.Error()))
		return
	}
	h.PublishRaw(name, data)
}

// PublishRaw sends data unmodified, which lets tests push malformed events
func (h *Hub) PublishRaw(name model.EventName, data []byte) {
	select {
	case h.broadcast <- frame{name: name, data: data}:
	case <-h.done:
	default:
		h.logger.Warn("push broadcast dropped - hub buffer full")
	}
}

// Close shuts down the hub and disconnects every client
func (h *Hub) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func userCountFrame(count int) frame {
	data, _ := json.Marshal(count)
	return frame{name: model.EventUserCount, data: data}
}

// formatSSEMessage formats an SSE message with event name and data.
// Multi-line data gets a "data: " prefix on each line.
func formatSSEMessage(eventName, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	for _, line := range strings.Split(data, "\n") {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}
