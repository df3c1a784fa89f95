package testserver

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 256
)

func newSubscriber(transport string) *subscriber {
	return &subscriber{
		id:          uuid.NewString(),
		transport:   transport,
		send:        make(chan frame, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// handleSSE streams push events as server-sent events
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	sub := newSubscriber("sse")
	if !s.hub.Register(sub) {
		http.Error(w, "Shutting down", http.StatusServiceUnavailable)
		return
	}
	defer s.hub.Unregister(sub)

	_, _ = w.Write([]byte("event: connected\ndata: {\"status\":\"connected\"}\n\n"))
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case f, ok := <-sub.send:
			if !ok {
				return
			}
			if _, err := w.Write(formatSSEMessage(string(f.name), string(f.data))); err != nil {
				return
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// envelope is the WebSocket framing of a push event
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// handleWebSocket upgrades the connection and streams push events as JSON
// text frames
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("failed to upgrade websocket connection", slog.String("error", err.Error()))
		return
	}

	sub := newSubscriber("websocket")
	if !s.hub.Register(sub) {
		_ = conn.Close()
		return
	}

	go s.readPump(conn, sub)
	s.writePump(conn, sub)
}

// readPump discards client frames and unregisters on disconnect
func (s *Server) readPump(conn *websocket.Conn, sub *subscriber) {
	defer s.hub.Unregister(sub)
	conn.SetReadLimit(1024)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, sub *subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case f, ok := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			data := f.data
			if !json.Valid(data) {
				// Raw frames that are not JSON are sent as-is
				if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
					return
				}
				continue
			}
			if err := conn.WriteJSON(envelope{Type: string(f.name), Data: data}); err != nil {
				return
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
