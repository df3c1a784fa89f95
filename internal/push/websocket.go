package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
)

// WebSocketPath is where the service accepts push WebSocket connections
const WebSocketPath = "/api/ws"

// WebSocketDialer connects to the push WebSocket. Frames are JSON envelopes
// of the form {"type": ..., "data": ...}.
type WebSocketDialer struct {
	BaseURL string
	Tokens  TokenSource
	// Dialer defaults to websocket.DefaultDialer
	Dialer *websocket.Dialer
}

// Dial performs the WebSocket handshake
func (d *WebSocketDialer) Dial(ctx context.Context) (Source, error) {
	wsURL, err := websocketURL(d.BaseURL)
	if err != nil {
		return nil, err
	}

	header := http.Header{}
	if d.Tokens != nil {
		if token := d.Tokens(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake failed with status %d: %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial failed: %w", err)
	}

	return &wsSource{conn: conn}, nil
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(joinURL(base, WebSocketPath))
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	return u.String(), nil
}

type wsSource struct {
	conn *websocket.Conn
}

// Next reads one frame. The read itself is not context aware; Stream closes
// the connection when its context ends, which unblocks it.
func (s *wsSource) Next(ctx context.Context) (Event, error) {
	for {
		msgType, message, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return Event{}, ctx.Err()
			}
			return Event{}, fmt.Errorf("websocket read: %w", err)
		}
		if msgType != websocket.TextMessage {
			continue
		}

		var ev Event
		if err := json.Unmarshal(message, &ev); err != nil || ev.Name == "" {
			return Event{Data: message}, nil
		}
		return ev, nil
	}
}

func (s *wsSource) Close() error {
	_ = s.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	return s.conn.Close()
}
