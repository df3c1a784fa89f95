package push

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/clickpot/internal/model"
)

func TestWebSocketURL(t *testing.T) {
	tests := []struct {
		base    string
		want    string
		wantErr bool
	}{
		{base: "http://localhost:5000", want: "ws://localhost:5000/api/ws"},
		{base: "https://example.com/", want: "wss://example.com/api/ws"},
		{base: "ws://host", want: "ws://host/api/ws"},
		{base: "ftp://host", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			got, err := websocketURL(tt.base)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWebSocketDialerReadsEnvelopes(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer func() { _ = conn.Close() }()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"userCountUpdate","data":5}`))
		_ = conn.WriteMessage(websocket.BinaryMessage, []byte{0x01})
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`not json`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"gameStateUpdate","data":{"globalClicks":8,"pot":1}}`))
		_, _, _ = conn.ReadMessage()
	}))
	defer srv.Close()

	d := &WebSocketDialer{BaseURL: srv.URL, Tokens: func() string { return "tok" }}
	ctx := context.Background()
	src, err := d.Dial(ctx)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()
	assert.Equal(t, "Bearer tok", gotAuth)

	ev, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EventUserCount, ev.Name)
	assert.Equal(t, "5", string(ev.Data))

	// Binary frames are skipped; garbage surfaces as a nameless event
	ev, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Empty(t, ev.Name)

	ev, err = src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.EventStateUpdate, ev.Name)
}
