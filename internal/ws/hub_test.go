package ws_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wsHub "vasafe/backend/internal/ws"
)

// startHub starts a test HTTP server with the hub as its handler.
func startHub(t *testing.T) (wsURL string, hub *wsHub.Hub) {
	t.Helper()

	hub = wsHub.New()
	ctx, cancel := context.WithCancel(context.Background())

	srv := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	go hub.Run(ctx)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return "ws" + strings.TrimPrefix(srv.URL, "http"), hub
}

func connect(t *testing.T, wsURL string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesClient(t *testing.T) {
	wsURL, hub := startHub(t)
	conn := connect(t, wsURL)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, time.Millisecond)

	hub.Broadcast([]byte(`{"lote":"box_01","alerta":"EVENTO_CRITICO"}`))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &msg))
	assert.Equal(t, "alerta", msg.Event)
	assert.Contains(t, string(msg.Data), "box_01")
}

func TestHub_BroadcastReachesAllClients(t *testing.T) {
	wsURL, hub := startHub(t)
	first := connect(t, wsURL)
	second := connect(t, wsURL)

	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, time.Millisecond)

	hub.Broadcast([]byte(`{"lote":"box_02"}`))

	for _, conn := range []*websocket.Conn{first, second} {
		conn.SetReadDeadline(time.Now().Add(time.Second))
		_, frame, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Contains(t, string(frame), "box_02")
	}
}

func TestHub_ClientDisconnectUpdatesCount(t *testing.T) {
	wsURL, hub := startHub(t)
	conn := connect(t, wsURL)

	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return hub.Count() == 0 }, time.Second, time.Millisecond)
}
