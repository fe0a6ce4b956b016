package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

func dialRoom(t *testing.T, hub *Hub, room string) *websocket.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		client := NewClient(hub, conn, room)
		hub.Register(client)
		go client.WritePump()
		go client.ReadPump()
	}))
	t.Cleanup(srv.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastToRoom(t *testing.T) {
	hub := startHub(t)
	a := dialRoom(t, hub, "tournament_1")
	b := dialRoom(t, hub, "tournament_2")

	require.Eventually(t, func() bool {
		return hub.RoomSize("tournament_1") == 1 && hub.RoomSize("tournament_2") == 1
	}, time.Second, 10*time.Millisecond)

	hub.BroadcastToRoom("tournament_1", "MATCH_UPDATED", map[string]int{"match_id": 7})
	hub.BroadcastToRoom("tournament_1", "STANDINGS_UPDATED", []int{1, 2})

	var msg struct {
		Type    string          `json:"type"`
		RoomID  string          `json:"room_id"`
		Payload json.RawMessage `json:"payload"`
	}
	a.SetReadDeadline(time.Now().Add(time.Second))
	require.NoError(t, a.ReadJSON(&msg))
	assert.Equal(t, "MATCH_UPDATED", msg.Type)
	assert.Equal(t, "tournament_1", msg.RoomID)
	assert.JSONEq(t, `{"match_id":7}`, string(msg.Payload))

	require.NoError(t, a.ReadJSON(&msg))
	assert.Equal(t, "STANDINGS_UPDATED", msg.Type)

	b.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := b.ReadMessage()
	assert.Error(t, err, "other rooms receive nothing")
}

func TestRoomClosesWhenLastClientLeaves(t *testing.T) {
	hub := startHub(t)
	conn := dialRoom(t, hub, "tournament_3")
	require.Eventually(t, func() bool { return hub.RoomSize("tournament_3") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.RoomSize("tournament_3") == 0 }, time.Second, 10*time.Millisecond)

	// Broadcasting to an empty room is a no-op.
	hub.BroadcastToRoom("tournament_3", "MATCH_UPDATED", nil)
}

func TestRegisterAfterStop(t *testing.T) {
	hub := NewHub(slog.New(slog.NewJSONHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	client := &Client{hub: hub, send: make(chan []byte, 1), room: "tournament_4"}
	hub.Register(client)
	assert.True(t, client.closed)
	assert.True(t, client.trySend([]byte("x")), "closed clients swallow messages")
}
