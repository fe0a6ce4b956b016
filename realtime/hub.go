package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Message is the envelope every subscriber receives.
type Message struct {
	Type    string      `json:"type"`              // MATCH_UPDATED, STANDINGS_UPDATED
	Payload interface{} `json:"payload"`           // данные события
	RoomID  string      `json:"room_id,omitempty"` // комната турнира
}

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

// Hub раздаёт события по комнатам. Комната живёт, пока в ней есть клиенты.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	rooms      map[string]map[*Client]bool
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
	}
}

// Run processes registrations until ctx is cancelled, then closes every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for room, clients := range h.rooms {
				for client := range clients {
					client.close()
				}
				delete(h.rooms, room)
			}
			h.mu.Unlock()
			h.logger.Info("Realtime hub stopped")
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.rooms[client.room]; !ok {
				h.rooms[client.room] = make(map[*Client]bool)
			}
			h.rooms[client.room][client] = true
			size := len(h.rooms[client.room])
			h.mu.Unlock()
			h.logger.Debug("Client registered", slog.String("room", client.room), slog.Int("clients", size))

		case client := <-h.unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.room]; ok && clients[client] {
				client.close()
				delete(clients, client)
				if len(clients) == 0 {
					delete(h.rooms, client.room)
					h.logger.Debug("Room closed", slog.String("room", client.room))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Register blocks until the hub accepts the client. After Run returns the
// client is closed instead.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.close()
	}
}

func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// RoomSize reports the number of clients subscribed to a room.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}

// BroadcastToRoom отправляет событие всем клиентам комнаты. Медленный клиент с
// заполненным буфером пропускает сообщение.
func (h *Hub) BroadcastToRoom(roomID string, eventType string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.rooms[roomID]
	if !ok {
		return
	}

	data, err := json.Marshal(Message{Type: eventType, Payload: payload, RoomID: roomID})
	if err != nil {
		h.logger.Error("Failed to marshal realtime message",
			slog.String("room", roomID), slog.String("type", eventType), slog.Any("error", err))
		return
	}

	for client := range clients {
		if !client.trySend(data) {
			h.logger.Warn("Client send buffer full, message dropped", slog.String("room", roomID))
		}
	}
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	room   string
	closed bool
	mu     sync.Mutex
}

func NewClient(hub *Hub, conn *websocket.Conn, room string) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		room: room,
	}
}

func (c *Client) Room() string { return c.room }

func (c *Client) trySend(data []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return true
	}
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.send)
		c.closed = true
	}
}

// ReadPump drains incoming frames so pongs and close frames are processed.
// Client messages are ignored.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error { return c.conn.SetReadDeadline(time.Now().Add(pongWait)) })

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Warn("Websocket closed unexpectedly", slog.String("room", c.room), slog.Any("error", err))
			}
			return
		}
	}
}

// WritePump sends one text frame per message and pings the peer.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.hub.logger.Debug("Websocket write failed", slog.String("room", c.room), slog.Any("error", err))
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
