package ws

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var (
	ErrConnectionNotFound = errors.New("connection not found")
	ErrConnectionClosed   = errors.New("connection closed")
	ErrSendQueueFull      = errors.New("send queue full")
)

// Upgrader handles WebSocket upgrades for the progress and leaderboard
// feeds.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict origins once the web client's domain is fixed
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub tracks one WebSocket connection per progress document key and fans
// out messages. A reconnect replaces the previous connection.
type Hub struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	logger      zerolog.Logger
}

// NewHub creates an empty hub.
func NewHub(logger zerolog.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		logger:      logger.With().Str("component", "ws_hub").Logger(),
	}
}

// Register adds a connection for a user key, closing any previous one.
func (h *Hub) Register(key string, conn *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, exists := h.connections[key]; exists {
		old.Close()
	}
	h.connections[key] = conn
	h.logger.Info().Str("key", key).Msg("connection registered")
}

// Unregister removes and closes a user's connection.
func (h *Hub) Unregister(key string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conn, exists := h.connections[key]; exists {
		conn.Close()
		delete(h.connections, key)
		h.logger.Info().Str("key", key).Msg("connection unregistered")
	}
}

// SendToUser delivers a message to one user's connection.
func (h *Hub) SendToUser(key string, msg Message) error {
	h.mu.RLock()
	conn, exists := h.connections[key]
	h.mu.RUnlock()

	if !exists {
		return ErrConnectionNotFound
	}
	return conn.Send(msg)
}

// BroadcastAll sends a message to every connected user.
func (h *Hub) BroadcastAll(msg Message) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	var firstErr error
	for key, conn := range h.connections {
		if err := conn.Send(msg); err != nil && firstErr == nil {
			firstErr = err
			h.logger.Warn().Err(err).Str("key", key).Msg("broadcast send failed")
		}
	}
	return firstErr
}

// Connection wraps a WebSocket connection with a buffered send queue so a
// slow client cannot block publishers.
type Connection struct {
	conn   *websocket.Conn
	sendCh chan Message
	mu     sync.Mutex
	closed bool
	logger zerolog.Logger
}

// NewConnection wraps a WebSocket connection.
func NewConnection(conn *websocket.Conn, logger zerolog.Logger) *Connection {
	return &Connection{
		conn:   conn,
		sendCh: make(chan Message, 64),
		logger: logger,
	}
}

// Send queues a message for delivery.
func (c *Connection) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}
	select {
	case c.sendCh <- msg:
		return nil
	default:
		return ErrSendQueueFull
	}
}

// Close shuts down the connection. Idempotent.
func (c *Connection) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.sendCh)
	c.conn.Close()
}

// WritePump drains the send queue onto the socket until Close.
func (c *Connection) WritePump() {
	defer c.conn.Close()
	for msg := range c.sendCh {
		if err := c.conn.WriteJSON(msg); err != nil {
			c.logger.Warn().Err(err).Msg("ws write failed")
			return
		}
	}
}
