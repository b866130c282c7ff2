// internal/socket/hub.go
package socket

import (
	"errors"
	"log"
	"sync"
	"time"

	"recycle-pickup-api-server/internal/models"

	"github.com/gorilla/websocket"
)

// WriteWait bounds every write to a client connection.
const WriteWait = 10 * time.Second

// Messages queued per client before new ones are dropped.
const sendQueueSize = 32

// ErrQueueFull is returned by Send when the user's connection is not
// draining its queue.
var ErrQueueFull = errors.New("websocket send queue is full")

// Conn is the part of *websocket.Conn the hub writes through.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// client owns its connection's write side: a single writer goroutine drains
// send, so callers of Send and Broadcast never wait on the network.
type client struct {
	id   string
	conn Conn
	role models.AccountType
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newClient(id string, role models.AccountType, conn Conn) *client {
	c := &client{
		id:   id,
		conn: conn,
		role: role,
		send: make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case message := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("WebSocket write to %s failed: %v", c.id, err)
				// Closing makes the read loop exit and unregister.
				c.conn.Close()
				c.stop()
				return
			}
		}
	}
}

func (c *client) enqueue(message []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- message:
		return true
	default:
		return false
	}
}

func (c *client) stop() {
	c.once.Do(func() { close(c.done) })
}

// Hub keeps one live connection per user, tagged with the user's role.
type Hub struct {
	clients map[string]*client
	mu      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*client),
	}
}

// Register replaces any previous connection of userID.
func (h *Hub) Register(userID string, role models.AccountType, conn Conn) {
	h.mu.Lock()
	old := h.clients[userID]
	h.clients[userID] = newClient(userID, role, conn)
	h.mu.Unlock()

	if old != nil {
		old.stop()
		old.conn.Close()
	}
	log.Printf("WebSocket client registered: %s (%s)", userID, role)
}

// Unregister removes userID only while conn is still its registered
// connection, so a stale read loop cannot drop a newer connection.
func (h *Hub) Unregister(userID string, conn Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[userID]; ok && c.conn == conn {
		c.stop()
		delete(h.clients, userID)
		log.Printf("WebSocket client unregistered: %s", userID)
	}
}

// Send queues message for one user. An offline user is not an error.
func (h *Hub) Send(userID string, message []byte) error {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok {
		log.Printf("WebSocket client not found, could not send message: %s", userID)
		return nil
	}
	if !c.enqueue(message) {
		return ErrQueueFull
	}
	return nil
}

// Broadcast queues message for every connected user with role and returns
// how many accepted it.
func (h *Hub) Broadcast(role models.AccountType, message []byte) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	sent := 0
	for id, c := range h.clients {
		if c.role != role {
			continue
		}
		if !c.enqueue(message) {
			log.Printf("WebSocket broadcast to %s dropped: queue full", id)
			continue
		}
		sent++
	}
	return sent
}

// Online reports whether userID has a registered connection.
func (h *Hub) Online(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
