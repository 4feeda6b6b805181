// Package hub is the live-update side channel: a registry of authenticated
// websocket connections keyed by user id. It never holds domain state.
package hub

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/Mizu-20/statify/internal/metrics"
)

const (
	EventConnectionEstablished = "connection_established"
	EventAuthSuccess           = "auth_success"
	EventAuthError             = "auth_error"
	EventError                 = "error"
	EventPong                  = "pong"
)

// Event is the JSON frame pushed to clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Conn is one registered connection's outbound queue.
type Conn struct {
	send chan []byte

	mu     sync.Mutex
	closed bool
	userID int64
}

func NewConn(buffer int) *Conn {
	return &Conn{send: make(chan []byte, buffer)}
}

// Messages is closed when the connection is unregistered.
func (c *Conn) Messages() <-chan []byte {
	return c.send
}

func (c *Conn) UserID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.userID
}

// enqueue never blocks. It reports false when the buffer is full or the
// connection is closed.
func (c *Conn) enqueue(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

type Hub struct {
	mu     sync.RWMutex
	conns  map[int64]map[*Conn]struct{}
	logger *zap.Logger
}

func New(logger *zap.Logger) *Hub {
	return &Hub{
		conns:  make(map[int64]map[*Conn]struct{}),
		logger: logger.With(zap.String("component", "hub")),
	}
}

// Register attaches c to userID. A connection belongs to one user at a time.
func (h *Hub) Register(userID int64, c *Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c.mu.Lock()
	prev := c.userID
	c.userID = userID
	c.mu.Unlock()

	if prev != 0 {
		h.removeLocked(prev, c)
	}
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*Conn]struct{})
	}
	if _, ok := h.conns[userID][c]; !ok {
		h.conns[userID][c] = struct{}{}
		if prev == 0 {
			metrics.LiveConnections.Inc()
		}
	}
}

// Unregister detaches c and closes its queue. Calling it twice is harmless.
func (h *Hub) Unregister(c *Conn) {
	h.mu.Lock()
	if h.removeLocked(c.UserID(), c) {
		metrics.LiveConnections.Dec()
	}
	h.mu.Unlock()

	c.close()
}

func (h *Hub) removeLocked(userID int64, c *Conn) bool {
	set, ok := h.conns[userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.conns, userID)
	}
	return true
}

// Notify pushes event to every connection of userID and returns how many
// accepted it. Connections whose buffer is full are dropped so one slow
// client cannot hold up anybody else.
func (h *Hub) Notify(userID int64, event Event) int {
	msg, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("marshal event", zap.String("type", event.Type), zap.Error(err))
		return 0
	}

	var delivered int
	var stale []*Conn

	h.mu.RLock()
	for c := range h.conns[userID] {
		if c.enqueue(msg) {
			delivered++
		} else {
			stale = append(stale, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range stale {
		metrics.LiveDropped.Inc()
		h.logger.Warn("dropping slow connection", zap.Int64("user", userID))
		h.Unregister(c)
	}
	return delivered
}

// Connections returns the number of live connections for userID.
func (h *Hub) Connections(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[userID])
}

// Send queues event on c directly, registered or not.
func Send(c *Conn, event Event) bool {
	msg, err := json.Marshal(event)
	if err != nil {
		return false
	}
	return c.enqueue(msg)
}
