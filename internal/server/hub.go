package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufSize is the per-client outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin checks are left to the reverse proxy.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Event names sent over the progress socket.
const (
	EventProgress = "progress"
	EventComplete = "complete"
)

// Message is the JSON envelope sent to progress clients.
type Message struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

// ProgressHub fans analysis events out to the WebSocket clients of each
// session.
//
// Design decision: any request handler may publish, so channel sends and
// channel closes are serialized through mu. Publish sends under the read
// lock; unregister and closeAll close under the write lock.
type ProgressHub struct {
	mu sync.RWMutex

	// clients maps a session ID to its connected clients.
	clients map[string]map[*client]struct{}
}

// client is one WebSocket connection.
type client struct {
	conn *websocket.Conn

	// send queues encoded messages for writePump. It is closed exactly once,
	// by the hub, when the client is removed.
	send chan []byte
}

// NewProgressHub creates an empty hub.
func NewProgressHub() *ProgressHub {
	return &ProgressHub{clients: make(map[string]map[*client]struct{})}
}

// Run blocks until ctx is cancelled, then closes every connection.
func (h *ProgressHub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// Serve upgrades the request and streams events for sessionID until the
// connection closes.
func (h *ProgressHub) Serve(w http.ResponseWriter, r *http.Request, sessionID string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufSize),
	}
	h.register(sessionID, c)
	defer h.unregister(sessionID, c)

	go c.writePump()
	c.readPump()
}

// Publish sends an event to every client of sessionID. Clients whose
// buffer is full are disconnected.
//
// Sends happen under the read lock: unregister and closeAll close client
// channels under the write lock, so a channel is never closed mid-send. The
// sends are non-blocking, so holding the lock cannot stall other publishers.
func (h *ProgressHub) Publish(sessionID, event string, data any) {
	msg, err := json.Marshal(Message{Event: event, Data: data})
	if err != nil {
		return
	}

	var slow []*client
	h.mu.RLock()
	for c := range h.clients[sessionID] {
		select {
		case c.send <- msg:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.unregister(sessionID, c)
	}
}

// Count returns the number of connected clients across all sessions.
func (h *ProgressHub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

func (h *ProgressHub) register(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[sessionID]
	if !ok {
		set = make(map[*client]struct{})
		h.clients[sessionID] = set
	}
	set[c] = struct{}{}
}

func (h *ProgressHub) unregister(sessionID string, c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[sessionID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, sessionID)
	}
}

func (h *ProgressHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, set := range h.clients {
		for c := range set {
			close(c.send)
		}
		delete(h.clients, id)
	}
}

// writePump forwards queued messages and sends periodic pings.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)) //nolint:errcheck
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles control frames and detects disconnects.
func (c *client) readPump() {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait)) //nolint:errcheck
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
