package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// SettlementEvent is pushed to connected admin dashboards whenever a
// webhook settles money: rent marked paid, service activated, payment failed.
type SettlementEvent struct {
	Kind          string    `json:"kind"`
	LeaseID       int       `json:"lease_id,omitempty"`
	TransactionID int       `json:"transaction_id,omitempty"`
	Amount        int64     `json:"amount,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	At            time.Time `json:"at"`
}

const (
	writeWait = 10 * time.Second
	pingWait  = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser origin is enforced by the CORS layer; the JWT check in the
	// handler is what actually gates access here.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// FeedHub maintains the set of connected dashboard clients and fans
// settlement events out to them. Slow clients are dropped, not waited on.
type FeedHub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
}

func NewFeedHub() *FeedHub {
	return &FeedHub{clients: make(map[*client]struct{})}
}

// Publish broadcasts an event to all connected clients. Never blocks.
func (h *FeedHub) Publish(ev SettlementEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Buffer full. The write pump will notice the closed conn.
		}
	}
}

func (h *FeedHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP upgrades the connection and attaches it to the hub. Auth
// middleware runs before this, so anyone here is already an admin.
func (h *FeedHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Feed] upgrade failed: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 16)}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	go h.writePump(c)
	go h.readPump(c)
}

func (h *FeedHub) writePump(c *client) {
	ticker := time.NewTicker(pingWait)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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

// readPump drains the connection so pings/pongs and close frames are
// processed, and unregisters the client when the peer goes away.
func (h *FeedHub) readPump(c *client) {
	defer func() {
		h.mu.Lock()
		delete(h.clients, c)
		h.mu.Unlock()
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
