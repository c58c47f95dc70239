// Package gateway exposes the advisory session over WebSocket. The
// perception client pushes event envelopes in; every connected client
// (perception side and observer dashboards alike) receives the advice
// stream back.
package gateway

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"blackjack-lite/internal/auth"
	"blackjack-lite/internal/session"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Connection represents one WebSocket client.
type Connection struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	Gateway  *Gateway
	LastPing time.Time
}

// Gateway manages WebSocket connections around a single session.
type Gateway struct {
	mu          sync.RWMutex
	connections map[string]*Connection
	nextConnID  uint64

	guard   *auth.Guard
	session *session.Session
}

func New(guard *auth.Guard, sess *session.Session) *Gateway {
	return &Gateway{
		connections: make(map[string]*Connection),
		guard:       guard,
		session:     sess,
	}
}

// HandleWebSocket authenticates, upgrades and starts the pumps.
func (g *Gateway) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if !g.guard.Resolve(bearerToken(r)) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[Gateway] upgrade error: %v", err)
		return
	}

	g.mu.Lock()
	g.nextConnID++
	c := &Connection{
		ID:       fmt.Sprintf("conn_%d", g.nextConnID),
		Conn:     conn,
		Send:     make(chan []byte, 256),
		Gateway:  g,
		LastPing: time.Now(),
	}
	g.connections[c.ID] = c
	total := len(g.connections)
	g.mu.Unlock()

	log.Printf("[Gateway] client connected: %s, total: %d", c.ID, total)

	go c.readPump()
	go c.writePump()
}

func (c *Connection) readPump() {
	defer func() {
		c.Gateway.removeConnection(c)
		c.Conn.Close()
	}()

	c.Conn.SetReadLimit(65536)
	c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		c.LastPing = time.Now()
		return nil
	})

	for {
		messageType, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[Gateway] read error: %v", err)
			}
			break
		}

		if messageType == websocket.TextMessage {
			if err := c.Gateway.session.SubmitRaw(message); err != nil {
				log.Printf("[Gateway] submit failed: %v", err)
				return
			}
		}
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (g *Gateway) removeConnection(c *Connection) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.connections, c.ID)
	log.Printf("[Gateway] client disconnected: %s, total: %d", c.ID, len(g.connections))
}

// Broadcast fans a message out to all connections. Slow consumers
// lose messages instead of backpressuring the session.
func (g *Gateway) Broadcast(message []byte) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, c := range g.connections {
		select {
		case c.Send <- message:
		default:
		}
	}
}

func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); len(h) > 7 && h[:7] == "Bearer " {
		return h[7:]
	}
	return r.URL.Query().Get("token")
}
