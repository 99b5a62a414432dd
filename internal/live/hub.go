// Package live fans recorded detections out to connected WebSocket
// dashboard clients.
package live

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jonesrussell/rage-tracker/internal/domain"
	"github.com/jonesrussell/rage-tracker/internal/logger"
)

const (
	// writeWait is the deadline for a single websocket write.
	writeWait = 5 * time.Second

	// pongWait is how long a client may stay silent before its reads fail.
	pongWait = 30 * time.Second

	// pingPeriod is how often the write pump pings; must be under pongWait.
	pingPeriod = 20 * time.Second

	// clientSendBuf is the per-client outbound queue size. A client whose
	// queue is full is considered slow and gets disconnected.
	clientSendBuf = 32

	// broadcastBuf is the hub's inbound frame queue size.
	broadcastBuf = 128

	// registerBuf sizes the register/unregister channels.
	registerBuf = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// client is one connected dashboard socket with its outbound queue.
type client struct {
	hub        *Hub
	conn       *websocket.Conn
	send       chan []byte
	remoteAddr string
	closeOnce  sync.Once
}

// Hub tracks connected clients and fans detection frames out to them.
type Hub struct {
	log logger.Logger

	broadcast  chan []byte
	register   chan *client
	unregister chan *client

	mu      sync.Mutex
	clients map[*client]struct{}
}

// NewHub constructs a hub. Call Run to start it.
func NewHub(log logger.Logger) *Hub {
	return &Hub{
		log:        log,
		broadcast:  make(chan []byte, broadcastBuf),
		register:   make(chan *client, registerBuf),
		unregister: make(chan *client, registerBuf),
		clients:    make(map[*client]struct{}),
	}
}

// Run processes hub events until done is closed, then disconnects every
// client.
func (h *Hub) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			h.closeAll()
			return

		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.log.Debug("WebSocket client connected",
				logger.String("remote_addr", c.remoteAddr),
				logger.Int("clients", n),
			)

		case c := <-h.unregister:
			h.remove(c, "disconnect")

		case msg := <-h.broadcast:
			// Collect slow clients while holding the lock, remove after.
			var slow []*client

			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					slow = append(slow, c)
				}
			}
			h.mu.Unlock()

			for _, c := range slow {
				h.remove(c, "slow_client")
			}
		}
	}
}

// Broadcast enqueues a detection frame for every connected client.
// It never blocks; when the hub queue is full the frame is dropped.
func (h *Hub) Broadcast(d domain.Detection) {
	payload, err := json.Marshal(d)
	if err != nil {
		h.log.Error("Failed to marshal detection frame", logger.Error(err))
		return
	}

	select {
	case h.broadcast <- payload:
	default:
		h.log.Warn("Broadcast queue full, dropping detection frame",
			logger.Int("bytes", len(payload)),
		)
	}
}

// Clients reports the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// HandleConnection upgrades an HTTP request to a websocket and registers
// the client with the hub.
func (h *Hub) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("WebSocket upgrade failed", logger.Error(err))
		return
	}

	c := &client{
		hub:        h,
		conn:       conn,
		send:       make(chan []byte, clientSendBuf),
		remoteAddr: r.RemoteAddr,
	}

	h.register <- c

	// The pumps outlive this handler. net/http cancels the request context
	// on return, so connection lifetime is managed by the hub and by
	// read/write errors instead.
	go c.writePump()
	go c.readPump()
}

func (h *Hub) remove(c *client, reason string) {
	h.mu.Lock()
	_, ok := h.clients[c]
	if ok {
		delete(h.clients, c)
	}
	n := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return
	}

	if c.conn != nil {
		_ = c.conn.Close()
	}
	// Closing send signals the write pump to exit.
	c.closeOnce.Do(func() { close(c.send) })

	h.log.Debug("WebSocket client disconnected",
		logger.String("remote_addr", c.remoteAddr),
		logger.String("reason", reason),
		logger.Int("clients", n),
	)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		if c.conn != nil {
			_ = c.conn.Close()
		}
		c.closeOnce.Do(func() { close(c.send) })
		delete(h.clients, c)
	}
}

// writePump writes queued frames to the socket and keeps the connection
// alive with pings. It exits on write error or when send is closed.
func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: the hub is disconnecting us.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump discards incoming messages to detect disconnects and handle
// control frames. It exits on read error, then unregisters the client.
func (c *client) readPump() {
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			c.hub.unregister <- c
			return
		}
	}
}
