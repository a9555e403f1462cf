// Package ws streams completed scan results to WebSocket clients.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/alanyoungcy/dexhunter/internal/scanner"
)

const (
	// writeWait is the maximum time to wait for a write to complete.
	writeWait = 10 * time.Second

	// pongWait is the maximum time to wait for a pong from the client.
	pongWait = 60 * time.Second

	// pingPeriod sends pings at this interval. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// sendBufferSize is the channel buffer for outgoing messages per client.
	sendBufferSize = 16
)

// upgrader configures the WebSocket upgrade parameters.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins. In production, restrict this to known origins.
		return true
	},
}

// scanEvent is the wire shape of one broadcast scan result.
type scanEvent struct {
	Type          string    `json:"type"`
	ScanID        string    `json:"scan_id"`
	StartedAt     time.Time `json:"started_at"`
	PairsFetched  int       `json:"pairs_fetched"`
	Opportunities int       `json:"opportunities"`
	WeirdCount    int       `json:"weird_count"`
}

// client represents a single WebSocket connection.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Hub fans completed scan results out to all connected clients. A slow
// client whose send buffer fills is disconnected rather than blocking the
// broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]bool
	logger  *slog.Logger
}

// NewHub creates a Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*client]bool),
		logger:  logger.With(slog.String("component", "ws")),
	}
}

// Publish implements the driver's publisher hook: it encodes a scan summary
// and broadcasts it to every connected client.
func (h *Hub) Publish(res *scanner.Result) {
	data, err := json.Marshal(scanEvent{
		Type:          "scan",
		ScanID:        res.ScanID,
		StartedAt:     res.StartedAt,
		PairsFetched:  res.PairsFetched,
		Opportunities: len(res.Opportunities),
		WeirdCount:    res.WeirdCount,
	})
	if err != nil {
		h.logger.Warn("encode scan event failed", slog.String("error", err.Error()))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			// Buffer full; drop the client on its own goroutine.
			go c.conn.Close()
		}
	}
}

// HandleWS upgrades the HTTP request and registers the connection.
// GET /ws
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBufferSize)}
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()

	go c.writePump()
	go c.readPump()
}

// Shutdown closes every client connection.
func (h *Hub) Shutdown(context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
	return nil
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	c.conn.Close()
}

// readPump discards inbound messages; the stream is one-way. It exists to
// process control frames and detect closed connections.
func (c *client) readPump() {
	defer c.hub.drop(c)

	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case data, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
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
