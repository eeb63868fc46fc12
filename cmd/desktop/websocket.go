// Package main runs the CarKeeper desktop bridge: the UI shell talks to
// the offline store over localhost HTTP plus this WebSocket event feed.
package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tknelms/carkeeper/backend/internal/logging"
	"github.com/tknelms/carkeeper/backend/internal/uuid"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The bridge only ever serves the local UI shell.
		return strings.HasPrefix(r.Host, "localhost") || strings.HasPrefix(r.Host, "127.0.0.1")
	},
}

// envelope wraps every event pushed to clients.
type envelope struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// wsClient is one connected UI shell.
type wsClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *wsHub
}

// wsHub tracks connected clients and fans events out to them.
type wsHub struct {
	mu         sync.RWMutex
	clients    map[string]*wsClient
	broadcast  chan []byte
	register   chan *wsClient
	unregister chan *wsClient
	done       chan struct{}
}

func newWSHub() *wsHub {
	hub := &wsHub{
		clients:    make(map[string]*wsClient),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		done:       make(chan struct{}),
	}
	go hub.run()
	return hub
}

func (h *wsHub) run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			total := len(h.clients)
			h.mu.Unlock()
			logging.Debug("ws client connected", map[string]any{"client": client.id, "total": total})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
			logging.Debug("ws client disconnected", map[string]any{"client": client.id})

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop the event rather than block
					// the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Broadcast pushes one event to every connected client. Implements
// handlers.Broadcaster.
func (h *wsHub) Broadcast(event string, data map[string]any) {
	message, err := json.Marshal(envelope{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		logging.Error("failed to encode ws event", err, map[string]any{"event": event})
		return
	}
	select {
	case h.broadcast <- message:
	case <-h.done:
	}
}

// Close stops the hub loop.
func (h *wsHub) Close() {
	close(h.done)
}

// serveWS upgrades the connection and registers the client.
func (h *wsHub) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("ws upgrade failed", err, nil)
		return
	}

	client := &wsClient{
		id:   uuid.New(),
		conn: conn,
		send: make(chan []byte, 64),
		hub:  h,
	}
	h.register <- client

	go client.writeLoop()
	go client.readLoop()
}

func (c *wsClient) writeLoop() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readLoop drains (and discards) client frames so pings and close
// frames are processed.
func (c *wsClient) readLoop() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
