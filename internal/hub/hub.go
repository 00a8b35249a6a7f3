// Package hub streams status updates to display clients over websockets.
package hub

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"net/url"
	"sync"

	"github.com/EricMurray-e-m-dev/SoundMonkey/internal/models"
	"github.com/gorilla/websocket"
)

type Event struct {
	Type    string      `json:"type"` // status.update
	Payload interface{} `json:"payload"`
}

const EventStatusUpdate = "status.update"

type client struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	mu         sync.Mutex
	clients    map[*client]bool
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	upgrader   websocket.Upgrader
	current    func() models.StatusMessage
	done       chan struct{}
}

// New creates a hub. current, when set, supplies the status sent to each
// client as soon as it connects.
func New(allowedOrigins []string, current func() models.StatusMessage) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = true
	}

	return &Hub{
		clients:    make(map[*client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		current:    current,
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true // non-browser clients
				}
				if allowed[origin] {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				host := u.Hostname()
				return host == "localhost" || host == "127.0.0.1" || host == "::1"
			},
		},
	}
}

// Run dispatches registrations and broadcasts until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.mu.Lock()
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					close(c.send)
					delete(h.clients, c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// BroadcastStatus queues a status update. It drops the update rather than
// block the status writer when the queue is full.
func (h *Hub) BroadcastStatus(msg models.StatusMessage) {
	data, err := encode(msg)
	if err != nil {
		log.Printf("hub: marshal error: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("hub: broadcast queue full, dropping status update")
	}
}

func encode(msg models.StatusMessage) ([]byte, error) {
	return json.Marshal(Event{Type: EventStatusUpdate, Payload: msg})
}

func (h *Hub) HandleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, 64)}

	if h.current != nil {
		if data, err := encode(h.current()); err == nil {
			c.send <- data
		}
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			break
		}
	}
}
