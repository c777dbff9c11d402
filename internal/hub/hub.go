// Package hub fans route snapshots out to connected websocket clients.
package hub

import (
	"encoding/json"
	"log"
	"sync"

	"delivtrack/internal/domain"
)

const (
	MessageRoute     = "route"
	MessageDriverLoc = "driver_loc"
)

type Client struct {
	ID   string
	Send chan []byte
}

func NewClient(id string, bufferSize int) *Client {
	return &Client{ID: id, Send: make(chan []byte, bufferSize)}
}

// Message is the envelope for everything sent over /ws.
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// Hub implements ports.RouteNotifier. Slow clients drop messages rather than
// block the publisher.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	last    []byte
	version uint64
}

func New() *Hub {
	return &Hub{clients: make(map[*Client]struct{})}
}

// Register adds c and queues the latest route for it, if any.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[c] = struct{}{}
	if h.last != nil {
		select {
		case c.Send <- h.last:
		default:
		}
	}
	log.Printf("ws client registered: client_id=%s total=%d", c.ID, len(h.clients))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.Send)
	log.Printf("ws client unregistered: client_id=%s total=%d", c.ID, len(h.clients))
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish broadcasts snap to every client. Snapshots older than the last one
// published are dropped.
func (h *Hub) Publish(snap domain.RouteSnapshot) {
	data, err := json.Marshal(Message{Type: MessageRoute, Payload: snap})
	if err != nil {
		log.Printf("ws publish: marshal route: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.last != nil && snap.Version < h.version {
		log.Printf("ws publish: dropping stale route version=%d latest=%d", snap.Version, h.version)
		return
	}
	h.last = data
	h.version = snap.Version
	for c := range h.clients {
		select {
		case c.Send <- data:
		default:
			log.Printf("ws client send buffer full: client_id=%s", c.ID)
		}
	}
}
