package hub

import (
	"encoding/json"
	"sync"

	"github.com/teslashibe/go-tello/internal/log"
)

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	name string

	clients map[*Client]bool

	broadcast  chan Message
	register   chan *Client
	unregister chan *Client
	stop       chan struct{}

	// Guards client count reads from outside the run loop.
	mu sync.RWMutex
}

// New creates a hub. name appears in log lines only.
func New(name string) *Hub {
	return &Hub{
		name:       name,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		stop:       make(chan struct{}),
	}
}

// Run is the hub's main loop; call it in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("ws client connected", "hub", h.name, "total", count)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Debug("ws client disconnected", "hub", h.name, "remaining", count)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full: the client cannot keep up, drop it.
					close(client.send)
					delete(h.clients, client)
					log.Warn("ws client dropped, too slow", "hub", h.name)
				}
			}
			h.mu.Unlock()

		case <-h.stop:
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop shuts down the hub and disconnects all clients. Register and
// unregister sends racing the shutdown are released, not left blocked.
func (h *Hub) Stop() {
	close(h.stop)
}

// Broadcast queues a message for all connected clients. When the broadcast
// channel is full the message is dropped; freshness over completeness.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		log.Warn("ws broadcast channel full, dropping message", "hub", h.name)
	}
}

// BroadcastJSON encodes and broadcasts a JSON message.
func (h *Hub) BroadcastJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.Broadcast(NewJSONMessage(data))
	return nil
}

// BroadcastBinary broadcasts binary data (e.g. camera frames).
func (h *Hub) BroadcastBinary(data []byte) {
	h.Broadcast(NewBinaryMessage(data))
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
