package web

import (
	"sync"

	"github.com/codefionn/calculate42/internal/logger"
)

// Hub maintains the set of active clients and broadcasts evaluations to
// the ones observing
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan *WebMessage
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
	quit       chan struct{}
	stopOnce   sync.Once
	log        *logger.Logger
}

// NewHub creates a new hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan *WebMessage, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		log:        logger.Global().WithPrefix("hub"),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	h.log.Info("WebSocket hub started")
	defer h.log.Info("WebSocket hub stopped")

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			h.log.Debug("Client registered: %s (observer=%t)", client.ID, client.observer)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			h.log.Debug("Client unregistered: %s", client.ID)

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				if !client.observer {
					continue
				}
				if !client.sendResponse(message) {
					// slow observer
					delete(h.clients, client)
					client.closeSend()
				}
			}
			h.mu.Unlock()

		case <-h.quit:
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				client.closeSend()
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop stops the hub and closes every client's queue; safe to call twice
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

// Register registers a new client. It returns false once the hub stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.quit:
		return false
	}
}

// Unregister unregisters a client
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.quit:
	}
}

// Broadcast queues a message for every observing client
func (h *Hub) Broadcast(message *WebMessage) {
	select {
	case h.broadcast <- message:
	default:
		h.log.Warn("Broadcast channel full, dropping message")
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
