package websocket

import (
	"context"
	"sync"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/pkg/config"
)

type broadcastMessage struct {
	modelKey string
	data     []byte
}

// Hub fans prediction events out to connected clients. A client subscribed
// to a model key only receives events for that key.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan broadcastMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	mu         sync.RWMutex
	settings   *WebSocketSettings
	metrics    *metrics.Metrics
}

func NewHub(cfg *config.WebSocketConfig, m *metrics.Metrics) *Hub {
	settings := NewWebSocketSettings(cfg)

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan broadcastMessage, settings.BroadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		settings:   settings,
		metrics:    m,
	}
}

// Run serves registrations and broadcasts until ctx is done, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetWSClients(n)
			logger.WithComponent("websocket").Infof("Client connected (total: %d)", n)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client)
			n := len(h.clients)
			h.mu.Unlock()
			h.metrics.SetWSClients(n)
			logger.WithComponent("websocket").Infof("Client disconnected (total: %d)", n)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

func (h *Hub) deliver(msg broadcastMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	dropped := 0
	for client := range h.clients {
		if !client.wants(msg.modelKey) {
			continue
		}
		select {
		case client.send <- msg.data:
		default:
			h.remove(client)
			dropped++
		}
	}
	if dropped > 0 {
		h.metrics.SetWSClients(len(h.clients))
		logger.WithComponent("websocket").Warnf("Dropped %d slow clients", dropped)
	}
}

// remove must be called with mu held.
func (h *Hub) remove(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
}

// sendTo queues data for a single registered client without blocking.
func (h *Hub) sendTo(client *Client, data []byte) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if _, ok := h.clients[client]; !ok {
		return false
	}
	select {
	case client.send <- data:
		return true
	default:
		return false
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	for client := range h.clients {
		h.remove(client)
	}
	h.mu.Unlock()
	h.metrics.SetWSClients(0)
}

// Broadcast queues data for every client interested in modelKey. It never
// blocks; a full queue drops the message.
func (h *Hub) Broadcast(modelKey string, data []byte) {
	select {
	case h.broadcast <- broadcastMessage{modelKey: modelKey, data: data}:
	default:
		logger.WithComponent("websocket").Warn("Broadcast channel full, dropping message")
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register reports false when the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}
