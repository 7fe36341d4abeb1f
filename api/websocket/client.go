package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/normalizer"
)

type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	mu       sync.RWMutex
	modelKey string
}

func NewClient(hub *Hub, conn *websocket.Conn, modelKey string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.settings.ClientBuffer),
		modelKey: normalizeKey(modelKey),
	}
}

// normalizeKey maps a raw model key onto the key predictions are published
// under, so subscribing to a rare brand follows the "others" bucket.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	return normalizer.Collapse(normalizer.FieldModelKey, key)
}

// wants reports whether an event for modelKey passes the client's filter.
func (c *Client) wants(modelKey string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.modelKey == "" || strings.EqualFold(c.modelKey, modelKey)
}

func (c *Client) setModelKey(key string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	old := c.modelKey
	c.modelKey = key
	return old
}

func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	s := c.hub.settings
	c.conn.SetReadLimit(s.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(s.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(s.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.WithComponent("websocket").Errorf("Read error: %v", err)
			}
			return
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err == nil {
			c.handleMessage(&msg)
		}
	}
}

func (c *Client) WritePump() {
	s := c.hub.settings
	ticker := time.NewTicker(s.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(s.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) handleMessage(msg *IncomingMessage) {
	switch msg.Type {
	case "subscribe":
		key := normalizeKey(msg.ModelKey)
		c.setModelKey(key)
		logger.WithComponent("websocket").Debugf("Client subscribed to model key %q", key)
		c.confirm("subscribed", key)
	case "unsubscribe":
		old := c.setModelKey("")
		c.confirm("unsubscribed", old)
	}
}

func (c *Client) confirm(action, modelKey string) {
	data, err := NewMessage(MessageTypeSubscriptionUpdate, SubscriptionData{
		Action:   action,
		ModelKey: modelKey,
	}).JSON()
	if err != nil {
		logger.WithComponent("websocket").Errorf("Failed to marshal confirmation: %v", err)
		return
	}

	if !c.hub.sendTo(c, data) {
		logger.WithComponent("websocket").Warn("Client unavailable, dropping confirmation")
	}
}

// ServeWebSocket upgrades the request and attaches the client to hub. The
// model_key query parameter sets the initial filter.
func ServeWebSocket(hub *Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		if hub.ClientCount() >= hub.settings.MaxConnections {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "too many websocket connections"})
			return
		}

		conn, err := hub.settings.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.FromContext(c.Request.Context()).Errorf("WebSocket upgrade failed: %v", err)
			return
		}

		client := NewClient(hub, conn, c.Query("model_key"))
		if !hub.Register(client) {
			conn.Close()
			return
		}

		go client.WritePump()
		go client.ReadPump()
	}
}
