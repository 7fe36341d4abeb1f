package websocket

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/OldStager01/getaround-pricing/pkg/config"
)

const (
	defaultWriteWait       = 10 * time.Second
	defaultPongWait        = 60 * time.Second
	defaultMaxMessageSize  = 512
	defaultBufferSize      = 1024
	defaultClientBuffer    = 64
	defaultMaxConnections  = 1000
	defaultBroadcastBuffer = 256
)

type WebSocketSettings struct {
	WriteWait       time.Duration
	PongWait        time.Duration
	PingPeriod      time.Duration
	MaxMessageSize  int64
	ClientBuffer    int
	BroadcastBuffer int
	MaxConnections  int
	Upgrader        websocket.Upgrader
}

// NewWebSocketSettings applies defaults for every unset value. cfg may be nil.
func NewWebSocketSettings(cfg *config.WebSocketConfig) *WebSocketSettings {
	var c config.WebSocketConfig
	if cfg != nil {
		c = *cfg
	}

	s := &WebSocketSettings{
		WriteWait:       orDuration(c.WriteTimeout, defaultWriteWait),
		PongWait:        orDuration(c.PongTimeout, defaultPongWait),
		MaxMessageSize:  c.MaxMessageSize,
		ClientBuffer:    orInt(c.ClientBuffer, defaultClientBuffer),
		BroadcastBuffer: orInt(c.BroadcastBuffer, defaultBroadcastBuffer),
		MaxConnections:  orInt(c.MaxConnections, defaultMaxConnections),
	}
	if s.MaxMessageSize <= 0 {
		s.MaxMessageSize = defaultMaxMessageSize
	}

	s.PingPeriod = c.PingInterval
	if s.PingPeriod <= 0 || s.PingPeriod >= s.PongWait {
		s.PingPeriod = (s.PongWait * 9) / 10
	}

	s.Upgrader = websocket.Upgrader{
		ReadBufferSize:  orInt(c.ReadBufferSize, defaultBufferSize),
		WriteBufferSize: orInt(c.WriteBufferSize, defaultBufferSize),
		// The feed carries no credentials; CORS is enforced on the HTTP routes.
		CheckOrigin: func(r *http.Request) bool { return true },
	}

	return s
}

func orDuration(v, fallback time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return fallback
}

func orInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}
