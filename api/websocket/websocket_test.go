package websocket

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/getaround-pricing/pkg/config"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

func TestNewWebSocketSettings_Defaults(t *testing.T) {
	s := NewWebSocketSettings(nil)

	assert.Equal(t, defaultWriteWait, s.WriteWait)
	assert.Equal(t, defaultPongWait, s.PongWait)
	assert.Equal(t, (defaultPongWait*9)/10, s.PingPeriod)
	assert.Equal(t, int64(defaultMaxMessageSize), s.MaxMessageSize)
	assert.Equal(t, defaultClientBuffer, s.ClientBuffer)
	assert.Equal(t, defaultMaxConnections, s.MaxConnections)
	assert.Equal(t, defaultBufferSize, s.Upgrader.ReadBufferSize)
}

func TestNewWebSocketSettings_PingMustBeShorterThanPong(t *testing.T) {
	s := NewWebSocketSettings(&config.WebSocketConfig{
		PongTimeout:  10 * time.Second,
		PingInterval: 20 * time.Second,
	})
	assert.Equal(t, 9*time.Second, s.PingPeriod)

	s = NewWebSocketSettings(&config.WebSocketConfig{
		PongTimeout:  10 * time.Second,
		PingInterval: 5 * time.Second,
	})
	assert.Equal(t, 5*time.Second, s.PingPeriod)
}

func TestNewPredictionData(t *testing.T) {
	price := 121.5
	e := &models.PredictionEvent{
		ID:       "id-1",
		TraceID:  "trace-1",
		Features: models.ExampleFeatures(),
		Price:    &price,
		Latency:  1500 * time.Microsecond,
	}

	d := NewPredictionData(e)
	assert.Equal(t, "id-1", d.ID)
	assert.Equal(t, e.Features.ModelKey, d.ModelKey)
	assert.Equal(t, 1.5, d.LatencyMs)
	require.NotNil(t, d.Price)
	assert.Equal(t, price, *d.Price)
}

type testServer struct {
	hub    *Hub
	server *httptest.Server
	cancel context.CancelFunc
}

func newTestServer(t *testing.T, cfg *config.WebSocketConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hub := NewHub(cfg, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	r := gin.New()
	r.GET("/ws", ServeWebSocket(hub))
	srv := httptest.NewServer(r)

	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return &testServer{hub: hub, server: srv, cancel: cancel}
}

func (ts *testServer) dial(t *testing.T, query string) *gorilla.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws" + query
	conn, _, err := gorilla.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *gorilla.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func event(modelKey string) *models.PredictionEvent {
	f := models.ExampleFeatures()
	f.ModelKey = modelKey
	price := 100.0
	return &models.PredictionEvent{ID: modelKey, Features: f, Price: &price}
}

func TestFeed_BroadcastsToAllClients(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "")
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	feed := NewFeed(ts.hub)
	require.NoError(t, feed.OnPrediction(context.Background(), event("Renault")))

	msg := readMessage(t, conn)
	assert.Equal(t, string(MessageTypePrediction), msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "Renault", data["model_key"])
	assert.Equal(t, 100.0, data["price"])
}

func TestFeed_FiltersByQueryModelKey(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "?model_key=BMW")
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	feed := NewFeed(ts.hub)
	require.NoError(t, feed.OnPrediction(context.Background(), event("Renault")))
	require.NoError(t, feed.OnPrediction(context.Background(), event("bmw")))

	msg := readMessage(t, conn)
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "bmw", data["model_key"])
}

func TestClient_SubscribeAndUnsubscribe(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "")
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: "subscribe", ModelKey: "Citroën"}))
	msg := readMessage(t, conn)
	assert.Equal(t, string(MessageTypeSubscriptionUpdate), msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "subscribed", data["action"])
	assert.Equal(t, "Citroën", data["model_key"])

	feed := NewFeed(ts.hub)
	require.NoError(t, feed.OnPrediction(context.Background(), event("Peugeot")))
	require.NoError(t, feed.OnPrediction(context.Background(), event("Citroën")))
	msg = readMessage(t, conn)
	assert.Equal(t, "Citroën", msg["data"].(map[string]interface{})["model_key"])

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: "unsubscribe"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "unsubscribed", msg["data"].(map[string]interface{})["action"])

	require.NoError(t, feed.OnPrediction(context.Background(), event("Peugeot")))
	msg = readMessage(t, conn)
	assert.Equal(t, "Peugeot", msg["data"].(map[string]interface{})["model_key"])
}

func TestClient_SubscribeToRareBrandFollowsOthers(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "")
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.WriteJSON(IncomingMessage{Type: "subscribe", ModelKey: " Porsche "}))
	msg := readMessage(t, conn)
	assert.Equal(t, "others", msg["data"].(map[string]interface{})["model_key"])

	feed := NewFeed(ts.hub)
	require.NoError(t, feed.OnPrediction(context.Background(), event("Renault")))
	require.NoError(t, feed.OnPrediction(context.Background(), event("others")))
	msg = readMessage(t, conn)
	assert.Equal(t, "others", msg["data"].(map[string]interface{})["model_key"])
}

func TestNormalizeKey(t *testing.T) {
	assert.Equal(t, "", normalizeKey("  "))
	assert.Equal(t, "others", normalizeKey("Lamborghini"))
	assert.Equal(t, "BMW", normalizeKey(" BMW"))
}

func TestServeWebSocket_RejectsOverCapacity(t *testing.T) {
	ts := newTestServer(t, &config.WebSocketConfig{MaxConnections: 1})
	ts.dial(t, "")
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	url := "ws" + strings.TrimPrefix(ts.server.URL, "http") + "/ws"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 503, resp.StatusCode)
}

func TestHub_ClosesClientsOnShutdown(t *testing.T) {
	ts := newTestServer(t, nil)
	conn := ts.dial(t, "")
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	ts.cancel()
	require.Eventually(t, func() bool { return ts.hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}

func TestFeed_NoClientsIsNoop(t *testing.T) {
	hub := NewHub(nil, nil)
	feed := NewFeed(hub)
	assert.NoError(t, feed.OnPrediction(context.Background(), event("BMW")))
	assert.Len(t, hub.broadcast, 0)
}
