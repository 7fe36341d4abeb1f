package websocket

import (
	"encoding/json"
	"time"

	"github.com/OldStager01/getaround-pricing/pkg/models"
)

type MessageType string

const (
	MessageTypePrediction         MessageType = "prediction"
	MessageTypeSubscriptionUpdate MessageType = "subscription_update"
)

type OutgoingMessage struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

func NewMessage(msgType MessageType, data interface{}) *OutgoingMessage {
	return &OutgoingMessage{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

func (m *OutgoingMessage) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// IncomingMessage is sent by clients to narrow the feed to one model key.
// An empty model key on subscribe, or an unsubscribe, restores the full feed.
type IncomingMessage struct {
	Type     string `json:"type"`
	ModelKey string `json:"model_key,omitempty"`
}

type PredictionData struct {
	ID         string   `json:"id"`
	TraceID    string   `json:"trace_id,omitempty"`
	ModelKey   string   `json:"model_key"`
	Fuel       string   `json:"fuel"`
	PaintColor string   `json:"paint_color"`
	CarType    string   `json:"car_type"`
	Price      *float64 `json:"price,omitempty"`
	ErrorKind  string   `json:"error_kind,omitempty"`
	LatencyMs  float64  `json:"latency_ms"`
}

type SubscriptionData struct {
	Action   string `json:"action"`
	ModelKey string `json:"model_key"`
}

func NewPredictionData(e *models.PredictionEvent) PredictionData {
	return PredictionData{
		ID:         e.ID,
		TraceID:    e.TraceID,
		ModelKey:   e.Features.ModelKey,
		Fuel:       e.Features.Fuel,
		PaintColor: e.Features.PaintColor,
		CarType:    e.Features.CarType,
		Price:      e.Price,
		ErrorKind:  e.ErrorKind,
		LatencyMs:  float64(e.Latency.Microseconds()) / 1000,
	}
}
