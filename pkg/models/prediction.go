package models

import (
	"time"

	"github.com/google/uuid"
)

const PredictionKey = "Predicted rental price per day in dollars"

// PredictionResponse carries either a price or a usage hint, never both.
type PredictionResponse struct {
	Price   *float64 `json:"Predicted rental price per day in dollars,omitempty"`
	Message string   `json:"message,omitempty"`
}

func SuccessResponse(price float64) PredictionResponse {
	return PredictionResponse{Price: &price}
}

func FailureResponse(message string) PredictionResponse {
	return PredictionResponse{Message: message}
}

func (r PredictionResponse) OK() bool {
	return r.Price != nil
}

// PredictionEvent describes one served prediction, successful or not.
type PredictionEvent struct {
	ID        string        `json:"id"`
	TraceID   string        `json:"trace_id,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	Features  CarFeatures   `json:"features"`
	Price     *float64      `json:"price,omitempty"`
	ErrorKind string        `json:"error_kind,omitempty"`
	Latency   time.Duration `json:"latency"`
}

func NewPredictionEvent(traceID string, features CarFeatures) *PredictionEvent {
	return &PredictionEvent{
		ID:        NewUUID(),
		TraceID:   traceID,
		Timestamp: time.Now().UTC(),
		Features:  features,
	}
}

func (e *PredictionEvent) Succeeded() bool {
	return e.Price != nil
}

// PredictionRecord is the persisted form of a PredictionEvent.
type PredictionRecord struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	TraceID        string    `json:"trace_id,omitempty"`
	ModelKey       string    `json:"model_key"`
	Fuel           string    `json:"fuel"`
	PaintColor     string    `json:"paint_color"`
	CarType        string    `json:"car_type"`
	Mileage        float64   `json:"mileage"`
	EnginePower    float64   `json:"engine_power"`
	PredictedPrice *float64  `json:"predicted_price,omitempty"`
	ErrorKind      *string   `json:"error_kind,omitempty"`
	LatencyMs      int64     `json:"latency_ms"`
}

func NewPredictionRecord(e *PredictionEvent) *PredictionRecord {
	rec := &PredictionRecord{
		ID:             e.ID,
		CreatedAt:      e.Timestamp,
		TraceID:        e.TraceID,
		ModelKey:       e.Features.ModelKey,
		Fuel:           e.Features.Fuel,
		PaintColor:     e.Features.PaintColor,
		CarType:        e.Features.CarType,
		Mileage:        e.Features.Mileage,
		EnginePower:    e.Features.EnginePower,
		PredictedPrice: e.Price,
		LatencyMs:      e.Latency.Milliseconds(),
	}
	if e.ErrorKind != "" {
		kind := e.ErrorKind
		rec.ErrorKind = &kind
	}
	return rec
}

// NewUUID generates a new UUID string
func NewUUID() string {
	return uuid.New().String()
}
