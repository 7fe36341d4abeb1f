package websocket

import (
	"context"
	"fmt"

	"github.com/OldStager01/getaround-pricing/pkg/models"
)

// Feed publishes every served prediction to the hub. It satisfies
// prediction.Observer.
type Feed struct {
	hub *Hub
}

func NewFeed(hub *Hub) *Feed {
	return &Feed{hub: hub}
}

func (f *Feed) OnPrediction(_ context.Context, event *models.PredictionEvent) error {
	if f.hub.ClientCount() == 0 {
		return nil
	}

	data, err := NewMessage(MessageTypePrediction, NewPredictionData(event)).JSON()
	if err != nil {
		return fmt.Errorf("failed to encode prediction event: %w", err)
	}
	f.hub.Broadcast(event.Features.ModelKey, data)
	return nil
}
