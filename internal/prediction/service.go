// Package prediction serves one price estimate per request and never surfaces
// pipeline errors to the caller: every failure becomes the usage hint.
package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/internal/normalizer"
	"github.com/OldStager01/getaround-pricing/internal/pipeline"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

const UsageHint = `Error! Please check your input. It should be in json format. Example input:

    "model_key": "Volkswagen",
    "mileage": 17500,
    "engine_power": 190,
    "fuel": "diesel",
    "paint_color": "black",
    "car_type": "convertible",
    "private_parking_available": true,
    "has_gps": true,
    "has_air_conditioning": true,
    "automatic_car": true,
    "has_getaround_connect": true,
    "has_speed_regulator": true,
    "winter_tires": true
`

// Predictor is satisfied by *pipeline.Pipeline.
type Predictor interface {
	Predict(f models.CarFeatures) (float64, error)
}

// Observer is notified after every prediction. Its errors are logged only.
type Observer interface {
	OnPrediction(ctx context.Context, event *models.PredictionEvent) error
}

type Config struct {
	// Predictor may be nil when the artifacts failed to load; LoadErr then
	// explains why and is reported for every call.
	Predictor Predictor
	LoadErr   error
	Metrics   *metrics.Metrics
	Observers []Observer
}

type Service struct {
	predictor Predictor
	loadErr   error
	metrics   *metrics.Metrics
	observers []Observer
}

func NewService(cfg Config) *Service {
	loadErr := cfg.LoadErr
	if cfg.Predictor == nil && loadErr == nil {
		loadErr = errors.New("no pipeline configured")
	}
	if loadErr != nil && !errors.Is(loadErr, pipeline.ErrArtifactUnavailable) {
		loadErr = fmt.Errorf("%w: %v", pipeline.ErrArtifactUnavailable, loadErr)
	}

	return &Service{
		predictor: cfg.Predictor,
		loadErr:   loadErr,
		metrics:   cfg.Metrics,
		observers: cfg.Observers,
	}
}

// AddObserver registers o. It must be called before the service handles traffic.
func (s *Service) AddObserver(o Observer) {
	s.observers = append(s.observers, o)
}

// Ready reports whether the artifacts are loaded.
func (s *Service) Ready() error {
	if s.predictor == nil {
		return s.loadErr
	}
	return nil
}

func (s *Service) Predict(ctx context.Context, features models.CarFeatures) models.PredictionResponse {
	start := time.Now()

	normalized := normalizer.Normalize(features)
	price, err := s.run(normalized)

	event := models.NewPredictionEvent(logger.TraceIDFromContext(ctx), normalized)
	event.Latency = time.Since(start)

	var resp models.PredictionResponse
	if err != nil {
		event.ErrorKind = pipeline.ErrorKind(err)
		logger.FromContext(ctx).
			WithField("error_kind", event.ErrorKind).
			WithField("model_key", normalized.ModelKey).
			Warnf("prediction failed: %v", err)
		resp = models.FailureResponse(UsageHint)
	} else {
		rounded := Round(price)
		event.Price = &rounded
		resp = models.SuccessResponse(rounded)
	}

	s.metrics.ObservePrediction(event.ErrorKind, event.Latency)
	s.notify(ctx, event)

	return resp
}

func (s *Service) run(f models.CarFeatures) (price float64, err error) {
	if s.predictor == nil {
		return 0, s.loadErr
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: panic: %v", pipeline.ErrPipelineFailure, r)
		}
	}()

	return s.predictor.Predict(f)
}

func (s *Service) notify(ctx context.Context, event *models.PredictionEvent) {
	for _, o := range s.observers {
		if err := o.OnPrediction(ctx, event); err != nil {
			logger.FromContext(ctx).Errorf("prediction observer failed: %v", err)
		}
	}
}

// Round rounds to one decimal place from the shortest exact decimal form of
// v, ties to even, so 1.15 (stored just below 1.15) gives 1.1 and 0.25 gives
// 0.2.
func Round(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', 1, 64), 64)
	if err != nil {
		return v
	}
	return r
}
