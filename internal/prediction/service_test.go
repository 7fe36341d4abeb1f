package prediction

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OldStager01/getaround-pricing/internal/audit"
	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/internal/normalizer"
	"github.com/OldStager01/getaround-pricing/internal/pipeline"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

type fakePredictor struct {
	price float64
	err   error
	panic bool
	seen  []models.CarFeatures
}

func (f *fakePredictor) Predict(features models.CarFeatures) (float64, error) {
	f.seen = append(f.seen, features)
	if f.panic {
		panic("index out of range")
	}
	return f.price, f.err
}

type recordingObserver struct {
	events []*models.PredictionEvent
	err    error
}

func (o *recordingObserver) OnPrediction(_ context.Context, e *models.PredictionEvent) error {
	o.events = append(o.events, e)
	return o.err
}

func shippedPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	p, err := pipeline.Load(pipeline.Config{
		PreprocessorPath: filepath.Join("..", "..", "artifacts", "preprocessor.json"),
		RegressorPath:    filepath.Join("..", "..", "artifacts", "model.json"),
	})
	require.NoError(t, err)
	return p
}

func TestService_PredictKnownRecord(t *testing.T) {
	svc := NewService(Config{Predictor: shippedPipeline(t)})

	resp := svc.Predict(context.Background(), models.ExampleFeatures())

	require.True(t, resp.OK())
	assert.Empty(t, resp.Message)
	assert.Equal(t, 179.4, *resp.Price)
	assert.Equal(t, *resp.Price, Round(*resp.Price), "rounded to one decimal")
}

func TestService_Deterministic(t *testing.T) {
	svc := NewService(Config{Predictor: shippedPipeline(t)})
	req := models.ExampleFeatures()
	req.ModelKey = "Renault"
	req.Mileage = 123456.7

	first := svc.Predict(context.Background(), req)
	second := svc.Predict(context.Background(), req)

	require.True(t, first.OK())
	require.True(t, second.OK())
	assert.Equal(t, *first.Price, *second.Price)
}

func TestService_NormalizesBeforePredicting(t *testing.T) {
	fake := &fakePredictor{price: 100}
	svc := NewService(Config{Predictor: fake})

	req := models.ExampleFeatures()
	req.ModelKey = "Porsche"
	req.Fuel = "electro"
	req.PaintColor = "green"

	resp := svc.Predict(context.Background(), req)

	require.True(t, resp.OK())
	require.Len(t, fake.seen, 1)
	assert.Equal(t, normalizer.Others, fake.seen[0].ModelKey)
	assert.Equal(t, normalizer.Others, fake.seen[0].Fuel)
	assert.Equal(t, normalizer.Others, fake.seen[0].PaintColor)
	assert.Equal(t, "Porsche", req.ModelKey)
}

func TestService_FailuresReturnUsageHint(t *testing.T) {
	tests := []struct {
		name         string
		cfg          func() Config
		expectedKind string
	}{
		{
			name: "unknown category",
			cfg: func() Config {
				return Config{Predictor: &fakePredictor{err: fmt.Errorf("%w: model_key=%q", pipeline.ErrUnknownCategory, "Tesla")}}
			},
			expectedKind: pipeline.KindUnknownCategory,
		},
		{
			name: "pipeline failure",
			cfg: func() Config {
				return Config{Predictor: &fakePredictor{err: fmt.Errorf("%w: shape", pipeline.ErrPipelineFailure)}}
			},
			expectedKind: pipeline.KindPipelineFailure,
		},
		{
			name:         "untyped error",
			cfg:          func() Config { return Config{Predictor: &fakePredictor{err: errors.New("boom")}} },
			expectedKind: pipeline.KindPipelineFailure,
		},
		{
			name:         "panic inside pipeline",
			cfg:          func() Config { return Config{Predictor: &fakePredictor{panic: true}} },
			expectedKind: pipeline.KindPipelineFailure,
		},
		{
			name: "missing artifact",
			cfg: func() Config {
				_, err := pipeline.Load(pipeline.Config{PreprocessorPath: "does/not/exist.json", RegressorPath: "nor/this.json"})
				return Config{LoadErr: err}
			},
			expectedKind: pipeline.KindArtifactUnavailable,
		},
		{
			name:         "corrupt artifact wrapped by caller",
			cfg:          func() Config { return Config{LoadErr: errors.New("unexpected EOF")} },
			expectedKind: pipeline.KindArtifactUnavailable,
		},
		{
			name:         "nothing configured",
			cfg:          func() Config { return Config{} },
			expectedKind: pipeline.KindArtifactUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			obs := &recordingObserver{}
			m := metrics.New()
			cfg := tt.cfg()
			cfg.Metrics = m
			cfg.Observers = []Observer{obs}
			svc := NewService(cfg)

			var resp models.PredictionResponse
			require.NotPanics(t, func() {
				resp = svc.Predict(context.Background(), models.ExampleFeatures())
			})

			assert.False(t, resp.OK())
			assert.Equal(t, UsageHint, resp.Message)
			require.Len(t, obs.events, 1)
			assert.Equal(t, tt.expectedKind, obs.events[0].ErrorKind)
			assert.Nil(t, obs.events[0].Price)

			out, err := testutil.GatherAndCount(m.Registry(), "pricing_prediction_errors_total")
			require.NoError(t, err)
			assert.Equal(t, 1, out)
		})
	}
}

func TestService_ObserversReceiveEvent(t *testing.T) {
	failingObs := &recordingObserver{err: errors.New("db down")}
	obs := &recordingObserver{}
	svc := NewService(Config{Predictor: &fakePredictor{price: 87.26}})
	svc.AddObserver(failingObs)
	svc.AddObserver(obs)

	ctx := logger.WithTraceID(context.Background(), "trace-1")
	resp := svc.Predict(ctx, models.ExampleFeatures())

	require.True(t, resp.OK())
	assert.Equal(t, 87.3, *resp.Price)
	require.Len(t, failingObs.events, 1, "observer errors do not stop fan-out")
	require.Len(t, obs.events, 1)

	e := obs.events[0]
	assert.NotEmpty(t, e.ID)
	assert.Equal(t, "trace-1", e.TraceID)
	assert.True(t, e.Succeeded())
	assert.Equal(t, 87.3, *e.Price)
	assert.Equal(t, "Volkswagen", e.Features.ModelKey)
}

func TestService_Ready(t *testing.T) {
	assert.NoError(t, NewService(Config{Predictor: &fakePredictor{}}).Ready())

	err := NewService(Config{LoadErr: errors.New("missing")}).Ready()
	assert.ErrorIs(t, err, pipeline.ErrArtifactUnavailable)
}

func TestRound(t *testing.T) {
	tests := []struct {
		in       float64
		expected float64
	}{
		{in: 179.42499, expected: 179.4},
		{in: 0.05, expected: 0.1},
		{in: 99.96, expected: 100.0},
		{in: -3.25, expected: -3.2},
		{in: 0.25, expected: 0.2},
		{in: 0.35, expected: 0.3},
		{in: 1.15, expected: 1.1},
		{in: 2.675, expected: 2.7},
		{in: 0.75, expected: 0.8},
		{in: 12, expected: 12},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			assert.Equal(t, tt.expected, Round(tt.in))
		})
	}
}

type stalledRepo struct{}

func (stalledRepo) Insert(ctx context.Context, _ *models.PredictionRecord) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestService_SlowAuditStoreDoesNotDelayPredict(t *testing.T) {
	rec := audit.NewRecorder(stalledRepo{}, audit.Config{WriteTimeout: 200 * time.Millisecond})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = rec.Close(ctx)
	})

	svc := NewService(Config{Predictor: &fakePredictor{price: 120}})
	svc.AddObserver(rec)

	start := time.Now()
	for i := 0; i < 3; i++ {
		resp := svc.Predict(context.Background(), models.ExampleFeatures())
		require.True(t, resp.OK())
	}
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}
