// Package audit persists served predictions.
package audit

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/pkg/models"
)

const (
	defaultWriteTimeout = 2 * time.Second
	defaultBufferSize   = 1024
)

var (
	ErrQueueFull = errors.New("audit queue full, event dropped")
	ErrClosed    = errors.New("audit recorder closed")
)

type Repository interface {
	Insert(ctx context.Context, rec *models.PredictionRecord) error
}

type Config struct {
	BufferSize   int
	WriteTimeout time.Duration
	Metrics      *metrics.Metrics
}

// Recorder queues prediction events and writes them to the repository from
// a single background goroutine, so a slow database never delays a response.
// It satisfies prediction.Observer.
type Recorder struct {
	repo    Repository
	timeout time.Duration
	metrics *metrics.Metrics

	mu     sync.RWMutex
	closed bool
	events chan *models.PredictionEvent
	done   chan struct{}
}

// NewRecorder starts the writer goroutine. Call Close to drain and stop it.
func NewRecorder(repo Repository, cfg Config) *Recorder {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = defaultBufferSize
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}

	r := &Recorder{
		repo:    repo,
		timeout: cfg.WriteTimeout,
		metrics: cfg.Metrics,
		events:  make(chan *models.PredictionEvent, cfg.BufferSize),
		done:    make(chan struct{}),
	}
	go r.run()
	return r
}

// OnPrediction enqueues event without blocking. A full queue drops it.
func (r *Recorder) OnPrediction(_ context.Context, event *models.PredictionEvent) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.closed {
		return ErrClosed
	}

	select {
	case r.events <- event:
		return nil
	default:
		r.metrics.IncAuditEvent("dropped")
		return ErrQueueFull
	}
}

func (r *Recorder) run() {
	defer close(r.done)
	for event := range r.events {
		r.write(event)
	}
}

func (r *Recorder) write(event *models.PredictionEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	if err := r.repo.Insert(ctx, models.NewPredictionRecord(event)); err != nil {
		r.metrics.IncAuditEvent("failed")
		logger.WithComponent("audit").
			WithField("trace_id", event.TraceID).
			Errorf("Failed to record prediction %s: %v", event.ID, err)
		return
	}
	r.metrics.IncAuditEvent("written")
}

// Close stops accepting events and waits until the queue is drained or ctx
// is done.
func (r *Recorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.events)
	}
	r.mu.Unlock()

	select {
	case <-r.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
