package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/OldStager01/getaround-pricing/internal/logger"
	"github.com/OldStager01/getaround-pricing/internal/metrics"
	"github.com/OldStager01/getaround-pricing/internal/resilience"
)

var (
	ErrFetchFailed = errors.New("dataset fetch failed")
	ErrNotFound    = errors.New("dataset not found")
	ErrTimeout     = errors.New("dataset fetch timed out")
)

// IsRemote reports whether source is fetched over HTTP rather than read from disk.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

type FetcherConfig struct {
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	MaxFailures   int
	ResetTimeout  time.Duration
	Metrics       *metrics.Metrics
}

// Fetcher reads dataset bytes from local paths or HTTP(S) URLs. Remote reads
// are retried inside a circuit breaker.
type Fetcher struct {
	client  *http.Client
	breaker *resilience.CircuitBreaker
	retry   resilience.RetryConfig
	metrics *metrics.Metrics
}

func NewFetcher(cfg FetcherConfig) *Fetcher {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if cfg.RetryAttempts <= 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.RetryDelay < 0 {
		cfg.RetryDelay = 0
	}

	f := &Fetcher{
		client:  &http.Client{Timeout: timeout},
		metrics: cfg.Metrics,
	}

	f.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		Name:        "dataset",
		MaxFailures: cfg.MaxFailures,
		Timeout:     cfg.ResetTimeout,
		// A missing file says nothing about the health of the host.
		IsFailure: func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, ErrNotFound)
		},
		OnStateChange: func(name string, from, to resilience.State) {
			logger.WithComponent("dataset").Warnf("Circuit %s: %s -> %s", name, from, to)
			cfg.Metrics.SetCircuitBreakerState(name, int(to))
		},
	})

	f.retry = resilience.RetryConfig{
		Attempts:   cfg.RetryAttempts,
		Delay:      cfg.RetryDelay,
		Multiplier: 2,
		MaxDelay:   10 * cfg.RetryDelay,
		OnRetry: func(attempt int, err error) {
			logger.WithComponent("dataset").Warnf(
				"Fetch attempt %d/%d failed: %v", attempt, cfg.RetryAttempts, err,
			)
		},
	}

	return f
}

func (f *Fetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if !IsRemote(source) {
		data, err := os.ReadFile(source)
		f.metrics.IncDatasetFetch("file", err)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, source)
			}
			return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
		}
		return data, nil
	}

	var data []byte
	err := f.breaker.Execute(ctx, func(ctx context.Context) error {
		return resilience.Retry(ctx, f.retry, func(ctx context.Context) error {
			var err error
			data, err = f.get(ctx, source)
			return err
		})
	})
	f.metrics.IncDatasetFetch("http", err)
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (f *Fetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrFetchFailed, err)
	}

	logger.WithComponent("dataset").Debugf("Fetching dataset from %s", url)

	resp, err := f.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, resilience.Permanent(fmt.Errorf("%w: %s", ErrNotFound, url))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", ErrFetchFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrFetchFailed, err)
	}
	return body, nil
}

func (f *Fetcher) CircuitState() resilience.State {
	return f.breaker.State()
}

func (f *Fetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}
