package delay

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/OldStager01/getaround-pricing/internal/logger"
)

// Source provides the two datasets a report is built from.
type Source interface {
	Pricing(ctx context.Context) (dataframe.DataFrame, error)
	Delays(ctx context.Context) (dataframe.DataFrame, error)
}

// Reporter builds reports from a Source and reuses the last one for ttl.
type Reporter struct {
	source   Source
	analyzer *Analyzer
	ttl      time.Duration
	now      func() time.Time

	mu       sync.Mutex
	last     *Report
	lastTime time.Time
}

func NewReporter(source Source, analyzer *Analyzer, ttl time.Duration) *Reporter {
	return &Reporter{
		source:   source,
		analyzer: analyzer,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (r *Reporter) Report(ctx context.Context) (*Report, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.last != nil && r.ttl > 0 && r.now().Sub(r.lastTime) < r.ttl {
		return r.last, nil
	}

	delays, err := r.source.Delays(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load delay dataset: %w", err)
	}
	rentals, err := Rentals(delays)
	if err != nil {
		return nil, fmt.Errorf("invalid delay dataset: %w", err)
	}

	pricing, err := r.source.Pricing(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load pricing dataset: %w", err)
	}
	avgPrice, err := AverageDailyPrice(pricing)
	if err != nil {
		return nil, fmt.Errorf("invalid pricing dataset: %w", err)
	}

	report := r.analyzer.Analyze(rentals, avgPrice)

	logger.WithFields(logger.Fields{
		"component": "delay",
		"rentals":   report.TotalRentals,
		"kept":      report.Trim.Kept,
	}).Info("Delay report built")

	r.last = report
	r.lastTime = r.now()
	return report, nil
}
