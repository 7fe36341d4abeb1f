package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/go-gota/gota/dataframe"

	"github.com/OldStager01/getaround-pricing/internal/logger"
)

type Config struct {
	PricingSource string
	DelaySource   string
	DelaySheet    string
	CacheTTL      time.Duration
}

type entry struct {
	frame    dataframe.DataFrame
	loadedAt time.Time
}

// Store loads the pricing and delay datasets and keeps each parsed frame for
// CacheTTL. A zero TTL disables caching.
type Store struct {
	fetcher *Fetcher
	cfg     Config
	now     func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

func NewStore(fetcher *Fetcher, cfg Config) *Store {
	if cfg.DelaySheet == "" {
		cfg.DelaySheet = "rentals_data"
	}
	return &Store{
		fetcher: fetcher,
		cfg:     cfg,
		now:     time.Now,
		entries: make(map[string]entry),
	}
}

func (s *Store) Pricing(ctx context.Context) (dataframe.DataFrame, error) {
	return s.Load(ctx, s.cfg.PricingSource)
}

func (s *Store) Delays(ctx context.Context) (dataframe.DataFrame, error) {
	return s.Load(ctx, s.cfg.DelaySource)
}

// Load returns the frame for source, fetching and parsing it on a cache miss.
func (s *Store) Load(ctx context.Context, source string) (dataframe.DataFrame, error) {
	if df, ok := s.cached(source); ok {
		return df, nil
	}

	start := s.now()
	data, err := s.fetcher.Fetch(ctx, source)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	df, err := Parse(source, data, s.cfg.DelaySheet)
	if err != nil {
		return dataframe.DataFrame{}, err
	}

	logger.WithFields(logger.Fields{
		"component": "dataset",
		"source":    source,
		"rows":      df.Nrow(),
		"columns":   df.Ncol(),
		"duration":  s.now().Sub(start).String(),
	}).Info("Dataset loaded")

	if s.cfg.CacheTTL > 0 {
		s.mu.Lock()
		s.entries[source] = entry{frame: df, loadedAt: s.now()}
		s.mu.Unlock()
	}

	return df, nil
}

func (s *Store) cached(source string) (dataframe.DataFrame, bool) {
	if s.cfg.CacheTTL <= 0 {
		return dataframe.DataFrame{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[source]
	if !ok {
		return dataframe.DataFrame{}, false
	}
	if s.now().Sub(e.loadedAt) >= s.cfg.CacheTTL {
		delete(s.entries, source)
		return dataframe.DataFrame{}, false
	}
	return e.frame, true
}

// Invalidate drops every cached frame.
func (s *Store) Invalidate() {
	s.mu.Lock()
	s.entries = make(map[string]entry)
	s.mu.Unlock()
}
