package delay

import (
	"math"
	"sort"
	"time"

	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/OldStager01/getaround-pricing/pkg/models"
)

const minutesPerDay = 1440

// ScopeAll covers every checkin type in the threshold simulation.
const ScopeAll = "all"

type Config struct {
	// TrimQuantile drops delays at or below this quantile and at or above its
	// complement. Zero disables trimming.
	TrimQuantile        float64
	HistogramBinMinutes float64
	Thresholds          []float64
	// Scopes restrict the threshold simulation to a checkin type. ScopeAll
	// means every rental.
	Scopes []string
}

type Analyzer struct {
	config Config
	now    func() time.Time
}

func NewAnalyzer(cfg Config) *Analyzer {
	if cfg.HistogramBinMinutes <= 0 {
		cfg.HistogramBinMinutes = 30
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = []string{ScopeAll, models.CheckinConnect}
	}

	thresholds := append([]float64(nil), cfg.Thresholds...)
	sort.Float64s(thresholds)
	cfg.Thresholds = thresholds

	return &Analyzer{config: cfg, now: time.Now}
}

// BucketCounts counts rentals per delay bucket.
type BucketCounts map[Bucket]int

type TrimBounds struct {
	Quantile float64 `json:"quantile"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
	Kept     int     `json:"kept"`
	Dropped  int     `json:"dropped"`
}

type HistogramBin struct {
	From  float64 `json:"from"`
	To    float64 `json:"to"`
	Count int     `json:"count"`
}

// LateStats describes drivers who returned the car late, after trimming.
type LateStats struct {
	LateCount          int            `json:"late_count"`
	MedianDelayMinutes float64        `json:"median_delay_minutes"`
	Histogram          []HistogramBin `json:"histogram"`
	LossPerDelay       float64        `json:"loss_per_delay"`
	TotalLoss          float64        `json:"total_loss"`
}

// ThresholdImpact is the effect of a minimum delay between two consecutive
// rentals of the same car.
type ThresholdImpact struct {
	Scope            string  `json:"scope"`
	ThresholdMinutes float64 `json:"threshold_minutes"`
	Consecutive      int     `json:"consecutive_rentals"`
	Blocked          int     `json:"blocked_rentals"`
	BlockedShare     float64 `json:"blocked_share"`
	Problematic      int     `json:"problematic_cases"`
	Solved           int     `json:"solved_cases"`
}

type Report struct {
	GeneratedAt       time.Time                          `json:"generated_at"`
	TotalRentals      int                                `json:"total_rentals"`
	Buckets           []Bucket                           `json:"buckets"`
	ByState           map[string]BucketCounts            `json:"by_state"`
	ByCheckinType     map[string]map[string]BucketCounts `json:"by_checkin_type"`
	BucketTotals      map[string]BucketCounts            `json:"bucket_totals"`
	Trim              TrimBounds                         `json:"trim"`
	Late              map[string]LateStats               `json:"late"`
	AvgDailyPrice     float64                            `json:"avg_daily_price"`
	AvgPricePerMinute float64                            `json:"avg_price_per_minute"`
	Thresholds        []ThresholdImpact                  `json:"thresholds"`
}

// CheckinTypes returns the checkin types present in the report, sorted.
func (r *Report) CheckinTypes() []string {
	types := make([]string, 0, len(r.BucketTotals))
	for t := range r.BucketTotals {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// States returns the rental states present in the report, sorted.
func (r *Report) States() []string {
	states := make([]string, 0, len(r.ByState))
	for s := range r.ByState {
		states = append(states, s)
	}
	sort.Strings(states)
	return states
}

func (a *Analyzer) Analyze(rentals []models.Rental, avgDailyPrice float64) *Report {
	report := &Report{
		GeneratedAt:       a.now().UTC(),
		TotalRentals:      len(rentals),
		Buckets:           Buckets,
		ByState:           make(map[string]BucketCounts),
		ByCheckinType:     make(map[string]map[string]BucketCounts),
		BucketTotals:      make(map[string]BucketCounts),
		Late:              make(map[string]LateStats),
		AvgDailyPrice:     avgDailyPrice,
		AvgPricePerMinute: avgDailyPrice / minutesPerDay,
	}

	for _, r := range rentals {
		b := BucketOf(r.DelayAtCheckoutMinutes)
		increment(report.ByState, r.State, b)
		increment(report.BucketTotals, r.CheckinType, b)

		byState, ok := report.ByCheckinType[r.CheckinType]
		if !ok {
			byState = make(map[string]BucketCounts)
			report.ByCheckinType[r.CheckinType] = byState
		}
		increment(byState, r.State, b)
	}

	kept, bounds := a.trim(rentals)
	report.Trim = bounds

	lateByType := make(map[string][]float64)
	for _, r := range kept {
		if d := *r.DelayAtCheckoutMinutes; d > 0 {
			lateByType[r.CheckinType] = append(lateByType[r.CheckinType], d)
		}
	}
	for checkin := range report.BucketTotals {
		report.Late[checkin] = a.lateStats(lateByType[checkin], report.AvgPricePerMinute)
	}

	report.Thresholds = a.simulate(rentals)

	return report
}

func increment(m map[string]BucketCounts, key string, b Bucket) {
	counts, ok := m[key]
	if !ok {
		counts = make(BucketCounts, len(Buckets))
		m[key] = counts
	}
	counts[b]++
}

// trim keeps rentals with a known delay strictly between the lower and upper
// quantiles of all known delays.
func (a *Analyzer) trim(rentals []models.Rental) ([]models.Rental, TrimBounds) {
	known := make([]models.Rental, 0, len(rentals))
	delays := make([]float64, 0, len(rentals))
	for _, r := range rentals {
		if BucketOf(r.DelayAtCheckoutMinutes) == BucketNA {
			continue
		}
		known = append(known, r)
		delays = append(delays, *r.DelayAtCheckoutMinutes)
	}

	bounds := TrimBounds{Quantile: a.config.TrimQuantile}
	if len(delays) == 0 {
		return nil, bounds
	}

	sort.Float64s(delays)
	q := a.config.TrimQuantile
	if q <= 0 {
		bounds.Lower = delays[0]
		bounds.Upper = delays[len(delays)-1]
		bounds.Kept = len(known)
		return known, bounds
	}

	bounds.Lower = linearQuantile(delays, q)
	bounds.Upper = linearQuantile(delays, 1-q)

	kept := known[:0:0]
	for _, r := range known {
		d := *r.DelayAtCheckoutMinutes
		if d <= bounds.Lower || d >= bounds.Upper {
			continue
		}
		kept = append(kept, r)
	}
	bounds.Kept = len(kept)
	bounds.Dropped = len(known) - len(kept)

	return kept, bounds
}

// linearQuantile interpolates between the two closest ranks of sorted, the
// default pandas and numpy definition. gonum only offers the empirical and
// midpoint-based variants.
func linearQuantile(sorted []float64, q float64) float64 {
	h := float64(len(sorted)-1) * q
	lo := math.Floor(h)
	i := int(lo)
	if i+1 >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	return sorted[i] + (h-lo)*(sorted[i+1]-sorted[i])
}

func (a *Analyzer) lateStats(delays []float64, pricePerMinute float64) LateStats {
	stats := LateStats{LateCount: len(delays), Histogram: []HistogramBin{}}
	if len(delays) == 0 {
		return stats
	}

	sort.Float64s(delays)
	stats.MedianDelayMinutes = series.Floats(delays).Median()
	stats.LossPerDelay = pricePerMinute * stats.MedianDelayMinutes
	stats.TotalLoss = stats.LossPerDelay * float64(stats.LateCount)
	stats.Histogram = histogram(delays, a.config.HistogramBinMinutes)

	return stats
}

// histogram bins sorted, non-negative values into [k*width, (k+1)*width).
func histogram(sorted []float64, width float64) []HistogramBin {
	top := (math.Floor(sorted[len(sorted)-1]/width) + 1) * width
	n := int(math.Round(top / width))

	dividers := make([]float64, n+1)
	floats.Span(dividers, 0, top)

	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]HistogramBin, n)
	for i := range bins {
		bins[i] = HistogramBin{From: dividers[i], To: dividers[i+1], Count: int(counts[i])}
	}
	return bins
}

// simulate measures, for every threshold and scope, how many consecutive
// rentals a minimum gap would block and how many late-checkout conflicts it
// would have avoided. A conflict is a previous rental whose checkout delay
// exceeded the planned gap.
func (a *Analyzer) simulate(rentals []models.Rental) []ThresholdImpact {
	delayByID := make(map[int64]float64, len(rentals))
	for _, r := range rentals {
		if BucketOf(r.DelayAtCheckoutMinutes) != BucketNA {
			delayByID[r.RentalID] = *r.DelayAtCheckoutMinutes
		}
	}

	impacts := make([]ThresholdImpact, 0, len(a.config.Scopes)*len(a.config.Thresholds))
	for _, scope := range a.config.Scopes {
		type pair struct {
			delta    float64
			conflict bool
		}

		var pairs []pair
		for _, r := range rentals {
			if scope != ScopeAll && r.CheckinType != scope {
				continue
			}
			if !r.HasPrevious() {
				continue
			}
			delta := *r.TimeDeltaWithPreviousMinutes
			prevDelay, ok := delayByID[*r.PreviousEndedRentalID]
			pairs = append(pairs, pair{delta: delta, conflict: ok && prevDelay > delta})
		}

		problematic := 0
		for _, p := range pairs {
			if p.conflict {
				problematic++
			}
		}

		for _, threshold := range a.config.Thresholds {
			impact := ThresholdImpact{
				Scope:            scope,
				ThresholdMinutes: threshold,
				Consecutive:      len(pairs),
				Problematic:      problematic,
			}
			for _, p := range pairs {
				if p.delta < threshold {
					impact.Blocked++
					if p.conflict {
						impact.Solved++
					}
				}
			}
			if len(pairs) > 0 {
				impact.BlockedShare = float64(impact.Blocked) / float64(len(pairs))
			}
			impacts = append(impacts, impact)
		}
	}

	return impacts
}
