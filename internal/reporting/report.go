package reporting

import (
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/strategy"
)

// Report is the assembled analysis report.
type Report struct {
	// Metadata
	GeneratedAt time.Time
	PoolCount   int
	DateCount   int

	// Window actually covered by the aggregate series (zero when empty)
	WindowStart time.Time
	WindowEnd   time.Time

	// Per-pool statistics, sorted by pool key then metric
	Statistics []domain.PoolStatistics

	// Per-metric series
	Aggregates map[domain.Metric][]domain.WeightedAggregatePoint
	Decisions  map[domain.Metric][]domain.AllocationDecision

	// Per-metric derived sections
	Realized map[domain.Metric]RealizedSummary
	Shares   map[domain.Metric][]strategy.PoolShare
}

// RealizedSummary describes what the always-pick-the-best strategy would
// have earned over the decided days of one metric.
type RealizedSummary struct {
	Days    int
	Skipped int // days with no decision
	Mean    float64
	Stddev  float64
	Min     float64
	Max     float64
	Defined bool

	// Sample stddev of day-over-day changes in the realized series;
	// undefined below the observation threshold.
	Volatility        float64
	VolatilityDefined bool
}
