package domain

import "time"

// WeightedAggregatePoint is the TVL-weighted blended yield across all pools
// for one date and metric. Corresponds to the weighted_aggregates table in
// ClickHouse.
//
// Defined is false when the date's total TVL is zero: the aggregate is
// undefined, and must never be reported as zero yield.
type WeightedAggregatePoint struct {
	Date     time.Time
	Metric   Metric
	Value    float64
	TotalTVL float64
	Defined  bool
}

// AllocationDecision is the best-pool pick for one date and metric.
// Corresponds to the allocation_decisions table in ClickHouse.
//
// Decided is false when no pool had a real observation for the date and
// metric; a gap-filled zero must not win a day by being the only data present.
type AllocationDecision struct {
	Date    time.Time
	Metric  Metric
	Pool    PoolKey
	Value   float64
	Decided bool
}

// RealizedPoint is one day of the yield an allocator would have earned by
// following the daily decisions. A pure projection of decided days.
type RealizedPoint struct {
	Date  time.Time
	Pool  PoolKey
	Value float64
}
