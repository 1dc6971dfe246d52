package domain

// PoolStatistics summarizes one pool's observed values for one metric.
// Corresponds to the pool_statistics table in PostgreSQL.
//
// Stddev uses the population formula (divide by N, not N-1). The observed
// days are the whole history being described, not a sample.
//
// Filled matrix cells are excluded: statistics over gap-filled zeros would be
// biased toward zero. Count therefore equals the number of real observations,
// and Defined is false when a pool has none.
//
// Volatility is the sample standard deviation of day-over-day value changes.
// It carries its own defined marker: short histories produce unstable
// estimates, so series below the observation threshold report it undefined
// even when the level statistics are defined.
type PoolStatistics struct {
	Pool    PoolKey
	Metric  Metric
	Mean    float64
	Stddev  float64
	Min     float64
	Max     float64
	Count   int
	Defined bool

	Volatility        float64
	VolatilityDefined bool
}
