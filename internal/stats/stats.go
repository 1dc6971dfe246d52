// Package stats computes per-pool summary statistics over the reconciled matrix.
package stats

import (
	"math"

	"defi-yield-lab/internal/domain"
)

// Compute produces one PoolStatistics per pool per metric, in deterministic
// order (pools lexical, metrics in domain.AllMetrics order).
func Compute(m *domain.Matrix) []domain.PoolStatistics {
	result := make([]domain.PoolStatistics, 0, len(m.Pools)*len(domain.AllMetrics()))
	for _, pool := range m.Pools {
		result = append(result, ComputePool(m, pool)...)
	}
	return result
}

// ComputePool computes statistics for one pool across all metrics.
// Only observed cells count; gap-filled zeros would bias every number toward
// zero, so they are excluded. A pool with no observations for a metric gets
// Defined=false with zeroed fields, never a silent NaN.
func ComputePool(m *domain.Matrix, pool domain.PoolKey) []domain.PoolStatistics {
	result := make([]domain.PoolStatistics, 0, len(domain.AllMetrics()))
	for _, metric := range domain.AllMetrics() {
		values := observedValues(m, pool, metric)
		s := SeriesStats(values)
		s.Pool = pool
		s.Metric = metric
		result = append(result, s)
	}
	return result
}

// observedValues collects the observed cell values for one pool and metric,
// in axis order.
func observedValues(m *domain.Matrix, pool domain.PoolKey, metric domain.Metric) []float64 {
	var values []float64
	for i := range m.Dates {
		if c := m.APY(metric, pool, i); c.Observed {
			values = append(values, c.Value)
		}
	}
	return values
}

// MinVolatilityObservations is the shortest series for which volatility is
// reported. Below it the estimate is too noisy to be meaningful.
const MinVolatilityObservations = 30

// SeriesStats computes mean, population stddev, min, max, count and
// volatility over a value slice. Stddev divides by N (population formula),
// not N-1; that is a fixed design choice, matching the source data's summary
// semantics. Empty input returns Defined=false.
func SeriesStats(values []float64) domain.PoolStatistics {
	n := len(values)
	if n == 0 {
		return domain.PoolStatistics{Defined: false}
	}

	sum := 0.0
	min := values[0]
	max := values[0]
	for _, v := range values {
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	mean := sum / float64(n)

	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	stddev := math.Sqrt(sumSq / float64(n))

	vol, volDefined := Volatility(values)

	return domain.PoolStatistics{
		Mean:    mean,
		Stddev:  stddev,
		Min:     min,
		Max:     max,
		Count:   n,
		Defined: true,

		Volatility:        vol,
		VolatilityDefined: volDefined,
	}
}

// Volatility computes the sample standard deviation of consecutive
// day-over-day changes in a value series. Unlike the level stddev this uses
// the N-1 denominator: the diffs are treated as a sample of the pool's
// day-to-day behavior, not a complete description of it.
// Series shorter than MinVolatilityObservations report ok=false.
func Volatility(values []float64) (volatility float64, ok bool) {
	if len(values) < MinVolatilityObservations {
		return 0, false
	}

	diffs := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		diffs = append(diffs, values[i]-values[i-1])
	}

	sum := 0.0
	for _, d := range diffs {
		sum += d
	}
	mean := sum / float64(len(diffs))

	sumSq := 0.0
	for _, d := range diffs {
		dev := d - mean
		sumSq += dev * dev
	}

	return math.Sqrt(sumSq / float64(len(diffs)-1)), true
}
