package domain

import "fmt"

// Metric identifies one of the yield metrics tracked per pool.
type Metric string

const (
	MetricBase   Metric = "apy_base"
	MetricReward Metric = "apy_reward"
	MetricTotal  Metric = "apy_total"
)

// AllMetrics returns every metric in a fixed order. Iteration order matters
// for deterministic output, so callers must not reorder.
func AllMetrics() []Metric {
	return []Metric{MetricBase, MetricReward, MetricTotal}
}

// ParseMetric converts a string to a Metric.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricBase, MetricReward, MetricTotal:
		return Metric(s), nil
	}
	return "", fmt.Errorf("unknown metric %q", s)
}
