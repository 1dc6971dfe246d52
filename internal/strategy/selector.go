// Package strategy derives the historical best-allocation decision series:
// which pool would have delivered the highest yield each day.
package strategy

import "defi-yield-lab/internal/domain"

// SelectBest picks, for every axis date, the pool with the highest observed
// value of the metric. Only observed cells are candidates; a gap-filled zero
// must not win a day by being the only data present. When no pool has a real
// observation the decision is Decided=false.
//
// Ties at the maximum resolve to the lexically-first PoolKey. The pool axis
// is already sorted, so scanning in order and requiring a strict improvement
// gives the stable tie-break for free.
func SelectBest(m *domain.Matrix, metric domain.Metric) []domain.AllocationDecision {
	decisions := make([]domain.AllocationDecision, 0, len(m.Dates))

	for i, date := range m.Dates {
		decision := domain.AllocationDecision{Date: date, Metric: metric}
		for _, pool := range m.Pools {
			cell := m.APY(metric, pool, i)
			if !cell.Observed {
				continue
			}
			if !decision.Decided || cell.Value > decision.Value {
				decision.Pool = pool
				decision.Value = cell.Value
				decision.Decided = true
			}
		}
		decisions = append(decisions, decision)
	}

	return decisions
}

// SelectBestAll computes the decision series for every metric.
func SelectBestAll(m *domain.Matrix) map[domain.Metric][]domain.AllocationDecision {
	result := make(map[domain.Metric][]domain.AllocationDecision, len(domain.AllMetrics()))
	for _, metric := range domain.AllMetrics() {
		result[metric] = SelectBest(m, metric)
	}
	return result
}
