// Package aggregate computes TVL-weighted blended yields across pools.
package aggregate

import "defi-yield-lab/internal/domain"

// Weighted computes the liquidity-weighted mean of one yield metric across
// all pools, per axis date. weight(p) = tvl(d,p) / sum_q tvl(d,q).
//
// Filled TVL cells are zero and so contribute zero weight. When the total TVL
// for a date is zero the aggregate is undefined (Defined=false), never zero:
// "nobody had money deployed" is not the same as "the blended yield was 0%".
//
// A pool can hold observed TVL while its yield cell is filled; it then pulls
// the aggregate toward zero with real weight. That distortion is a known,
// accepted approximation of the source data.
func Weighted(m *domain.Matrix, metric domain.Metric) []domain.WeightedAggregatePoint {
	points := make([]domain.WeightedAggregatePoint, 0, len(m.Dates))

	for i, date := range m.Dates {
		var totalTVL, weightedSum float64
		for _, pool := range m.Pools {
			tvl := m.TVL(pool, i).Value
			totalTVL += tvl
			weightedSum += tvl * m.APY(metric, pool, i).Value
		}

		point := domain.WeightedAggregatePoint{
			Date:     date,
			Metric:   metric,
			TotalTVL: totalTVL,
		}
		if totalTVL > 0 {
			point.Value = weightedSum / totalTVL
			point.Defined = true
		}
		points = append(points, point)
	}

	return points
}

// WeightedAll computes the weighted aggregate series for every metric, in
// domain.AllMetrics order.
func WeightedAll(m *domain.Matrix) map[domain.Metric][]domain.WeightedAggregatePoint {
	result := make(map[domain.Metric][]domain.WeightedAggregatePoint, len(domain.AllMetrics()))
	for _, metric := range domain.AllMetrics() {
		result[metric] = Weighted(m, metric)
	}
	return result
}
