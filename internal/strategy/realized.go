package strategy

import (
	"sort"

	"defi-yield-lab/internal/domain"
)

// Realized projects the yield series an allocator would have earned by
// following the daily decisions: the winning pool's value on each decided
// day. Undecided days are skipped. Pure view over the decision series; no new
// computation happens here.
func Realized(decisions []domain.AllocationDecision) []domain.RealizedPoint {
	var points []domain.RealizedPoint
	for _, d := range decisions {
		if !d.Decided {
			continue
		}
		points = append(points, domain.RealizedPoint{Date: d.Date, Pool: d.Pool, Value: d.Value})
	}
	return points
}

// PoolShare is how often one pool won the day for a metric.
type PoolShare struct {
	Pool  domain.PoolKey
	Days  int
	Share float64 // fraction of decided days, 0..1
}

// PoolShares counts each pool's winning days over the decided subset,
// sorted by descending share, ties by pool key. Undecided days are excluded
// from the denominator.
func PoolShares(decisions []domain.AllocationDecision) []PoolShare {
	counts := make(map[domain.PoolKey]int)
	decided := 0
	for _, d := range decisions {
		if !d.Decided {
			continue
		}
		counts[d.Pool]++
		decided++
	}
	if decided == 0 {
		return nil
	}

	shares := make([]PoolShare, 0, len(counts))
	for pool, days := range counts {
		shares = append(shares, PoolShare{
			Pool:  pool,
			Days:  days,
			Share: float64(days) / float64(decided),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Days != shares[j].Days {
			return shares[i].Days > shares[j].Days
		}
		return shares[i].Pool.Less(shares[j].Pool)
	})
	return shares
}
