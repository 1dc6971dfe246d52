// Package reconcile builds the union date axis across pools and reindexes
// every series onto it.
package reconcile

import (
	"fmt"
	"sort"
	"time"

	"defi-yield-lab/internal/domain"
)

// Reconcile aligns normalized per-pool series onto one common date axis.
// Dates a pool never reported become filled cells: zero value, Observed=false,
// for TVL and every yield metric. The filled flag is what lets downstream
// stages exclude gaps from statistics while still giving them zero weight in
// aggregation.
//
// Deterministic for any input ordering: the axis is the sorted union of all
// dates, pools are sorted by key. Empty input yields an empty matrix.
//
// The returned error is always a wrapped domain.ErrInvariantViolation and
// indicates a bug in this package, not bad input; callers must treat it as
// fatal.
func Reconcile(series []domain.PoolSeries) (*domain.Matrix, error) {
	dates := unionDates(series)
	pools := sortedKeys(series)

	m := domain.NewMatrix(dates, pools)

	index := make(map[time.Time]int, len(dates))
	for i, d := range dates {
		index[d] = i
	}

	for _, s := range series {
		for _, rec := range s.Records {
			i, ok := index[rec.Date]
			if !ok {
				return nil, fmt.Errorf("%w: date %s of pool %s missing from union axis",
					domain.ErrInvariantViolation, rec.Date.Format("2006-01-02"), s.Key)
			}
			m.SetTVL(s.Key, i, domain.Cell{Value: rec.TVL, Observed: true})
			for _, metric := range domain.AllMetrics() {
				m.SetAPY(metric, s.Key, i, domain.Cell{Value: rec.APY(metric), Observed: true})
			}
		}
	}

	if err := checkInvariants(m); err != nil {
		return nil, err
	}
	return m, nil
}

// unionDates returns the sorted union of every distinct date across all series.
func unionDates(series []domain.PoolSeries) []time.Time {
	seen := make(map[time.Time]struct{})
	for _, s := range series {
		for _, rec := range s.Records {
			seen[rec.Date] = struct{}{}
		}
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// sortedKeys returns the pool keys in lexical order.
func sortedKeys(series []domain.PoolSeries) []domain.PoolKey {
	keys := make([]domain.PoolKey, 0, len(series))
	for _, s := range series {
		keys = append(keys, s.Key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// checkInvariants verifies the reconciled matrix is internally consistent:
// strictly increasing axis, every pool row exactly axis-length.
func checkInvariants(m *domain.Matrix) error {
	for i := 1; i < len(m.Dates); i++ {
		if !m.Dates[i-1].Before(m.Dates[i]) {
			return fmt.Errorf("%w: date axis not strictly increasing at index %d",
				domain.ErrInvariantViolation, i)
		}
	}
	for _, p := range m.Pools {
		if m.RowLen(p) != len(m.Dates) {
			return fmt.Errorf("%w: pool %s row length %d != axis length %d",
				domain.ErrInvariantViolation, p, m.RowLen(p), len(m.Dates))
		}
	}
	return nil
}
