package defillama

import (
	"strings"

	"defi-yield-lab/internal/domain"
)

// FilterPools returns the pools belonging to the universe, skipping pools
// below the universe's TVL floor.
func FilterPools(pools []Pool, u domain.Universe) []Pool {
	var matched []Pool
	for _, p := range pools {
		if !u.MatchesPool(p.Project, p.Symbol, p.Chain) {
			continue
		}
		if u.MinTVL > 0 && p.TVLUSD < u.MinTVL {
			continue
		}
		matched = append(matched, p)
	}
	return matched
}

// KeyFor derives the stable pool identity from a listing entry.
func KeyFor(p Pool) domain.PoolKey {
	return domain.PoolKey{
		Protocol: keyPart(p.Project),
		Asset:    keyPart(p.Symbol),
		Chain:    keyPart(p.Chain),
	}
}

func keyPart(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "_")
}

// ChartToRecords converts chart history into daily records, keeping only
// points inside the universe window. Null APY components become zero: the
// source reports null, not 0, when a pool pays no reward.
func ChartToRecords(points []ChartPoint, u domain.Universe) []domain.PoolRecord {
	var records []domain.PoolRecord
	for _, p := range points {
		date := domain.Day(p.Timestamp.Time)
		if date.IsZero() || !u.InWindow(date) {
			continue
		}

		records = append(records, domain.PoolRecord{
			Date:      date,
			TVL:       p.TVLUSD,
			APYBase:   orZero(p.APYBase),
			APYReward: orZero(p.APYReward),
			APYTotal:  orZero(p.APY),
		})
	}
	return records
}

func orZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
