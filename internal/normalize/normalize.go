// Package normalize validates and canonicalizes one pool's raw daily series.
package normalize

import (
	"fmt"
	"math"
	"sort"
	"time"

	"defi-yield-lab/internal/domain"
)

// Normalize turns a raw row sequence for one pool into a clean PoolSeries:
// malformed rows are dropped with a diagnostic, duplicate dates are resolved
// per the policy, and the result is sorted ascending by date.
//
// Pure transform: row-level problems never abort the series.
func Normalize(key domain.PoolKey, rows []domain.PoolRecord, policy domain.DedupePolicy) (domain.PoolSeries, []domain.Diagnostic) {
	if policy == "" {
		policy = domain.DedupeLastWins
	}

	var diags []domain.Diagnostic

	// Validate rows, keeping collection order for the dedupe tie-break.
	// Day() canonicalizes dates to UTC midnight, so time.Time map keys are safe.
	byDate := make(map[time.Time]domain.PoolRecord, len(rows))
	var order []time.Time
	for _, row := range rows {
		if diag, ok := validate(key, row); !ok {
			diags = append(diags, diag)
			continue
		}
		row.Date = domain.Day(row.Date)
		d := row.Date

		if _, seen := byDate[d]; !seen {
			byDate[d] = row
			order = append(order, d)
			continue
		}
		diags = append(diags, domain.Diagnostic{
			Pool:   key,
			Date:   row.Date,
			Field:  "date",
			Reason: fmt.Sprintf("duplicate date resolved by %s policy", policy),
		})
		if policy == domain.DedupeLastWins {
			byDate[d] = row
		}
	}

	records := make([]domain.PoolRecord, 0, len(order))
	for _, d := range order {
		records = append(records, byDate[d])
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].Date.Before(records[j].Date)
	})

	return domain.PoolSeries{Key: key, Records: records}, diags
}

// validate checks one raw row. Returns the diagnostic and ok=false when the
// row must be dropped.
func validate(key domain.PoolKey, row domain.PoolRecord) (domain.Diagnostic, bool) {
	if row.Date.IsZero() {
		return domain.Diagnostic{Pool: key, Field: "date", Reason: "missing date"}, false
	}
	if row.TVL < 0 {
		return domain.Diagnostic{
			Pool: key, Date: domain.Day(row.Date), Field: "tvl",
			Reason: fmt.Sprintf("negative tvl %.2f", row.TVL),
		}, false
	}
	if !isFinite(row.TVL) {
		return domain.Diagnostic{Pool: key, Date: domain.Day(row.Date), Field: "tvl", Reason: "non-finite tvl"}, false
	}
	for _, check := range []struct {
		field string
		value float64
	}{
		{"apy_base", row.APYBase},
		{"apy_reward", row.APYReward},
		{"apy_total", row.APYTotal},
	} {
		if !isFinite(check.value) {
			return domain.Diagnostic{
				Pool: key, Date: domain.Day(row.Date), Field: check.field,
				Reason: "non-finite yield",
			}, false
		}
	}
	return domain.Diagnostic{}, true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
