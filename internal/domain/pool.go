package domain

import (
	"fmt"
	"strings"
	"time"
)

// PoolKey identifies a single lending market instance.
// Corresponds to the (protocol, asset, chain) composite key used across all tables.
type PoolKey struct {
	Protocol string // e.g. "aave-v3"
	Asset    string // e.g. "usdc"
	Chain    string // e.g. "ethereum"
}

// String renders the key as "protocol_asset_chain", the same naming the
// collector uses for per-pool files.
func (k PoolKey) String() string {
	return k.Protocol + "_" + k.Asset + "_" + k.Chain
}

// Less orders keys lexically by (protocol, asset, chain). This ordering is
// load-bearing: best-pool ties are broken by it, so it must stay total and
// deterministic.
func (k PoolKey) Less(other PoolKey) bool {
	if k.Protocol != other.Protocol {
		return k.Protocol < other.Protocol
	}
	if k.Asset != other.Asset {
		return k.Asset < other.Asset
	}
	return k.Chain < other.Chain
}

// ParsePoolKey parses a "protocol/asset/chain" string into a PoolKey.
// The slash form is used for flag arguments: key parts can themselves
// contain underscores (e.g. "sky_money"), so the underscore-joined display
// form cannot be split back unambiguously.
func ParsePoolKey(s string) (PoolKey, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return PoolKey{}, fmt.Errorf("malformed pool key %q, want protocol/asset/chain", s)
	}
	return PoolKey{Protocol: parts[0], Asset: parts[1], Chain: parts[2]}, nil
}

// PoolRecord represents one daily observation for a pool.
// Corresponds to the pool_records table in PostgreSQL.
type PoolRecord struct {
	Date      time.Time // calendar day, UTC midnight
	TVL       float64   // total value locked, USD
	APYBase   float64   // interest yield, percent
	APYReward float64   // incentive emissions, percent
	APYTotal  float64   // base + reward, percent (as reported by the source)
}

// APY returns the record's value for the given metric.
func (r PoolRecord) APY(m Metric) float64 {
	switch m {
	case MetricBase:
		return r.APYBase
	case MetricReward:
		return r.APYReward
	default:
		return r.APYTotal
	}
}

// PoolSeries is one pool's daily series, ordered ascending by date after
// normalization, with no duplicate dates.
type PoolSeries struct {
	Key     PoolKey
	Records []PoolRecord
}

// Day truncates t to UTC midnight. All dates in the system pass through this.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
