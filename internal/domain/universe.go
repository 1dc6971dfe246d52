package domain

import (
	"strings"
	"time"
)

// DedupePolicy resolves duplicate input dates within one pool's raw series.
type DedupePolicy string

const (
	// DedupeLastWins keeps the latest-seen record in collection order.
	// Sources occasionally re-report a day with corrected values, so the
	// latest record is the best guess. Default.
	DedupeLastWins DedupePolicy = "last-wins"

	// DedupeFirstWins keeps the first-seen record.
	DedupeFirstWins DedupePolicy = "first-wins"
)

// Universe is the explicit run configuration: which pools to consider and
// over which window. It is passed by value into collection and analysis;
// there is no process-wide configuration state.
type Universe struct {
	Protocols []string // substring-matched against the source's project field
	Assets    []string // substring-matched against the source's symbol field
	Chains    []string // substring-matched against the source's chain field

	StartDate time.Time // inclusive, UTC midnight
	EndDate   time.Time // inclusive, UTC midnight

	MinTVL float64 // pools below this current TVL are skipped at collection

	Dedupe DedupePolicy
}

// DefaultUniverse is the stablecoin lending universe: major lending
// protocols, USD stables, mainstream chains.
func DefaultUniverse() Universe {
	return Universe{
		Protocols: []string{"aave", "fluid", "morpho", "euler", "kamino", "ethena", "sky.money", "ondo", "elixir", "openeden"},
		Assets:    []string{"usdc", "usdt", "usds", "susds", "usde", "usdt0", "dai"},
		Chains:    []string{"ethereum", "base", "arbitrum", "avalanche", "bnb", "polygon"},
		StartDate: time.Date(2024, 6, 6, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC),
		Dedupe:    DedupeLastWins,
	}
}

// DedupeOrDefault returns the configured policy, defaulting to last-wins.
func (u Universe) DedupeOrDefault() DedupePolicy {
	if u.Dedupe == "" {
		return DedupeLastWins
	}
	return u.Dedupe
}

// InWindow reports whether a date falls inside [StartDate, EndDate].
// A zero StartDate or EndDate leaves that side unbounded.
func (u Universe) InWindow(date time.Time) bool {
	if !u.StartDate.IsZero() && date.Before(u.StartDate) {
		return false
	}
	if !u.EndDate.IsZero() && date.After(u.EndDate) {
		return false
	}
	return true
}

// MatchesPool reports whether a (project, symbol, chain) triple from the
// source belongs to the universe. Matching is case-insensitive substring,
// so "aave" covers aave-v2 and aave-v3.
func (u Universe) MatchesPool(project, symbol, chain string) bool {
	return matchesAny(project, u.Protocols) &&
		matchesAny(symbol, u.Assets) &&
		matchesAny(chain, u.Chains)
}

func matchesAny(value string, targets []string) bool {
	if len(targets) == 0 {
		return true
	}
	v := strings.ToLower(value)
	for _, t := range targets {
		if strings.Contains(v, strings.ToLower(t)) {
			return true
		}
	}
	return false
}
