package domain

import "time"

// Cell is one reconciled-matrix entry. Observed distinguishes a real
// observation from a gap-filled default; a real zero yield and an absent
// observation must never collapse into the same value.
type Cell struct {
	Value    float64
	Observed bool
}

// FilledCell is the gap-fill default: zero value, not observed.
var FilledCell = Cell{Value: 0, Observed: false}

// Matrix is the reconciled multi-pool dataset: a common date axis crossed
// with the pool set. Every row has exactly len(Dates) cells.
type Matrix struct {
	Dates []time.Time // sorted union date axis, UTC midnights
	Pools []PoolKey   // sorted by PoolKey lexical order

	tvl map[PoolKey][]Cell
	apy map[Metric]map[PoolKey][]Cell
}

// NewMatrix creates an empty matrix for the given axis and pool set.
// Rows are initialized to filled cells; the reconciler overwrites observed ones.
func NewMatrix(dates []time.Time, pools []PoolKey) *Matrix {
	m := &Matrix{
		Dates: dates,
		Pools: pools,
		tvl:   make(map[PoolKey][]Cell, len(pools)),
		apy:   make(map[Metric]map[PoolKey][]Cell, len(AllMetrics())),
	}
	for _, metric := range AllMetrics() {
		m.apy[metric] = make(map[PoolKey][]Cell, len(pools))
	}
	for _, p := range pools {
		m.tvl[p] = filledRow(len(dates))
		for _, metric := range AllMetrics() {
			m.apy[metric][p] = filledRow(len(dates))
		}
	}
	return m
}

func filledRow(n int) []Cell {
	row := make([]Cell, n)
	for i := range row {
		row[i] = FilledCell
	}
	return row
}

// TVL returns the TVL cell for a pool at axis index i.
func (m *Matrix) TVL(pool PoolKey, i int) Cell {
	return m.tvl[pool][i]
}

// APY returns the metric cell for a pool at axis index i.
func (m *Matrix) APY(metric Metric, pool PoolKey, i int) Cell {
	return m.apy[metric][pool][i]
}

// SetTVL sets the TVL cell for a pool at axis index i.
func (m *Matrix) SetTVL(pool PoolKey, i int, c Cell) {
	m.tvl[pool][i] = c
}

// SetAPY sets the metric cell for a pool at axis index i.
func (m *Matrix) SetAPY(metric Metric, pool PoolKey, i int, c Cell) {
	m.apy[metric][pool][i] = c
}

// RowLen returns the length of a pool's TVL row. Used by invariant checks;
// after reconciliation it must equal len(Dates) for every pool.
func (m *Matrix) RowLen(pool PoolKey) int {
	return len(m.tvl[pool])
}
