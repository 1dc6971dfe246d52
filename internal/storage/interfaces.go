package storage

import (
	"context"

	"defi-yield-lab/internal/domain"
)

// PoolRecordStore provides access to raw daily pool observations, as handed
// over by the acquisition layer before normalization.
type PoolRecordStore interface {
	// InsertBulk adds multiple records for one pool atomically.
	// Fails the entire batch on any duplicate (pool, date).
	InsertBulk(ctx context.Context, key domain.PoolKey, records []domain.PoolRecord) error

	// GetByPool retrieves all records for a pool, ordered by date ASC.
	// Returns ErrNotFound if the pool has no records.
	GetByPool(ctx context.Context, key domain.PoolKey) ([]domain.PoolRecord, error)

	// ListPools returns every pool key present, in lexical order.
	ListPools(ctx context.Context) ([]domain.PoolKey, error)
}

// StatisticsStore provides access to per-pool summary statistics.
type StatisticsStore interface {
	// InsertBulk adds multiple statistics rows. Fails the entire batch on
	// any duplicate (pool, metric).
	InsertBulk(ctx context.Context, stats []domain.PoolStatistics) error

	// GetAll retrieves all statistics, ordered by pool key then metric.
	GetAll(ctx context.Context) ([]domain.PoolStatistics, error)
}

// AggregateStore provides access to the TVL-weighted aggregate series.
type AggregateStore interface {
	// InsertBulk adds multiple points. Fails the entire batch on any
	// duplicate (date, metric). Undefined points are stored with their
	// marker intact, never coerced to zero.
	InsertBulk(ctx context.Context, points []domain.WeightedAggregatePoint) error

	// GetByMetric retrieves the series for one metric, ordered by date ASC.
	GetByMetric(ctx context.Context, metric domain.Metric) ([]domain.WeightedAggregatePoint, error)
}

// DecisionStore provides access to the best-allocation decision series.
type DecisionStore interface {
	// InsertBulk adds multiple decisions. Fails the entire batch on any
	// duplicate (date, metric). No-decision days are stored with their
	// marker intact.
	InsertBulk(ctx context.Context, decisions []domain.AllocationDecision) error

	// GetByMetric retrieves the series for one metric, ordered by date ASC.
	GetByMetric(ctx context.Context, metric domain.Metric) ([]domain.AllocationDecision, error)
}
