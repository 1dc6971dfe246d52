package postgres

import (
	"context"
	"fmt"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// StatisticsStore implements storage.StatisticsStore using PostgreSQL.
type StatisticsStore struct {
	pool *Pool
}

// NewStatisticsStore creates a new StatisticsStore.
func NewStatisticsStore(pool *Pool) *StatisticsStore {
	return &StatisticsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StatisticsStore = (*StatisticsStore)(nil)

// InsertBulk adds multiple statistics rows atomically.
// Returns ErrDuplicateKey if any (protocol, asset, chain, metric) exists.
func (s *StatisticsStore) InsertBulk(ctx context.Context, stats []domain.PoolStatistics) error {
	if len(stats) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO pool_statistics (
			protocol, asset, chain, metric, mean, stddev, min, max, count, defined,
			volatility, volatility_defined
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, st := range stats {
		_, err := tx.Exec(ctx, query,
			st.Pool.Protocol,
			st.Pool.Asset,
			st.Pool.Chain,
			string(st.Metric),
			st.Mean,
			st.Stddev,
			st.Min,
			st.Max,
			st.Count,
			st.Defined,
			st.Volatility,
			st.VolatilityDefined,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert pool statistics in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all statistics, ordered by pool key then metric.
func (s *StatisticsStore) GetAll(ctx context.Context) ([]domain.PoolStatistics, error) {
	query := `
		SELECT protocol, asset, chain, metric, mean, stddev, min, max, count, defined,
		       volatility, volatility_defined
		FROM pool_statistics
		ORDER BY protocol ASC, asset ASC, chain ASC, metric ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all statistics: %w", err)
	}
	defer rows.Close()

	var stats []domain.PoolStatistics
	for rows.Next() {
		var st domain.PoolStatistics
		var metric string

		err := rows.Scan(
			&st.Pool.Protocol,
			&st.Pool.Asset,
			&st.Pool.Chain,
			&metric,
			&st.Mean,
			&st.Stddev,
			&st.Min,
			&st.Max,
			&st.Count,
			&st.Defined,
			&st.Volatility,
			&st.VolatilityDefined,
		)
		if err != nil {
			return nil, fmt.Errorf("scan statistics row: %w", err)
		}

		st.Metric = domain.Metric(metric)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate statistics rows: %w", err)
	}

	return stats, nil
}

// Get retrieves the statistics row for one (pool, metric).
// Returns ErrNotFound if no row exists.
func (s *StatisticsStore) Get(ctx context.Context, pool domain.PoolKey, metric domain.Metric) (domain.PoolStatistics, error) {
	query := `
		SELECT mean, stddev, min, max, count, defined, volatility, volatility_defined
		FROM pool_statistics
		WHERE protocol = $1 AND asset = $2 AND chain = $3 AND metric = $4
	`

	st := domain.PoolStatistics{Pool: pool, Metric: metric}
	err := s.pool.QueryRow(ctx, query, pool.Protocol, pool.Asset, pool.Chain, string(metric)).Scan(
		&st.Mean,
		&st.Stddev,
		&st.Min,
		&st.Max,
		&st.Count,
		&st.Defined,
		&st.Volatility,
		&st.VolatilityDefined,
	)
	if err != nil {
		if isNotFoundError(err) {
			return domain.PoolStatistics{}, storage.ErrNotFound
		}
		return domain.PoolStatistics{}, fmt.Errorf("get statistics: %w", err)
	}

	return st, nil
}
