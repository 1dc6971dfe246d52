package clickhouse

import (
	"context"
	"fmt"
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// AggregateStore implements storage.AggregateStore using ClickHouse.
type AggregateStore struct {
	conn *Conn
}

// NewAggregateStore creates a new AggregateStore.
func NewAggregateStore(conn *Conn) *AggregateStore {
	return &AggregateStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

// InsertBulk adds multiple points. Fails entire batch on duplicate (date, metric).
// Undefined points are stored with defined=false, never coerced to zero.
func (s *AggregateStore) InsertBulk(ctx context.Context, points []domain.WeightedAggregatePoint) error {
	if len(points) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		date   time.Time
		metric domain.Metric
	}
	seen := make(map[key]struct{})
	for _, p := range points {
		k := key{p.Date, p.Metric}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, p := range points {
		exists, err := s.exists(ctx, p.Date, p.Metric)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO weighted_aggregates (
			date, metric, value, total_tvl, defined
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range points {
		err = batch.Append(
			p.Date, string(p.Metric), p.Value, p.TotalTVL, p.Defined,
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetByMetric retrieves the series for one metric, ordered by date ASC.
func (s *AggregateStore) GetByMetric(ctx context.Context, metric domain.Metric) ([]domain.WeightedAggregatePoint, error) {
	query := `
		SELECT date, metric, value, total_tvl, defined
		FROM weighted_aggregates
		WHERE metric = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, string(metric))
	if err != nil {
		return nil, fmt.Errorf("query aggregates by metric: %w", err)
	}
	defer rows.Close()

	return scanAggregates(rows)
}

// exists checks if a point with the given key exists.
func (s *AggregateStore) exists(ctx context.Context, date time.Time, metric domain.Metric) (bool, error) {
	query := `
		SELECT count(*) FROM weighted_aggregates
		WHERE date = ? AND metric = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, date, string(metric)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanAggregates scans multiple rows.
func scanAggregates(rows chRows) ([]domain.WeightedAggregatePoint, error) {
	var points []domain.WeightedAggregatePoint

	for rows.Next() {
		var p domain.WeightedAggregatePoint
		var metric string

		err := rows.Scan(&p.Date, &metric, &p.Value, &p.TotalTVL, &p.Defined)
		if err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}

		p.Metric = domain.Metric(metric)
		p.Date = p.Date.UTC()
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate aggregate rows: %w", err)
	}

	return points, nil
}
