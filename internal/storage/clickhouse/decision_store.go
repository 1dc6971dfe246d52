package clickhouse

import (
	"context"
	"fmt"
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// DecisionStore implements storage.DecisionStore using ClickHouse.
type DecisionStore struct {
	conn *Conn
}

// NewDecisionStore creates a new DecisionStore.
func NewDecisionStore(conn *Conn) *DecisionStore {
	return &DecisionStore{conn: conn}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

// InsertBulk adds multiple decisions. Fails entire batch on duplicate (date, metric).
// No-decision days are stored with decided=false and an empty pool key.
func (s *DecisionStore) InsertBulk(ctx context.Context, decisions []domain.AllocationDecision) error {
	if len(decisions) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	type key struct {
		date   time.Time
		metric domain.Metric
	}
	seen := make(map[key]struct{})
	for _, d := range decisions {
		k := key{d.Date, d.Metric}
		if _, exists := seen[k]; exists {
			return storage.ErrDuplicateKey
		}
		seen[k] = struct{}{}
	}

	// Check for duplicates against existing DB rows
	for _, d := range decisions {
		exists, err := s.exists(ctx, d.Date, d.Metric)
		if err != nil {
			return fmt.Errorf("check exists: %w", err)
		}
		if exists {
			return storage.ErrDuplicateKey
		}
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO allocation_decisions (
			date, metric, protocol, asset, chain, value, decided
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, d := range decisions {
		err = batch.Append(
			d.Date, string(d.Metric),
			d.Pool.Protocol, d.Pool.Asset, d.Pool.Chain,
			d.Value, d.Decided,
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
func (s *DecisionStore) GetByMetric(ctx context.Context, metric domain.Metric) ([]domain.AllocationDecision, error) {
	query := `
		SELECT date, metric, protocol, asset, chain, value, decided
		FROM allocation_decisions
		WHERE metric = ?
		ORDER BY date ASC
	`

	rows, err := s.conn.Query(ctx, query, string(metric))
	if err != nil {
		return nil, fmt.Errorf("query decisions by metric: %w", err)
	}
	defer rows.Close()

	return scanDecisions(rows)
}

// exists checks if a decision with the given key exists.
func (s *DecisionStore) exists(ctx context.Context, date time.Time, metric domain.Metric) (bool, error) {
	query := `
		SELECT count(*) FROM allocation_decisions
		WHERE date = ? AND metric = ?
	`

	var count uint64
	err := s.conn.QueryRow(ctx, query, date, string(metric)).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// scanDecisions scans multiple rows.
func scanDecisions(rows chRows) ([]domain.AllocationDecision, error) {
	var decisions []domain.AllocationDecision

	for rows.Next() {
		var d domain.AllocationDecision
		var metric string

		err := rows.Scan(
			&d.Date, &metric,
			&d.Pool.Protocol, &d.Pool.Asset, &d.Pool.Chain,
			&d.Value, &d.Decided,
		)
		if err != nil {
			return nil, fmt.Errorf("scan decision row: %w", err)
		}

		d.Metric = domain.Metric(metric)
		d.Date = d.Date.UTC()
		decisions = append(decisions, d)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate decision rows: %w", err)
	}

	return decisions, nil
}
