package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// PoolRecordStore implements storage.PoolRecordStore using PostgreSQL.
type PoolRecordStore struct {
	pool *Pool
}

// NewPoolRecordStore creates a new PoolRecordStore.
func NewPoolRecordStore(pool *Pool) *PoolRecordStore {
	return &PoolRecordStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PoolRecordStore = (*PoolRecordStore)(nil)

// InsertBulk adds multiple records for one pool atomically.
// Returns ErrDuplicateKey if any (protocol, asset, chain, date) exists.
func (s *PoolRecordStore) InsertBulk(ctx context.Context, key domain.PoolKey, records []domain.PoolRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO pool_records (
			protocol, asset, chain, date, tvl, apy_base, apy_reward, apy_total
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, rec := range records {
		_, err := tx.Exec(ctx, query,
			key.Protocol,
			key.Asset,
			key.Chain,
			rec.Date,
			rec.TVL,
			rec.APYBase,
			rec.APYReward,
			rec.APYTotal,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert pool record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetByPool retrieves all records for a pool, ordered by date ASC.
// Returns ErrNotFound if the pool has no records.
func (s *PoolRecordStore) GetByPool(ctx context.Context, key domain.PoolKey) ([]domain.PoolRecord, error) {
	query := `
		SELECT date, tvl, apy_base, apy_reward, apy_total
		FROM pool_records
		WHERE protocol = $1 AND asset = $2 AND chain = $3
		ORDER BY date ASC
	`

	rows, err := s.pool.Query(ctx, query, key.Protocol, key.Asset, key.Chain)
	if err != nil {
		return nil, fmt.Errorf("get records by pool: %w", err)
	}
	defer rows.Close()

	records, err := scanPoolRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, storage.ErrNotFound
	}
	return records, nil
}

// ListPools returns every pool key present, in lexical order.
func (s *PoolRecordStore) ListPools(ctx context.Context) ([]domain.PoolKey, error) {
	query := `
		SELECT DISTINCT protocol, asset, chain
		FROM pool_records
		ORDER BY protocol ASC, asset ASC, chain ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}
	defer rows.Close()

	var keys []domain.PoolKey
	for rows.Next() {
		var key domain.PoolKey
		if err := rows.Scan(&key.Protocol, &key.Asset, &key.Chain); err != nil {
			return nil, fmt.Errorf("scan pool key row: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool key rows: %w", err)
	}

	return keys, nil
}

// scanPoolRecords scans multiple rows into a slice of PoolRecord.
func scanPoolRecords(rows pgx.Rows) ([]domain.PoolRecord, error) {
	var records []domain.PoolRecord

	for rows.Next() {
		var rec domain.PoolRecord

		err := rows.Scan(
			&rec.Date,
			&rec.TVL,
			&rec.APYBase,
			&rec.APYReward,
			&rec.APYTotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan pool record row: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pool record rows: %w", err)
	}

	return records, nil
}
