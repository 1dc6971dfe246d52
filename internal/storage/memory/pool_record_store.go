package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// PoolRecordStore is an in-memory implementation of storage.PoolRecordStore.
type PoolRecordStore struct {
	mu   sync.RWMutex
	data map[domain.PoolKey]map[time.Time]domain.PoolRecord
}

// NewPoolRecordStore creates a new in-memory pool record store.
func NewPoolRecordStore() *PoolRecordStore {
	return &PoolRecordStore{
		data: make(map[domain.PoolKey]map[time.Time]domain.PoolRecord),
	}
}

// Compile-time interface check.
var _ storage.PoolRecordStore = (*PoolRecordStore)(nil)

// InsertBulk adds multiple records for one pool atomically.
// Fails the entire batch on any duplicate (pool, date).
func (s *PoolRecordStore) InsertBulk(_ context.Context, key domain.PoolKey, records []domain.PoolRecord) error {
	if len(records) == 0 {
		return nil
	}
	if key == (domain.PoolKey{}) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing := s.data[key]

	// First pass: detect duplicates, both against existing data and
	// intra-batch.
	batchDates := make(map[time.Time]struct{}, len(records))
	for _, r := range records {
		d := domain.Day(r.Date)
		if _, ok := existing[d]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batchDates[d]; ok {
			return storage.ErrDuplicateKey
		}
		batchDates[d] = struct{}{}
	}

	// Second pass: insert all.
	if existing == nil {
		existing = make(map[time.Time]domain.PoolRecord, len(records))
		s.data[key] = existing
	}
	for _, r := range records {
		r.Date = domain.Day(r.Date)
		existing[r.Date] = r
	}

	return nil
}

// GetByPool retrieves all records for a pool, ordered by date ASC.
func (s *PoolRecordStore) GetByPool(_ context.Context, key domain.PoolKey) ([]domain.PoolRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byDate, ok := s.data[key]
	if !ok {
		return nil, storage.ErrNotFound
	}

	result := make([]domain.PoolRecord, 0, len(byDate))
	for _, r := range byDate {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}

// ListPools returns every pool key present, in lexical order.
func (s *PoolRecordStore) ListPools(_ context.Context) ([]domain.PoolKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]domain.PoolKey, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	return keys, nil
}
