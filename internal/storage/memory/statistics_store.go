package memory

import (
	"context"
	"sort"
	"sync"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// statKey identifies one statistics row.
type statKey struct {
	pool   domain.PoolKey
	metric domain.Metric
}

// StatisticsStore is an in-memory implementation of storage.StatisticsStore.
type StatisticsStore struct {
	mu   sync.RWMutex
	data map[statKey]domain.PoolStatistics
}

// NewStatisticsStore creates a new in-memory statistics store.
func NewStatisticsStore() *StatisticsStore {
	return &StatisticsStore{
		data: make(map[statKey]domain.PoolStatistics),
	}
}

// Compile-time interface check.
var _ storage.StatisticsStore = (*StatisticsStore)(nil)

// InsertBulk adds multiple statistics rows. Fails the entire batch on any
// duplicate (pool, metric).
func (s *StatisticsStore) InsertBulk(_ context.Context, stats []domain.PoolStatistics) error {
	if len(stats) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[statKey]struct{}, len(stats))
	for _, st := range stats {
		if st.Pool == (domain.PoolKey{}) {
			return storage.ErrInvalidInput
		}
		k := statKey{st.Pool, st.Metric}
		if _, ok := s.data[k]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batchKeys[k]; ok {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, st := range stats {
		s.data[statKey{st.Pool, st.Metric}] = st
	}

	return nil
}

// GetAll retrieves all statistics, ordered by pool key then metric.
func (s *StatisticsStore) GetAll(_ context.Context) ([]domain.PoolStatistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.PoolStatistics, 0, len(s.data))
	for _, st := range s.data {
		result = append(result, st)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Pool != result[j].Pool {
			return result[i].Pool.Less(result[j].Pool)
		}
		return result[i].Metric < result[j].Metric
	})

	return result, nil
}
