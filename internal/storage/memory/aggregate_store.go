package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// seriesKey identifies one point of a per-metric date series.
type seriesKey struct {
	date   time.Time
	metric domain.Metric
}

// AggregateStore is an in-memory implementation of storage.AggregateStore.
type AggregateStore struct {
	mu   sync.RWMutex
	data map[seriesKey]domain.WeightedAggregatePoint
}

// NewAggregateStore creates a new in-memory aggregate store.
func NewAggregateStore() *AggregateStore {
	return &AggregateStore{
		data: make(map[seriesKey]domain.WeightedAggregatePoint),
	}
}

// Compile-time interface check.
var _ storage.AggregateStore = (*AggregateStore)(nil)

// InsertBulk adds multiple points. Fails the entire batch on any duplicate
// (date, metric).
func (s *AggregateStore) InsertBulk(_ context.Context, points []domain.WeightedAggregatePoint) error {
	if len(points) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[seriesKey]struct{}, len(points))
	for _, p := range points {
		if p.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := seriesKey{domain.Day(p.Date), p.Metric}
		if _, ok := s.data[k]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batchKeys[k]; ok {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, p := range points {
		p.Date = domain.Day(p.Date)
		s.data[seriesKey{p.Date, p.Metric}] = p
	}

	return nil
}

// GetByMetric retrieves the series for one metric, ordered by date ASC.
func (s *AggregateStore) GetByMetric(_ context.Context, metric domain.Metric) ([]domain.WeightedAggregatePoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.WeightedAggregatePoint
	for _, p := range s.data {
		if p.Metric == metric {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}
