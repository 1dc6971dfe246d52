package memory

import (
	"context"
	"sort"
	"sync"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

// DecisionStore is an in-memory implementation of storage.DecisionStore.
type DecisionStore struct {
	mu   sync.RWMutex
	data map[seriesKey]domain.AllocationDecision
}

// NewDecisionStore creates a new in-memory decision store.
func NewDecisionStore() *DecisionStore {
	return &DecisionStore{
		data: make(map[seriesKey]domain.AllocationDecision),
	}
}

// Compile-time interface check.
var _ storage.DecisionStore = (*DecisionStore)(nil)

// InsertBulk adds multiple decisions. Fails the entire batch on any duplicate
// (date, metric).
func (s *DecisionStore) InsertBulk(_ context.Context, decisions []domain.AllocationDecision) error {
	if len(decisions) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[seriesKey]struct{}, len(decisions))
	for _, d := range decisions {
		if d.Date.IsZero() {
			return storage.ErrInvalidInput
		}
		k := seriesKey{domain.Day(d.Date), d.Metric}
		if _, ok := s.data[k]; ok {
			return storage.ErrDuplicateKey
		}
		if _, ok := batchKeys[k]; ok {
			return storage.ErrDuplicateKey
		}
		batchKeys[k] = struct{}{}
	}

	for _, d := range decisions {
		d.Date = domain.Day(d.Date)
		s.data[seriesKey{d.Date, d.Metric}] = d
	}

	return nil
}

// GetByMetric retrieves the series for one metric, ordered by date ASC.
func (s *DecisionStore) GetByMetric(_ context.Context, metric domain.Metric) ([]domain.AllocationDecision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.AllocationDecision
	for _, d := range s.data {
		if d.Metric == metric {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Date.Before(result[j].Date)
	})

	return result, nil
}
