package memory

import (
	"context"
	"errors"
	"testing"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/storage"
)

func TestDecisionStore_RoundTrip(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	decisions := []domain.AllocationDecision{
		{Date: day(2), Metric: domain.MetricTotal, Pool: testKey, Value: 6.0, Decided: true},
		{Date: day(1), Metric: domain.MetricTotal, Pool: testKey, Value: 5.0, Decided: true},
		{Date: day(1), Metric: domain.MetricBase, Decided: false},
	}

	if err := store.InsertBulk(ctx, decisions); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	total, err := store.GetByMetric(ctx, domain.MetricTotal)
	if err != nil {
		t.Fatalf("GetByMetric failed: %v", err)
	}
	if len(total) != 2 {
		t.Fatalf("Expected 2 total-metric decisions, got %d", len(total))
	}
	if !total[0].Date.Before(total[1].Date) {
		t.Error("Expected date ASC order")
	}

	// The no-decision marker survives the round trip.
	base, err := store.GetByMetric(ctx, domain.MetricBase)
	if err != nil {
		t.Fatalf("GetByMetric failed: %v", err)
	}
	if len(base) != 1 || base[0].Decided {
		t.Errorf("Expected one undecided base-metric day, got %+v", base)
	}
}

func TestDecisionStore_DuplicateDateMetric(t *testing.T) {
	store := NewDecisionStore()
	ctx := context.Background()

	d := []domain.AllocationDecision{{Date: day(1), Metric: domain.MetricTotal, Decided: false}}

	if err := store.InsertBulk(ctx, d); err != nil {
		t.Fatalf("First insert failed: %v", err)
	}
	if err := store.InsertBulk(ctx, d); !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("Expected ErrDuplicateKey, got %v", err)
	}
}

func TestAggregateStore_UndefinedMarkerSurvives(t *testing.T) {
	store := NewAggregateStore()
	ctx := context.Background()

	points := []domain.WeightedAggregatePoint{
		{Date: day(1), Metric: domain.MetricTotal, Value: 8.75, TotalTVL: 400, Defined: true},
		{Date: day(2), Metric: domain.MetricTotal, Defined: false},
	}

	if err := store.InsertBulk(ctx, points); err != nil {
		t.Fatalf("InsertBulk failed: %v", err)
	}

	result, err := store.GetByMetric(ctx, domain.MetricTotal)
	if err != nil {
		t.Fatalf("GetByMetric failed: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("Expected 2 points, got %d", len(result))
	}
	if !result[0].Defined || result[0].Value != 8.75 {
		t.Errorf("Expected defined 8.75, got %+v", result[0])
	}
	if result[1].Defined {
		t.Errorf("Expected undefined marker to survive, got %+v", result[1])
	}
}
