package strategy

import (
	"testing"
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/reconcile"
)

var (
	poolA = domain.PoolKey{Protocol: "aave-v3", Asset: "usdc", Chain: "ethereum"}
	poolB = domain.PoolKey{Protocol: "morpho", Asset: "usdt", Chain: "base"}
	poolC = domain.PoolKey{Protocol: "zeta", Asset: "dai", Chain: "polygon"}
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func matrix(t *testing.T, series ...domain.PoolSeries) *domain.Matrix {
	t.Helper()
	m, err := reconcile.Reconcile(series)
	if err != nil {
		t.Fatalf("Unexpected reconcile error: %v", err)
	}
	return m
}

func TestSelectBest_PicksMaximum(t *testing.T) {
	m := matrix(t,
		domain.PoolSeries{Key: poolA, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYTotal: 5}}},
		domain.PoolSeries{Key: poolB, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYTotal: 9}}},
	)

	decisions := SelectBest(m, domain.MetricTotal)

	if len(decisions) != 1 {
		t.Fatalf("Expected 1 decision, got %d", len(decisions))
	}
	d := decisions[0]
	if !d.Decided {
		t.Fatal("Expected a decision")
	}
	if d.Pool != poolB || d.Value != 9 {
		t.Errorf("Expected poolB at 9, got %v at %v", d.Pool, d.Value)
	}
}

func TestSelectBest_TieBreaksLexically(t *testing.T) {
	// Both pools at exactly 7.0: the lexically-first key must win, every run.
	m := matrix(t,
		domain.PoolSeries{Key: poolB, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYTotal: 7}}},
		domain.PoolSeries{Key: poolA, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYTotal: 7}}},
	)

	for run := 0; run < 10; run++ {
		decisions := SelectBest(m, domain.MetricTotal)
		if decisions[0].Pool != poolA {
			t.Fatalf("Run %d: expected lexically-first pool %v, got %v", run, poolA, decisions[0].Pool)
		}
	}
}

func TestSelectBest_FilledCellCannotWin(t *testing.T) {
	// Day 2: poolA has a filled cell (no observation), poolB observed a real 0%.
	// The real zero wins; the filled zero is not a candidate.
	m := matrix(t,
		domain.PoolSeries{Key: poolA, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYTotal: 5}}},
		domain.PoolSeries{Key: poolB, Records: []domain.PoolRecord{{Date: day(2), TVL: 100, APYTotal: 0}}},
	)

	decisions := SelectBest(m, domain.MetricTotal)

	if decisions[1].Pool != poolB || !decisions[1].Decided {
		t.Errorf("Expected observed zero from poolB to win day 2, got %+v", decisions[1])
	}
}

func TestSelectBest_NoObservationNoDecision(t *testing.T) {
	// Construct a matrix with a day nobody observed: day 1 has observations,
	// day 2 stays fully filled.
	m := domain.NewMatrix([]time.Time{day(1), day(2)}, []domain.PoolKey{poolA, poolC})
	m.SetAPY(domain.MetricTotal, poolA, 0, domain.Cell{Value: 1, Observed: true})
	m.SetAPY(domain.MetricTotal, poolC, 0, domain.Cell{Value: 2, Observed: true})

	decisions := SelectBest(m, domain.MetricTotal)

	if !decisions[0].Decided {
		t.Error("Day 1: expected a decision")
	}
	if decisions[1].Decided {
		t.Errorf("Day 2: expected no decision when every cell is filled, got %+v", decisions[1])
	}
}

func TestSelectBest_PerMetricIndependence(t *testing.T) {
	m := matrix(t,
		domain.PoolSeries{Key: poolA, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYBase: 8, APYReward: 0, APYTotal: 8}}},
		domain.PoolSeries{Key: poolB, Records: []domain.PoolRecord{{Date: day(1), TVL: 100, APYBase: 2, APYReward: 7, APYTotal: 9}}},
	)

	all := SelectBestAll(m)

	if all[domain.MetricBase][0].Pool != poolA {
		t.Errorf("Base: expected poolA, got %v", all[domain.MetricBase][0].Pool)
	}
	if all[domain.MetricReward][0].Pool != poolB {
		t.Errorf("Reward: expected poolB, got %v", all[domain.MetricReward][0].Pool)
	}
	if all[domain.MetricTotal][0].Pool != poolB {
		t.Errorf("Total: expected poolB, got %v", all[domain.MetricTotal][0].Pool)
	}
}

func TestRealized_SkipsUndecidedDays(t *testing.T) {
	decisions := []domain.AllocationDecision{
		{Date: day(1), Metric: domain.MetricTotal, Pool: poolA, Value: 5, Decided: true},
		{Date: day(2), Metric: domain.MetricTotal, Decided: false},
		{Date: day(3), Metric: domain.MetricTotal, Pool: poolB, Value: 7, Decided: true},
	}

	points := Realized(decisions)

	if len(points) != 2 {
		t.Fatalf("Expected 2 realized points, got %d", len(points))
	}
	if points[0].Value != 5 || points[1].Value != 7 {
		t.Errorf("Expected values 5 and 7, got %v and %v", points[0].Value, points[1].Value)
	}
}

func TestPoolShares(t *testing.T) {
	decisions := []domain.AllocationDecision{
		{Date: day(1), Pool: poolA, Value: 5, Decided: true},
		{Date: day(2), Pool: poolA, Value: 6, Decided: true},
		{Date: day(3), Pool: poolB, Value: 7, Decided: true},
		{Date: day(4), Decided: false},
	}

	shares := PoolShares(decisions)

	if len(shares) != 2 {
		t.Fatalf("Expected 2 pools, got %d", len(shares))
	}
	if shares[0].Pool != poolA || shares[0].Days != 2 {
		t.Errorf("Expected poolA with 2 days first, got %+v", shares[0])
	}
	// Undecided day excluded from denominator: 2/3, not 2/4.
	if shares[0].Share < 0.66 || shares[0].Share > 0.67 {
		t.Errorf("Expected share ~2/3, got %v", shares[0].Share)
	}
}

func TestPoolShares_Empty(t *testing.T) {
	if shares := PoolShares(nil); shares != nil {
		t.Errorf("Expected nil shares for no decisions, got %v", shares)
	}
}
