package pipeline

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/reporting"
	"defi-yield-lab/internal/storage/memory"
)

var (
	keyAave   = domain.PoolKey{Protocol: "aave-v3", Asset: "usdc", Chain: "ethereum"}
	keyMorpho = domain.PoolKey{Protocol: "morpho", Asset: "usdt", Chain: "base"}
)

func day(d int) time.Time {
	return time.Date(2024, 6, d, 0, 0, 0, 0, time.UTC)
}

func newTestPipeline(t *testing.T) (*Pipeline, *memory.PoolRecordStore, *memory.StatisticsStore, *memory.AggregateStore, *memory.DecisionStore) {
	t.Helper()

	records := memory.NewPoolRecordStore()
	statistics := memory.NewStatisticsStore()
	aggregates := memory.NewAggregateStore()
	decisions := memory.NewDecisionStore()

	p := New(Options{
		PoolRecordStore: records,
		StatisticsStore: statistics,
		AggregateStore:  aggregates,
		DecisionStore:   decisions,
		Universe:        domain.Universe{},
		Logger:          zerolog.Nop(),
	})

	return p, records, statistics, aggregates, decisions
}

func TestRun_EndToEnd(t *testing.T) {
	p, records, _, _, _ := newTestPipeline(t)
	ctx := context.Background()

	err := records.InsertBulk(ctx, keyAave, []domain.PoolRecord{
		{Date: day(1), TVL: 100, APYBase: 4.0, APYReward: 1.0, APYTotal: 5.0},
		{Date: day(2), TVL: 110, APYBase: 4.2, APYReward: 1.0, APYTotal: 5.2},
	})
	if err != nil {
		t.Fatalf("seed aave: %v", err)
	}
	err = records.InsertBulk(ctx, keyMorpho, []domain.PoolRecord{
		{Date: day(2), TVL: 300, APYBase: 9.0, APYReward: 1.0, APYTotal: 10.0},
	})
	if err != nil {
		t.Fatalf("seed morpho: %v", err)
	}

	result, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PoolsProcessed != 2 {
		t.Errorf("expected 2 pools processed, got %d", result.PoolsProcessed)
	}
	if len(result.Matrix.Dates) != 2 {
		t.Errorf("expected union axis of 2 dates, got %d", len(result.Matrix.Dates))
	}

	// 2 pools x 3 metrics
	if len(result.Statistics) != 6 {
		t.Errorf("expected 6 statistics rows, got %d", len(result.Statistics))
	}

	total := result.Aggregates[domain.MetricTotal]
	if len(total) != 2 {
		t.Fatalf("expected 2 aggregate points, got %d", len(total))
	}
	// Day 1: only aave observed, morpho's filled TVL carries no weight.
	if !total[0].Defined || math.Abs(total[0].Value-5.0) > 1e-9 {
		t.Errorf("day 1 aggregate: %+v", total[0])
	}
	// Day 2: (110*5.2 + 300*10.0) / 410
	want := (110*5.2 + 300*10.0) / 410
	if math.Abs(total[1].Value-want) > 1e-9 {
		t.Errorf("day 2 aggregate: expected %f, got %f", want, total[1].Value)
	}

	decisions := result.Decisions[domain.MetricTotal]
	if len(decisions) != 2 {
		t.Fatalf("expected 2 decisions, got %d", len(decisions))
	}
	if decisions[0].Pool != keyAave {
		t.Errorf("day 1 should pick aave, got %v", decisions[0].Pool)
	}
	if decisions[1].Pool != keyMorpho {
		t.Errorf("day 2 should pick morpho, got %v", decisions[1].Pool)
	}

	realized := result.Realized[domain.MetricTotal]
	if len(realized) != 2 {
		t.Fatalf("expected 2 realized points, got %d", len(realized))
	}
	if realized[1].Value != 10.0 {
		t.Errorf("expected realized 10.0 on day 2, got %f", realized[1].Value)
	}
}

func TestRun_PersistsOutputs(t *testing.T) {
	p, records, statistics, aggregates, decisions := newTestPipeline(t)
	ctx := context.Background()

	err := records.InsertBulk(ctx, keyAave, []domain.PoolRecord{
		{Date: day(1), TVL: 100, APYTotal: 5.0},
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	if _, err := p.Run(ctx); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stored, err := statistics.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(stored) != 3 {
		t.Errorf("expected 3 statistics rows stored, got %d", len(stored))
	}

	aggs, err := aggregates.GetByMetric(ctx, domain.MetricTotal)
	if err != nil {
		t.Fatalf("GetByMetric: %v", err)
	}
	if len(aggs) != 1 {
		t.Errorf("expected 1 aggregate stored, got %d", len(aggs))
	}

	decs, err := decisions.GetByMetric(ctx, domain.MetricTotal)
	if err != nil {
		t.Fatalf("GetByMetric: %v", err)
	}
	if len(decs) != 1 || !decs[0].Decided {
		t.Errorf("expected 1 decided decision stored, got %v", decs)
	}
}

// renderResult renders every output of a run to one string, so two runs can
// be compared byte for byte, markers and tie-breaks included.
func renderResult(r *Result) string {
	out := reporting.RenderStatisticsCSV(r.Statistics)
	for _, metric := range domain.AllMetrics() {
		out += reporting.RenderAggregateCSV(r.Aggregates[metric])
		out += reporting.RenderDecisionCSV(r.Decisions[metric])
	}
	return out
}

func TestRun_Idempotent(t *testing.T) {
	p, records, statistics, _, _ := newTestPipeline(t)
	ctx := context.Background()

	err := records.InsertBulk(ctx, keyAave, []domain.PoolRecord{
		{Date: day(1), TVL: 100, APYTotal: 5.0},
		{Date: day(2), TVL: 100, APYTotal: 5.0},
	})
	if err != nil {
		t.Fatalf("seed aave: %v", err)
	}
	// Equal value on day 1, so the run exercises the lexical tie-break.
	err = records.InsertBulk(ctx, keyMorpho, []domain.PoolRecord{
		{Date: day(1), TVL: 100, APYTotal: 5.0},
	})
	if err != nil {
		t.Fatalf("seed morpho: %v", err)
	}

	first, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("second run over same records: %v", err)
	}

	if first.PoolsProcessed != second.PoolsProcessed {
		t.Errorf("runs disagree on pools processed: %d vs %d", first.PoolsProcessed, second.PoolsProcessed)
	}
	if renderResult(first) != renderResult(second) {
		t.Error("rendered outputs differ between identical runs")
	}

	// Outputs persisted once, the rerun left them untouched.
	stored, err := statistics.GetAll(ctx)
	if err != nil {
		t.Fatalf("GetAll: %v", err)
	}
	if len(stored) != 6 {
		t.Errorf("expected 6 statistics rows after rerun, got %d", len(stored))
	}
}

func TestRun_PoolFilter(t *testing.T) {
	records := memory.NewPoolRecordStore()
	ctx := context.Background()

	err := records.InsertBulk(ctx, keyAave, []domain.PoolRecord{
		{Date: day(1), TVL: 100, APYTotal: 5.0},
	})
	if err != nil {
		t.Fatalf("seed aave: %v", err)
	}
	err = records.InsertBulk(ctx, keyMorpho, []domain.PoolRecord{
		{Date: day(1), TVL: 300, APYTotal: 10.0},
	})
	if err != nil {
		t.Fatalf("seed morpho: %v", err)
	}

	p := New(Options{
		PoolRecordStore: records,
		Pools:           []domain.PoolKey{keyAave},
		Logger:          zerolog.Nop(),
	})

	result, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PoolsProcessed != 1 {
		t.Fatalf("expected only the filtered pool, got %d", result.PoolsProcessed)
	}
	if len(result.Matrix.Pools) != 1 || result.Matrix.Pools[0] != keyAave {
		t.Errorf("matrix should hold only the filtered pool, got %v", result.Matrix.Pools)
	}
	// Morpho's higher yield must not leak into the decisions.
	if d := result.Decisions[domain.MetricTotal][0]; d.Pool != keyAave || d.Value != 5.0 {
		t.Errorf("unexpected decision: %+v", d)
	}
}

func TestRun_MalformedRowsIsolated(t *testing.T) {
	p, records, _, _, _ := newTestPipeline(t)
	ctx := context.Background()

	err := records.InsertBulk(ctx, keyAave, []domain.PoolRecord{
		{Date: day(1), TVL: 100, APYTotal: 5.0},
		{Date: day(2), TVL: -50, APYTotal: 5.0}, // malformed, dropped
	})
	if err != nil {
		t.Fatalf("seed aave: %v", err)
	}
	err = records.InsertBulk(ctx, keyMorpho, []domain.PoolRecord{
		{Date: day(1), TVL: 300, APYTotal: 10.0},
	})
	if err != nil {
		t.Fatalf("seed morpho: %v", err)
	}

	result, err := p.Run(ctx)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if result.PoolsProcessed != 2 {
		t.Errorf("both pools should survive, got %d", result.PoolsProcessed)
	}
	if result.RowsDropped != 1 {
		t.Errorf("expected 1 dropped row, got %d", result.RowsDropped)
	}
	if len(result.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(result.Diagnostics))
	}
	if result.Diagnostics[0].Pool != keyAave {
		t.Errorf("diagnostic should name the offending pool, got %v", result.Diagnostics[0].Pool)
	}
}

func TestRun_EmptyStore(t *testing.T) {
	p, _, _, _, _ := newTestPipeline(t)

	result, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run over empty store: %v", err)
	}
	if result.PoolsProcessed != 0 {
		t.Errorf("expected 0 pools, got %d", result.PoolsProcessed)
	}
	if len(result.Matrix.Dates) != 0 {
		t.Errorf("expected empty axis, got %d dates", len(result.Matrix.Dates))
	}
}
