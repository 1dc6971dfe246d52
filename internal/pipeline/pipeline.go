// Package pipeline provides E2E analysis orchestration.
// It coordinates: normalization → reconciliation → {statistics, aggregation, selection}
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"defi-yield-lab/internal/aggregate"
	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/normalize"
	"defi-yield-lab/internal/observability"
	"defi-yield-lab/internal/reconcile"
	"defi-yield-lab/internal/stats"
	"defi-yield-lab/internal/storage"
	"defi-yield-lab/internal/strategy"
)

// Pipeline coordinates the analysis run.
// Flow: load records → normalize per pool → reconcile → statistics,
// weighted aggregation and best-pool selection → persist.
type Pipeline struct {
	recordStore     storage.PoolRecordStore
	statisticsStore storage.StatisticsStore
	aggregateStore  storage.AggregateStore
	decisionStore   storage.DecisionStore

	universe domain.Universe
	pools    map[domain.PoolKey]struct{}
	log      zerolog.Logger
}

// Options for creating Pipeline.
type Options struct {
	// Required stores
	PoolRecordStore storage.PoolRecordStore

	// Optional output stores; nil stores are skipped at persistence
	StatisticsStore storage.StatisticsStore
	AggregateStore  storage.AggregateStore
	DecisionStore   storage.DecisionStore

	Universe domain.Universe

	// Pools restricts the run to the listed keys; empty means all stored pools.
	Pools []domain.PoolKey

	Logger zerolog.Logger
}

// New creates a new Pipeline.
func New(opts Options) *Pipeline {
	var pools map[domain.PoolKey]struct{}
	if len(opts.Pools) > 0 {
		pools = make(map[domain.PoolKey]struct{}, len(opts.Pools))
		for _, key := range opts.Pools {
			pools[key] = struct{}{}
		}
	}

	return &Pipeline{
		recordStore:     opts.PoolRecordStore,
		statisticsStore: opts.StatisticsStore,
		aggregateStore:  opts.AggregateStore,
		decisionStore:   opts.DecisionStore,
		universe:        opts.Universe,
		pools:           pools,
		log:             opts.Logger,
	}
}

// Result contains results from a pipeline run.
type Result struct {
	PoolsProcessed int
	PoolsFailed    int
	RowsDropped    int

	Matrix      *domain.Matrix
	Statistics  []domain.PoolStatistics
	Aggregates  map[domain.Metric][]domain.WeightedAggregatePoint
	Decisions   map[domain.Metric][]domain.AllocationDecision
	Realized    map[domain.Metric][]domain.RealizedPoint
	Diagnostics []domain.Diagnostic
}

// Run executes the full analysis.
// A pool whose records cannot be loaded is skipped and reported through
// Diagnostics; it never aborts the run. An invariant violation during
// reconciliation does abort: it means a bug, not bad input.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	started := time.Now()
	result := &Result{}

	series, err := p.normalizeAll(ctx, result)
	if err != nil {
		observability.RecordAnalysisRun("error")
		return nil, err
	}
	observability.DefaultMetrics.AnalysisDuration.WithLabelValues("normalize").Observe(time.Since(started).Seconds())

	p.log.Info().
		Int("pools", result.PoolsProcessed).
		Int("rows_dropped", result.RowsDropped).
		Msg("normalization complete")

	reconcileStarted := time.Now()
	matrix, err := reconcile.Reconcile(series)
	if err != nil {
		observability.RecordAnalysisRun("error")
		return nil, fmt.Errorf("reconcile: %w", err)
	}
	observability.DefaultMetrics.AnalysisDuration.WithLabelValues("reconcile").Observe(time.Since(reconcileStarted).Seconds())
	result.Matrix = matrix

	p.log.Info().
		Int("dates", len(matrix.Dates)).
		Int("pools", len(matrix.Pools)).
		Msg("reconciliation complete")

	result.Statistics = stats.Compute(matrix)
	result.Aggregates = aggregate.WeightedAll(matrix)
	result.Decisions = strategy.SelectBestAll(matrix)

	result.Realized = make(map[domain.Metric][]domain.RealizedPoint, len(result.Decisions))
	for metric, decisions := range result.Decisions {
		result.Realized[metric] = strategy.Realized(decisions)
		for _, d := range decisions {
			if !d.Decided {
				observability.RecordUndefinedDate(string(metric))
			}
		}
		observability.DefaultMetrics.DecisionsComputed.Add(float64(len(decisions)))
	}

	persistStarted := time.Now()
	if err := p.persist(ctx, result); err != nil {
		observability.RecordAnalysisRun("error")
		return nil, err
	}
	observability.DefaultMetrics.AnalysisDuration.WithLabelValues("persist").Observe(time.Since(persistStarted).Seconds())

	observability.RecordAnalysisRun("success")
	observability.DefaultMetrics.LastSuccessfulAnalysis.SetToCurrentTime()

	p.log.Info().
		Dur("elapsed", time.Since(started)).
		Int("pools", result.PoolsProcessed).
		Int("failed", result.PoolsFailed).
		Msg("analysis complete")

	return result, nil
}

// normalizeAll loads and normalizes every pool independently.
func (p *Pipeline) normalizeAll(ctx context.Context, result *Result) ([]domain.PoolSeries, error) {
	started := time.Now()
	keys, err := p.recordStore.ListPools(ctx)
	observability.RecordDBQuery("records", "list_pools", time.Since(started).Seconds(), err)
	if err != nil {
		return nil, fmt.Errorf("list pools: %w", err)
	}

	policy := p.universe.DedupeOrDefault()

	var series []domain.PoolSeries
	for _, key := range keys {
		if p.pools != nil {
			if _, ok := p.pools[key]; !ok {
				continue
			}
		}

		started := time.Now()
		records, err := p.recordStore.GetByPool(ctx, key)
		observability.RecordDBQuery("records", "get_by_pool", time.Since(started).Seconds(), err)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			// One broken pool must not take the others down.
			result.PoolsFailed++
			result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
				Pool:   key,
				Field:  "load",
				Reason: err.Error(),
			})
			observability.DefaultMetrics.PoolsSkipped.WithLabelValues("load_error").Inc()
			p.log.Warn().Err(err).Stringer("pool", key).Msg("skipping pool")
			continue
		}

		s, diags := normalize.Normalize(key, records, policy)
		result.Diagnostics = append(result.Diagnostics, diags...)
		result.RowsDropped += len(diags)
		for _, d := range diags {
			observability.RecordDropped(d.Field)
		}

		if len(s.Records) == 0 {
			observability.DefaultMetrics.PoolsSkipped.WithLabelValues("empty").Inc()
			continue
		}

		series = append(series, s)
		result.PoolsProcessed++
		observability.DefaultMetrics.PoolsNormalized.Inc()
	}

	return series, nil
}

// persist writes statistics, aggregates and decisions to their stores.
// Already-persisted outputs (duplicate keys) are left untouched so a rerun
// over the same records is a no-op rather than an error.
func (p *Pipeline) persist(ctx context.Context, result *Result) error {
	if p.statisticsStore != nil {
		started := time.Now()
		err := p.statisticsStore.InsertBulk(ctx, result.Statistics)
		observability.RecordDBQuery("statistics", "insert_bulk", time.Since(started).Seconds(), err)
		if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("persist statistics: %w", err)
		}
	}

	if p.aggregateStore != nil {
		for _, metric := range domain.AllMetrics() {
			started := time.Now()
			err := p.aggregateStore.InsertBulk(ctx, result.Aggregates[metric])
			observability.RecordDBQuery("aggregates", "insert_bulk", time.Since(started).Seconds(), err)
			if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("persist %s aggregates: %w", metric, err)
			}
		}
	}

	if p.decisionStore != nil {
		for _, metric := range domain.AllMetrics() {
			started := time.Now()
			err := p.decisionStore.InsertBulk(ctx, result.Decisions[metric])
			observability.RecordDBQuery("decisions", "insert_bulk", time.Since(started).Seconds(), err)
			if err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
				return fmt.Errorf("persist %s decisions: %w", metric, err)
			}
		}
	}

	return nil
}
