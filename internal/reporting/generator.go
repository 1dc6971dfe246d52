package reporting

import (
	"context"
	"time"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/stats"
	"defi-yield-lab/internal/storage"
	"defi-yield-lab/internal/strategy"
)

// Generator produces reports from stored analysis outputs.
type Generator struct {
	statisticsStore storage.StatisticsStore
	aggregateStore  storage.AggregateStore
	decisionStore   storage.DecisionStore
	now             func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator.
func NewGenerator(
	statisticsStore storage.StatisticsStore,
	aggregateStore storage.AggregateStore,
	decisionStore storage.DecisionStore,
) *Generator {
	return &Generator{
		statisticsStore: statisticsStore,
		aggregateStore:  aggregateStore,
		decisionStore:   decisionStore,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles the full report from the stores.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	statistics, err := g.statisticsStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	r := &Report{
		GeneratedAt: g.now(),
		Statistics:  statistics,
		Aggregates:  make(map[domain.Metric][]domain.WeightedAggregatePoint),
		Decisions:   make(map[domain.Metric][]domain.AllocationDecision),
		Realized:    make(map[domain.Metric]RealizedSummary),
		Shares:      make(map[domain.Metric][]strategy.PoolShare),
	}

	pools := make(map[domain.PoolKey]struct{})
	for _, st := range statistics {
		pools[st.Pool] = struct{}{}
	}
	r.PoolCount = len(pools)

	for _, metric := range domain.AllMetrics() {
		aggs, err := g.aggregateStore.GetByMetric(ctx, metric)
		if err != nil {
			return nil, err
		}
		r.Aggregates[metric] = aggs

		if n := len(aggs); n > 0 {
			if n > r.DateCount {
				r.DateCount = n
			}
			if r.WindowStart.IsZero() || aggs[0].Date.Before(r.WindowStart) {
				r.WindowStart = aggs[0].Date
			}
			if aggs[n-1].Date.After(r.WindowEnd) {
				r.WindowEnd = aggs[n-1].Date
			}
		}

		decisions, err := g.decisionStore.GetByMetric(ctx, metric)
		if err != nil {
			return nil, err
		}
		r.Decisions[metric] = decisions
		r.Realized[metric] = summarizeRealized(decisions)
		r.Shares[metric] = strategy.PoolShares(decisions)
	}

	return r, nil
}

// summarizeRealized condenses the decision series into realized-yield stats.
func summarizeRealized(decisions []domain.AllocationDecision) RealizedSummary {
	realized := strategy.Realized(decisions)

	values := make([]float64, len(realized))
	for i, p := range realized {
		values[i] = p.Value
	}
	st := stats.SeriesStats(values)

	return RealizedSummary{
		Days:    len(realized),
		Skipped: len(decisions) - len(realized),
		Mean:    st.Mean,
		Stddev:  st.Stddev,
		Min:     st.Min,
		Max:     st.Max,
		Defined: st.Defined,

		Volatility:        st.Volatility,
		VolatilityDefined: st.VolatilityDefined,
	}
}
