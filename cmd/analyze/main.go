// Package main provides the analysis entry point.
// Reads collected pool records, runs the analysis pipeline and renders
// CSV and Markdown reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/logger"
	"defi-yield-lab/internal/pipeline"
	"defi-yield-lab/internal/reporting"
	"defi-yield-lab/internal/storage"
	chstore "defi-yield-lab/internal/storage/clickhouse"
	"defi-yield-lab/internal/storage/memory"
	"defi-yield-lab/internal/storage/migrations"
	pgstore "defi-yield-lab/internal/storage/postgres"
)

func main() {
	// Local env file, if present
	_ = godotenv.Load()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", os.Getenv("CLICKHOUSE_DSN"), "ClickHouse connection string (empty keeps series in memory)")
	outputDir := flag.String("output-dir", "reports", "Output directory for generated files")
	poolList := flag.String("pools", "", "Comma-separated protocol/asset/chain triples to analyze (empty for all)")
	dedupe := flag.String("dedupe", string(domain.DedupeLastWins), "Duplicate date policy: last-wins or first-wins")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger.Initialize(*logLevel)
	log := logger.GetForComponent("analyze")

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Stringer("signal", sig).Msg("cancelling analysis")
		cancel()
	}()

	pools, err := parsePoolList(*poolList)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid --pools flag")
	}

	if err := run(ctx, log, *postgresDSN, *clickhouseDSN, *outputDir, domain.DedupePolicy(*dedupe), pools); err != nil {
		log.Fatal().Err(err).Msg("analysis failed")
	}
}

func run(ctx context.Context, log zerolog.Logger, postgresDSN, clickhouseDSN, outputDir string, dedupe domain.DedupePolicy, pools []domain.PoolKey) error {
	if postgresDSN == "" {
		return fmt.Errorf("--postgres-dsn is required")
	}
	if dedupe != domain.DedupeLastWins && dedupe != domain.DedupeFirstWins {
		return fmt.Errorf("unknown dedupe policy %q", dedupe)
	}

	pool, err := pgstore.NewPool(ctx, postgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run postgres migrations: %w", err)
	}

	recordStore := pgstore.NewPoolRecordStore(pool)
	statisticsStore := pgstore.NewStatisticsStore(pool)

	// The per-date series live in ClickHouse when a DSN is given, otherwise
	// they stay in memory for the duration of the run.
	var aggregateStore storage.AggregateStore = memory.NewAggregateStore()
	var decisionStore storage.DecisionStore = memory.NewDecisionStore()
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			return fmt.Errorf("run clickhouse migrations: %w", err)
		}
		defer conn.Close()

		aggregateStore = chstore.NewAggregateStore(conn)
		decisionStore = chstore.NewDecisionStore(conn)
	}

	p := pipeline.New(pipeline.Options{
		PoolRecordStore: recordStore,
		StatisticsStore: statisticsStore,
		AggregateStore:  aggregateStore,
		DecisionStore:   decisionStore,
		Universe:        domain.Universe{Dedupe: dedupe},
		Pools:           pools,
		Logger:          log,
	})

	result, err := p.Run(ctx)
	if err != nil {
		return err
	}

	log.Info().
		Int("pools", result.PoolsProcessed).
		Int("rows_dropped", result.RowsDropped).
		Int("diagnostics", len(result.Diagnostics)).
		Msg("pipeline finished")

	return writeReports(ctx, log, outputDir, statisticsStore, aggregateStore, decisionStore)
}

// parsePoolList parses a comma-separated list of protocol/asset/chain triples.
func parsePoolList(s string) ([]domain.PoolKey, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	var pools []domain.PoolKey
	for _, part := range strings.Split(s, ",") {
		key, err := domain.ParsePoolKey(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		pools = append(pools, key)
	}
	return pools, nil
}

// writeReports renders the CSV and Markdown outputs.
func writeReports(ctx context.Context, log zerolog.Logger, outputDir string, statistics storage.StatisticsStore, aggregates storage.AggregateStore, decisions storage.DecisionStore) error {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	generator := reporting.NewGenerator(statistics, aggregates, decisions)
	report, err := generator.Generate(ctx)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	files := map[string]string{
		"pool_statistics.csv": reporting.RenderStatisticsCSV(report.Statistics),
		"REPORT.md":           reporting.RenderMarkdown(report),
	}
	for _, metric := range domain.AllMetrics() {
		files[fmt.Sprintf("weighted_%s.csv", metric)] = reporting.RenderAggregateCSV(report.Aggregates[metric])
		files[fmt.Sprintf("best_%s.csv", metric)] = reporting.RenderDecisionCSV(report.Decisions[metric])
	}

	for name, content := range files {
		path := filepath.Join(outputDir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", name, err)
		}
		log.Info().Str("file", path).Msg("wrote report")
	}

	return nil
}
