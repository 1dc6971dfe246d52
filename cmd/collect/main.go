// Package main provides the collection entry point.
// Fetches the configured pool universe from the DefiLlama yields API and
// stores raw daily records.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"defi-yield-lab/internal/defillama"
	"defi-yield-lab/internal/domain"
	"defi-yield-lab/internal/logger"
	"defi-yield-lab/internal/observability"
	"defi-yield-lab/internal/storage"
	"defi-yield-lab/internal/storage/memory"
	"defi-yield-lab/internal/storage/migrations"
	pgstore "defi-yield-lab/internal/storage/postgres"
)

func main() {
	// Local env file, if present
	_ = godotenv.Load()

	defaults := domain.DefaultUniverse()

	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL")
	protocols := flag.String("protocols", strings.Join(defaults.Protocols, ","), "Comma-separated protocol substrings")
	assets := flag.String("assets", strings.Join(defaults.Assets, ","), "Comma-separated asset substrings")
	chains := flag.String("chains", strings.Join(defaults.Chains, ","), "Comma-separated chain substrings")
	start := flag.String("start", defaults.StartDate.Format("2006-01-02"), "Window start date (inclusive)")
	end := flag.String("end", defaults.EndDate.Format("2006-01-02"), "Window end date (inclusive)")
	minTVL := flag.Float64("min-tvl", 0, "Skip pools below this current TVL in USD")
	delay := flag.Duration("delay", 500*time.Millisecond, "Delay between per-pool history fetches")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus metrics HTTP address (empty to disable)")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")

	flag.Parse()

	logger.Initialize(*logLevel)
	log := logger.GetForComponent("collect")

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			log.Info().Str("addr", *metricsAddr).Msg("starting metrics server")
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	universe, err := buildUniverse(defaults, *protocols, *assets, *chains, *start, *end, *minTVL)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid universe flags")
	}

	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Stringer("signal", sig).Msg("cancelling collection")
		cancel()
	}()

	var recordStore storage.PoolRecordStore = memory.NewPoolRecordStore()
	if !*useMemory {
		if *postgresDSN == "" {
			log.Fatal().Msg("--postgres-dsn is required (use --use-memory for in-memory storage)")
		}

		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("connect to postgres")
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("run migrations")
		}

		recordStore = pgstore.NewPoolRecordStore(pool)
	}

	if err := collect(ctx, log, recordStore, universe, *delay); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("collection failed")
	}

	log.Info().Msg("collection complete")
}

// collect fetches the universe's pools and their daily history.
func collect(ctx context.Context, log zerolog.Logger, store storage.PoolRecordStore, universe domain.Universe, delay time.Duration) error {
	client := defillama.NewClient()

	started := time.Now()
	pools, err := client.Pools(ctx)
	observability.RecordAPICall("pools", time.Since(started).Seconds(), err)
	if err != nil {
		return fmt.Errorf("fetch pools: %w", err)
	}
	log.Info().Int("total", len(pools)).Msg("fetched pool listing")

	matched := defillama.FilterPools(pools, universe)
	observability.DefaultMetrics.PoolsMatched.Set(float64(len(matched)))
	log.Info().Int("matched", len(matched)).Msg("filtered universe")

	for i, pool := range matched {
		key := defillama.KeyFor(pool)

		started := time.Now()
		points, err := client.Chart(ctx, pool.PoolID)
		observability.RecordAPICall("chart", time.Since(started).Seconds(), err)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			// One unreachable pool must not stop the run.
			log.Warn().Err(err).Stringer("pool", key).Msg("skipping pool")
			continue
		}

		records := defillama.ChartToRecords(points, universe)
		if len(records) == 0 {
			log.Debug().Stringer("pool", key).Msg("no records in window")
			continue
		}

		if err := store.InsertBulk(ctx, key, records); err != nil {
			if errors.Is(err, storage.ErrDuplicateKey) {
				log.Debug().Stringer("pool", key).Msg("already collected")
				continue
			}
			return fmt.Errorf("store records for %s: %w", key, err)
		}

		observability.DefaultMetrics.RecordsCollected.Add(float64(len(records)))
		log.Info().
			Stringer("pool", key).
			Int("records", len(records)).
			Int("done", i+1).
			Int("of", len(matched)).
			Msg("collected pool history")

		// Be polite to the public API
		if delay > 0 && i < len(matched)-1 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	observability.DefaultMetrics.LastSuccessfulCollection.SetToCurrentTime()
	return nil
}

// buildUniverse assembles the run configuration from flags.
func buildUniverse(defaults domain.Universe, protocols, assets, chains, start, end string, minTVL float64) (domain.Universe, error) {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return domain.Universe{}, fmt.Errorf("parse --start: %w", err)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return domain.Universe{}, fmt.Errorf("parse --end: %w", err)
	}
	if endDate.Before(startDate) {
		return domain.Universe{}, fmt.Errorf("--end before --start")
	}

	return domain.Universe{
		Protocols: splitList(protocols),
		Assets:    splitList(assets),
		Chains:    splitList(chains),
		StartDate: startDate.UTC(),
		EndDate:   endDate.UTC(),
		MinTVL:    minTVL,
		Dedupe:    defaults.Dedupe,
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
