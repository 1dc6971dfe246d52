// Package migrations holds the embedded schema for both backends: the
// PostgreSQL tables for raw records and statistics, and the ClickHouse
// tables for the per-date aggregate and decision series.
package migrations

import "embed"

// PostgresFS embeds the pool_records / pool_statistics schema.
//
//go:embed postgres/*.sql
var PostgresFS embed.FS

// ClickhouseFS embeds the weighted_aggregates / allocation_decisions schema.
//
//go:embed clickhouse/*.sql
var ClickhouseFS embed.FS
