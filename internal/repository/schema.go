package repository

import (
	"fmt"

	domrepo "FinSignal/internal/domain/repository"
)

const signalsTable = "trading_signals"

// SchemaStatements creates the database, one candle table per timeframe,
// and the signal archive.
func SchemaStatements(database string) []string {
	stmts := []string{fmt.Sprintf("CREATE DATABASE IF NOT EXISTS %s", database)}
	for _, tf := range []domrepo.Timeframe{domrepo.TF1m, domrepo.TF5m, domrepo.TF1h, domrepo.TF1d} {
		stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    bucket DateTime64(3, 'UTC'),
    symbol LowCardinality(String),
    open Float64,
    high Float64,
    low Float64,
    close Float64,
    volume Float64
) ENGINE = ReplacingMergeTree ORDER BY (symbol, bucket)`, qualify(database, candleTable(tf))))
	}
	stmts = append(stmts, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
    id UUID,
    ts DateTime64(3, 'UTC'),
    symbol LowCardinality(String),
    asset_type LowCardinality(String),
    action LowCardinality(String),
    confidence Float64,
    price_target Decimal(18, 2),
    stop_loss Decimal(18, 2),
    rationale String
) ENGINE = MergeTree ORDER BY (symbol, ts)`, qualify(database, signalsTable)))
	return stmts
}
