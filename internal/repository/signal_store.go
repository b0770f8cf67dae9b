package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"PairPull/internal/domain/models"
	"PairPull/internal/domain/repository"
)

// Schema statements for the signals table. Executed through
// pkg/clickhouse Client.InitSchema; idempotent.
var SignalSchema = []string{
	`CREATE DATABASE IF NOT EXISTS pairpull`,
	`CREATE TABLE IF NOT EXISTS pairpull.signals (
		ts           DateTime64(3),
		pair_a       LowCardinality(String),
		pair_b       LowCardinality(String),
		signal_type  LowCardinality(String),
		hedge_ratio  Float64,
		correlation  Float64,
		z_score      Float64,
		confidence   Float64,
		expected_edge Float64,
		net_edge     Float64,
		divergence   Float64,
		payload      String
	) ENGINE = MergeTree()
	PARTITION BY toYYYYMMDD(ts)
	ORDER BY (ts, pair_a, pair_b)
	TTL toDateTime(ts) + INTERVAL 30 DAY`,
}

// ClickHouseSignalStore implements SignalStore for ClickHouse. The full
// payload is stored as JSON alongside the queryable columns so history
// responses round-trip losslessly.
type ClickHouseSignalStore struct {
	db    *sql.DB
	table string
}

// NewClickHouseSignalStore creates ClickHouse signal storage.
func NewClickHouseSignalStore(db *sql.DB) repository.SignalStore {
	return &ClickHouseSignalStore{db: db, table: "pairpull.signals"}
}

func (s *ClickHouseSignalStore) Init(ctx context.Context) error {
	return nil // Schema init in pkg
}

func (s *ClickHouseSignalStore) Store(ctx context.Context, sig *models.PairAnalysis) error {
	if sig == nil {
		return nil
	}
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("marshal signal: %w", err)
	}
	q := fmt.Sprintf(`INSERT INTO %s
		(ts, pair_a, pair_b, signal_type, hedge_ratio, correlation, z_score, confidence, expected_edge, net_edge, divergence, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, s.table)
	_, err = s.db.ExecContext(ctx, q,
		sig.Timestamp,
		sig.PairA,
		sig.PairB,
		string(sig.SignalType),
		sig.HedgeRatio,
		sig.Correlation,
		sig.ZScore,
		sig.Confidence,
		sig.ExpectedEdge,
		sig.NetEdge,
		sig.DivergenceScore,
		string(payload),
	)
	return err
}

func (s *ClickHouseSignalStore) Recent(ctx context.Context, limit int) ([]*models.PairAnalysis, error) {
	if limit <= 0 {
		limit = 50
	}
	q := fmt.Sprintf(`SELECT payload FROM %s ORDER BY ts DESC LIMIT ?`, s.table)
	rows, err := s.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.PairAnalysis
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sig models.PairAnalysis
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			// skip rows written by an incompatible version
			continue
		}
		out = append(out, &sig)
	}
	return out, rows.Err()
}

func (s *ClickHouseSignalStore) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.db.PingContext(ctx)
}

func (s *ClickHouseSignalStore) Close() error {
	return nil // Managed by pkg
}
