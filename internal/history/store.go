// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/metrics"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Store is the DuckDB-backed sample archive. It implements
// poller.Recorder.
//
// Thread Safety: all methods are safe for concurrent use; database/sql
// pools connections internally.
type Store struct {
	conn      *sql.DB
	retention time.Duration
}

// Open opens (or creates) the archive at cfg.Path and ensures the schema.
func Open(cfg *config.HistoryConfig) (*Store, error) {
	// Ensure the parent directory exists; DuckDB does not create it.
	dbDir := filepath.Dir(cfg.Path)
	if dbDir != "" && dbDir != "." {
		if err := os.MkdirAll(dbDir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create history directory %s: %w", dbDir, err)
		}
	}

	// Extensions are never needed here; disable auto-install to avoid
	// network stalls in restricted environments.
	connStr := cfg.Path + "?access_mode=read_write&autoinstall_known_extensions=false&autoload_known_extensions=false"
	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	s := &Store{conn: conn, retention: cfg.Retention}
	if err := s.ensureSchema(context.Background()); err != nil {
		_ = conn.Close()
		return nil, err
	}

	logging.Info().Str("path", cfg.Path).Dur("retention", cfg.Retention).Msg("History store opened")
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS samples (
    ts     TIMESTAMP NOT NULL,
    series VARCHAR   NOT NULL,
    value  DOUBLE    NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_ts ON samples (ts);
`
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create history schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.conn.Close()
}

// Record implements poller.Recorder. All rows of a batch commit in one
// transaction; a failed batch leaves no partial samples behind.
func (s *Store) Record(ctx context.Context, samples []telemetry.Sample) error {
	if len(samples) == 0 {
		return nil
	}

	start := time.Now()
	rows, err := s.insert(ctx, samples)
	metrics.RecordHistoryInsert(time.Since(start), rows, err)
	return err
}

func (s *Store) insert(ctx context.Context, samples []telemetry.Sample) (int, error) {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin history transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO samples (ts, series, value) VALUES (?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare history insert: %w", err)
	}
	defer stmt.Close()

	rows := 0
	for _, sample := range samples {
		for key, value := range sample.Values {
			if _, err := stmt.ExecContext(ctx, sample.Time, string(key), value); err != nil {
				return 0, fmt.Errorf("failed to insert sample row: %w", err)
			}
			rows++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit history batch: %w", err)
	}
	return rows, nil
}

// Range returns the archived samples with start <= ts < end, ascending,
// regrouped from long-form rows into the same shape the poller produces.
func (s *Store) Range(ctx context.Context, start, end time.Time) ([]telemetry.Sample, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT ts, series, value FROM samples WHERE ts >= ? AND ts < ? ORDER BY ts",
		start, end,
	)
	if err != nil {
		metrics.HistoryQueryErrors.WithLabelValues("range").Inc()
		return nil, fmt.Errorf("history range query failed: %w", err)
	}
	defer rows.Close()

	byTime := make(map[int64]*telemetry.Sample)
	for rows.Next() {
		var (
			ts     time.Time
			series string
			value  float64
		)
		if err := rows.Scan(&ts, &series, &value); err != nil {
			metrics.HistoryQueryErrors.WithLabelValues("range").Inc()
			return nil, fmt.Errorf("history row scan failed: %w", err)
		}

		unix := ts.Unix()
		sample, ok := byTime[unix]
		if !ok {
			sample = &telemetry.Sample{
				Time:   ts.UTC(),
				Values: make(map[telemetry.SeriesKey]float64),
			}
			byTime[unix] = sample
		}
		sample.Values[telemetry.SeriesKey(series)] = value
	}
	if err := rows.Err(); err != nil {
		metrics.HistoryQueryErrors.WithLabelValues("range").Inc()
		return nil, fmt.Errorf("history range iteration failed: %w", err)
	}

	samples := make([]telemetry.Sample, 0, len(byTime))
	for _, sample := range byTime {
		samples = append(samples, *sample)
	}
	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})
	return samples, nil
}

// Prune deletes rows older than the retention window and returns how
// many were removed.
func (s *Store) Prune(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.retention)

	res, err := s.conn.ExecContext(ctx, "DELETE FROM samples WHERE ts < ?", cutoff)
	if err != nil {
		metrics.HistoryQueryErrors.WithLabelValues("prune").Inc()
		return 0, fmt.Errorf("history prune failed: %w", err)
	}

	pruned, err := res.RowsAffected()
	if err != nil {
		return 0, nil // driver cannot report the count, not a failure
	}
	metrics.HistoryRowsPruned.Add(float64(pruned))
	return pruned, nil
}
