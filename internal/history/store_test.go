// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

func testStore(t *testing.T, retention time.Duration) *Store {
	t.Helper()
	store, err := Open(&config.HistoryConfig{
		Path:      filepath.Join(t.TempDir(), "history.duckdb"),
		Retention: retention,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func historySample(ts time.Time, values map[telemetry.SeriesKey]float64) telemetry.Sample {
	return telemetry.Sample{Time: ts, Values: values}
}

func TestRecordAndRange(t *testing.T) {
	store := testStore(t, 24*time.Hour)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	err := store.Record(ctx, []telemetry.Sample{
		historySample(base, map[telemetry.SeriesKey]float64{
			telemetry.KeyWANDownload:               51000,
			telemetry.ClientDownloadKey("sabnzbd"): 48000,
		}),
		historySample(base.Add(15*time.Second), map[telemetry.SeriesKey]float64{
			telemetry.KeyWANDownload: 20000,
		}),
		historySample(base.Add(30*time.Second), map[telemetry.SeriesKey]float64{
			telemetry.KeyStreamCount: 2,
		}),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	// Half-open range excludes the t+30s sample.
	got, err := store.Range(ctx, base, base.Add(30*time.Second))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("len(samples) = %d, want 2", len(got))
	}
	if !got[0].Time.Equal(base) || !got[1].Time.Equal(base.Add(15*time.Second)) {
		t.Errorf("timestamps = %v, %v", got[0].Time, got[1].Time)
	}
	if got[0].Value(telemetry.ClientDownloadKey("sabnzbd")) != 48000 {
		t.Errorf("sabnzbd download = %v, want 48000", got[0].Value(telemetry.ClientDownloadKey("sabnzbd")))
	}
	if got[1].Value(telemetry.KeyWANDownload) != 20000 {
		t.Errorf("wan download = %v, want 20000", got[1].Value(telemetry.KeyWANDownload))
	}
}

func TestRecordEmptyBatch(t *testing.T) {
	store := testStore(t, 24*time.Hour)

	if err := store.Record(context.Background(), nil); err != nil {
		t.Fatalf("Record(nil): %v", err)
	}
}

func TestRangeEmpty(t *testing.T) {
	store := testStore(t, 24*time.Hour)

	got, err := store.Range(context.Background(), time.Unix(0, 0), time.Now())
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len(samples) = %d, want 0", len(got))
	}
}

func TestPrune(t *testing.T) {
	store := testStore(t, time.Hour)
	ctx := context.Background()

	old := time.Now().Add(-2 * time.Hour).UTC().Truncate(time.Second)
	fresh := time.Now().UTC().Truncate(time.Second)
	err := store.Record(ctx, []telemetry.Sample{
		historySample(old, map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 100}),
		historySample(fresh, map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 200}),
	})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	pruned, err := store.Prune(ctx)
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1", pruned)
	}

	got, err := store.Range(ctx, time.Unix(0, 0), time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("samples after prune = %d, want 1", len(got))
	}
	if got[0].Value(telemetry.KeyWANDownload) != 200 {
		t.Errorf("surviving sample value = %v, want 200", got[0].Value(telemetry.KeyWANDownload))
	}
}

func TestReopenPersists(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.HistoryConfig{
		Path:      filepath.Join(dir, "history.duckdb"),
		Retention: 24 * time.Hour,
	}
	ctx := context.Background()
	ts := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(ctx, []telemetry.Sample{
		historySample(ts, map[telemetry.SeriesKey]float64{telemetry.KeyWANUpload: 900}),
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Range(ctx, ts, ts.Add(time.Second))
	if err != nil {
		t.Fatalf("Range: %v", err)
	}
	if len(got) != 1 || got[0].Value(telemetry.KeyWANUpload) != 900 {
		t.Errorf("reopened data = %v", got)
	}
}
