// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package prefs

import (
	"errors"
	"testing"

	"github.com/tomtom215/bandscope/internal/chart"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

var errTestUnavailable = errors.New("store unavailable")

func TestDefaultVisibility(t *testing.T) {
	m := DefaultVisibility([]string{"sabnzbd", "plex"})

	shown := []telemetry.SeriesKey{
		telemetry.KeyWANDownload,
		telemetry.KeyWANUpload,
		telemetry.KeyStreamBitrate,
		telemetry.KeyStreamCount,
		telemetry.ClientDownloadKey("sabnzbd"),
		telemetry.ClientUploadKey("sabnzbd"),
		telemetry.ClientDownloadKey("plex"),
		telemetry.ClientUploadKey("plex"),
	}
	for _, key := range shown {
		if !m[key] {
			t.Errorf("default visibility for %s = false, want true", key)
		}
	}

	hidden := []telemetry.SeriesKey{
		telemetry.ClientDownloadLimitKey("sabnzbd"),
		telemetry.ClientUploadLimitKey("plex"),
	}
	for _, key := range hidden {
		if v, ok := m[key]; !ok || v {
			t.Errorf("default visibility for %s = %v (present %v), want false", key, v, ok)
		}
	}
}

func TestVisibilityStoreFirstRunUsesDefaults(t *testing.T) {
	defaults := DefaultVisibility([]string{"sabnzbd"})
	store := NewVisibilityStore(NewMemKV(), defaults)

	got := store.Load()
	if len(got) != len(defaults) {
		t.Fatalf("loaded %d keys, want %d", len(got), len(defaults))
	}
	for k, v := range defaults {
		if got[k] != v {
			t.Errorf("visibility[%s] = %v, want %v", k, got[k], v)
		}
	}
}

func TestVisibilityStoreToggle(t *testing.T) {
	kv := NewMemKV()
	defaults := DefaultVisibility([]string{"sabnzbd"})
	store := NewVisibilityStore(kv, defaults)

	key := telemetry.ClientDownloadLimitKey("sabnzbd")
	got := store.Toggle(key)
	if !got[key] {
		t.Fatalf("toggle of hidden key left it hidden")
	}

	// A fresh store over the same KV sees the persisted flip merged over
	// its defaults.
	fresh := NewVisibilityStore(kv, defaults)
	if !fresh.Load()[key] {
		t.Error("persisted toggle not visible to a fresh store")
	}

	got = store.Toggle(key)
	if got[key] {
		t.Error("second toggle did not restore hidden state")
	}
}

func TestVisibilityStorePersistedOverlayMergesOverDefaults(t *testing.T) {
	kv := NewMemKV()
	store := NewVisibilityStore(kv, DefaultVisibility([]string{"sabnzbd"}))
	store.Toggle(telemetry.KeyStreamCount)

	// A later run adds a client; the new client's defaults appear while
	// the persisted flip survives.
	grown := DefaultVisibility([]string{"sabnzbd", "qbittorrent"})
	fresh := NewVisibilityStore(kv, grown)
	got := fresh.Load()

	if got[telemetry.KeyStreamCount] {
		t.Error("persisted flip lost after defaults grew")
	}
	if !got[telemetry.ClientDownloadKey("qbittorrent")] {
		t.Error("new client default missing from merged map")
	}
}

func TestVisibilityStoreToggleSurvivesPersistFailure(t *testing.T) {
	kv := NewMemKV()
	store := NewVisibilityStore(kv, DefaultVisibility(nil))
	store.Load()
	kv.SetErr(errTestUnavailable)

	got := store.Toggle(telemetry.KeyWANDownload)
	if got[telemetry.KeyWANDownload] {
		t.Fatal("toggle result does not reflect the flip")
	}
	// The in-memory state is authoritative for the rest of the session.
	if store.Load()[telemetry.KeyWANDownload] {
		t.Error("in-memory state lost after failed persist")
	}
}

func TestVisibilityStoreCorruptBlobFallsBackToDefaults(t *testing.T) {
	kv := NewMemKV()
	if err := kv.Set("chart_visibility", []byte("{not json")); err != nil {
		t.Fatal(err)
	}

	store := NewVisibilityStore(kv, DefaultVisibility(nil))
	got := store.Load()
	if !got[telemetry.KeyWANDownload] || !got[telemetry.KeyWANUpload] {
		t.Errorf("corrupt blob did not fall back to defaults: %v", got)
	}
}

func TestVisibilityStoreLoadReturnsCopy(t *testing.T) {
	store := NewVisibilityStore(NewMemKV(), DefaultVisibility(nil))

	first := store.Load()
	first[telemetry.KeyWANDownload] = false

	if !store.Load()[telemetry.KeyWANDownload] {
		t.Error("mutating a loaded map leaked into store state")
	}
}

func TestVisibilityStoreFlags(t *testing.T) {
	kv := NewMemKV()
	store := NewVisibilityStore(kv, chart.VisibilityMap{})

	if !store.Stacked() {
		t.Error("Stacked default = false, want true")
	}
	if store.Flipped() {
		t.Error("Flipped default = true, want false")
	}

	store.SetStacked(false)
	store.SetFlipped(true)

	fresh := NewVisibilityStore(kv, chart.VisibilityMap{})
	if fresh.Stacked() {
		t.Error("Stacked flag not persisted")
	}
	if !fresh.Flipped() {
		t.Error("Flipped flag not persisted")
	}
}
