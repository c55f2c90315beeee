// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package prefs

import (
	"reflect"
	"testing"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

func TestReconcile(t *testing.T) {
	tests := []struct {
		name    string
		current []string
		enabled []string
		want    []string
	}{
		{
			name:    "stale entries dropped, survivors keep order",
			current: []string{"plex", "sabnzbd", "deluge"},
			enabled: []string{"sabnzbd", "plex"},
			want:    []string{"plex", "sabnzbd"},
		},
		{
			name:    "new clients appended in enabled order",
			current: []string{"plex"},
			enabled: []string{"sabnzbd", "plex", "qbittorrent"},
			want:    []string{"plex", "sabnzbd", "qbittorrent"},
		},
		{
			name:    "empty enabled set yields empty order",
			current: []string{"plex", "sabnzbd"},
			enabled: nil,
			want:    []string{},
		},
		{
			name:    "empty current yields enabled set as given",
			current: nil,
			enabled: []string{"qbittorrent", "sabnzbd"},
			want:    []string{"qbittorrent", "sabnzbd"},
		},
		{
			name:    "drop and add together",
			current: []string{"deluge", "plex"},
			enabled: []string{"plex", "sabnzbd"},
			want:    []string{"plex", "sabnzbd"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Reconcile(tt.current, tt.enabled)
			if len(got) != len(tt.want) {
				t.Fatalf("Reconcile = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Reconcile = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestReconcileNoOpReturnsSameSlice(t *testing.T) {
	current := []string{"plex", "sabnzbd"}
	enabled := []string{"sabnzbd", "plex"}

	got := Reconcile(current, enabled)
	// Identity, not just equality: callers use this to skip redundant
	// persistence writes.
	if !reflect.DeepEqual(got, current) {
		t.Fatalf("Reconcile = %v, want %v", got, current)
	}
	if len(got) > 0 && &got[0] != &current[0] {
		t.Error("no-op reconcile returned a new slice, want the input slice itself")
	}
}

func TestReconcileFixedPoint(t *testing.T) {
	current := []string{"deluge", "plex", "stale"}
	enabled := []string{"plex", "sabnzbd", "deluge"}

	first := Reconcile(current, enabled)
	second := Reconcile(first, enabled)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("reconcile not a fixed point: first %v, second %v", first, second)
	}
	if len(second) > 0 && &second[0] != &first[0] {
		t.Error("second reconcile returned a new slice, want the first result itself")
	}
}

func TestMoveToFront(t *testing.T) {
	tests := []struct {
		name  string
		order []string
		id    string
		want  []string
	}{
		{"middle to front", []string{"a", "b", "c"}, "b", []string{"b", "a", "c"}},
		{"already front", []string{"a", "b"}, "a", []string{"a", "b"}},
		{"last to front", []string{"a", "b", "c"}, "c", []string{"c", "a", "b"}},
		{"absent id prepended", []string{"a", "b"}, "x", []string{"x", "a", "b"}},
		{"empty order", nil, "a", []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MoveToFront(tt.order, tt.id)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("MoveToFront(%v, %q) = %v, want %v", tt.order, tt.id, got, tt.want)
			}
		})
	}
}

func TestStackOrderStoreRoundTrip(t *testing.T) {
	kv := NewMemKV()
	store := NewStackOrderStore(kv)

	order := store.Reconcile(telemetry.DirectionDownload, []string{"sabnzbd", "qbittorrent"})
	if !reflect.DeepEqual(order, []string{"sabnzbd", "qbittorrent"}) {
		t.Fatalf("initial reconcile = %v", order)
	}

	order = store.MoveToFront(telemetry.DirectionDownload, "qbittorrent")
	if !reflect.DeepEqual(order, []string{"qbittorrent", "sabnzbd"}) {
		t.Fatalf("after move = %v", order)
	}

	// A fresh store over the same KV sees the persisted order.
	fresh := NewStackOrderStore(kv)
	if got := fresh.Load(telemetry.DirectionDownload); !reflect.DeepEqual(got, []string{"qbittorrent", "sabnzbd"}) {
		t.Errorf("persisted order = %v, want [qbittorrent sabnzbd]", got)
	}
}

func TestStackOrderStoreDirectionsIndependent(t *testing.T) {
	store := NewStackOrderStore(NewMemKV())

	store.Reconcile(telemetry.DirectionDownload, []string{"sabnzbd"})
	store.Reconcile(telemetry.DirectionUpload, []string{"plex", "qbittorrent"})

	if got := store.Load(telemetry.DirectionDownload); !reflect.DeepEqual(got, []string{"sabnzbd"}) {
		t.Errorf("download order = %v, want [sabnzbd]", got)
	}
	if got := store.Load(telemetry.DirectionUpload); !reflect.DeepEqual(got, []string{"plex", "qbittorrent"}) {
		t.Errorf("upload order = %v, want [plex qbittorrent]", got)
	}
}

func TestStackOrderStorePersistFailureKeepsOrder(t *testing.T) {
	kv := NewMemKV()
	store := NewStackOrderStore(kv)
	kv.SetErr(errTestUnavailable)

	// The returned order reflects the move even though the write failed.
	order := store.MoveToFront(telemetry.DirectionUpload, "plex")
	if !reflect.DeepEqual(order, []string{"plex"}) {
		t.Errorf("order after failed persist = %v, want [plex]", order)
	}
}
