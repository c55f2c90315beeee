// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Version is the server version reported by the health endpoint.
const Version = "1.0.0"

// HealthStatus is the payload of the health endpoint.
type HealthStatus struct {
	Status             string     `json:"status"`
	Version            string     `json:"version"`
	SourceConnected    bool       `json:"source_connected"`
	HistoryEnabled     bool       `json:"history_enabled"`
	SnapshotGeneration uint64     `json:"snapshot_generation"`
	SnapshotCapturedAt *time.Time `json:"snapshot_captured_at,omitempty"`
	SnapshotStale      bool       `json:"snapshot_stale"`
	LastPollError      string     `json:"last_poll_error,omitempty"`
	ConnectedClients   int        `json:"connected_ws_clients"`
	Uptime             float64    `json:"uptime_seconds"`
}

// SeriesInfo describes one chartable series for legend rendering.
type SeriesInfo struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Direction string `json:"direction"`
	Visible   bool   `json:"visible"`
	Limit     bool   `json:"limit"`
}

// ClientInfo describes one configured media client.
type ClientInfo struct {
	ID                string  `json:"id"`
	Label             string  `json:"label"`
	Enabled           bool    `json:"enabled"`
	DownloadLimitKbps float64 `json:"download_limit_kbps,omitempty"`
	UploadLimitKbps   float64 `json:"upload_limit_kbps,omitempty"`
}

// Health reports overall health: collector reachability and snapshot
// freshness. A reachable collector with a stale snapshot still reads as
// degraded; that is the state the dashboard most needs to surface.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()
	stale := snap.Stale(2 * h.config.Poll.Interval)

	sourceConnected := h.source != nil && h.source.Ping(r.Context()) == nil

	status := "healthy"
	if !sourceConnected || stale {
		status = "degraded"
	}

	health := HealthStatus{
		Status:             status,
		Version:            Version,
		SourceConnected:    sourceConnected,
		HistoryEnabled:     h.history != nil,
		SnapshotGeneration: snap.Generation,
		SnapshotStale:      stale,
		LastPollError:      snap.LastError,
		Uptime:             time.Since(h.startTime).Seconds(),
	}
	if !snap.CapturedAt.IsZero() {
		capturedAt := snap.CapturedAt
		health.SnapshotCapturedAt = &capturedAt
	}
	if h.wsHub != nil {
		health.ConnectedClients = h.wsHub.GetClientCount()
	}

	respondSuccess(w, health)
}

// HealthLive is the liveness probe: the process is up and serving.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: ready once the first poll has
// published a snapshot, so load balancers never route to an empty chart.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshots.Current()
	if snap.Generation == 0 {
		respondError(w, http.StatusServiceUnavailable, "NOT_READY", "No telemetry snapshot yet", nil)
		return
	}
	respondSuccess(w, map[string]string{"status": "ready"})
}

// Clients lists the configured media clients, enabled or not. The
// dashboard uses this for legend labels and the settings screen.
func (h *Handler) Clients(w http.ResponseWriter, r *http.Request) {
	clients := make([]ClientInfo, 0, len(h.config.Clients))
	for _, c := range h.config.Clients {
		clients = append(clients, ClientInfo{
			ID:                c.ID,
			Label:             clientLabel(c.Label, c.ID),
			Enabled:           c.Enabled,
			DownloadLimitKbps: c.DownloadLimitKbps,
			UploadLimitKbps:   c.UploadLimitKbps,
		})
	}
	respondSuccess(w, clients)
}

// Series lists every chartable series with its direction and current
// visibility.
func (h *Handler) Series(w http.ResponseWriter, r *http.Request) {
	visibility := h.visibility.Load()

	series := []SeriesInfo{
		{Key: string(telemetry.KeyWANDownload), Label: "WAN Download", Direction: telemetry.DirectionDownload.String()},
		{Key: string(telemetry.KeyWANUpload), Label: "WAN Upload", Direction: telemetry.DirectionUpload.String()},
		{Key: string(telemetry.KeyStreamBitrate), Label: "Streaming Bitrate", Direction: telemetry.DirectionUpload.String()},
		{Key: string(telemetry.KeyStreamCount), Label: "Active Streams", Direction: telemetry.DirectionNone.String()},
	}

	for _, c := range h.config.Clients {
		if !c.Enabled {
			continue
		}
		label := clientLabel(c.Label, c.ID)
		series = append(series,
			SeriesInfo{Key: string(telemetry.ClientDownloadKey(c.ID)), Label: label + " Download", Direction: telemetry.DirectionDownload.String()},
			SeriesInfo{Key: string(telemetry.ClientUploadKey(c.ID)), Label: label + " Upload", Direction: telemetry.DirectionUpload.String()},
			SeriesInfo{Key: string(telemetry.ClientDownloadLimitKey(c.ID)), Label: label + " Download Limit", Direction: telemetry.DirectionDownload.String(), Limit: true},
			SeriesInfo{Key: string(telemetry.ClientUploadLimitKey(c.ID)), Label: label + " Upload Limit", Direction: telemetry.DirectionUpload.String(), Limit: true},
		)
	}

	for i := range series {
		series[i].Visible = visibility[telemetry.SeriesKey(series[i].Key)]
	}

	respondSuccess(w, series)
}

func clientLabel(label, id string) string {
	if label != "" {
		return label
	}
	return id
}
