// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bandscope/internal/telemetry"
	ws "github.com/tomtom215/bandscope/internal/websocket"
)

// maxPrefsBodySize bounds preference mutation bodies. They carry a single
// key or flag; anything larger is malformed.
const maxPrefsBodySize = 4 << 10

// Prefs returns the full preference state: visibility, orientation flags,
// and both per-direction stack orders.
func (h *Handler) Prefs(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, h.prefsPayload())
}

// ToggleVisibility flips one series between shown and hidden.
func (h *Handler) ToggleVisibility(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Series string `json:"series"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}

	key := telemetry.SeriesKey(req.Series)
	if !h.knownSeries(key) {
		respondError(w, http.StatusBadRequest, "UNKNOWN_SERIES", "Series is not part of the current roster", nil)
		return
	}

	h.visibility.Toggle(key)
	h.broadcastPrefs()
	respondSuccess(w, h.prefsPayload())
}

// SetStacked switches between stacked and per-series line rendering.
func (h *Handler) SetStacked(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Stacked bool `json:"stacked"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}

	h.visibility.SetStacked(req.Stacked)
	h.broadcastPrefs()
	respondSuccess(w, h.prefsPayload())
}

// SetFlipped switches the dual-polarity orientation, swapping which
// direction renders above the axis.
func (h *Handler) SetFlipped(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Flipped bool `json:"flipped"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}

	h.visibility.SetFlipped(req.Flipped)
	h.broadcastPrefs()
	respondSuccess(w, h.prefsPayload())
}

// MoveStackToFront promotes one client to the front of a direction's
// stack order, the "bring to front" gesture on the chart legend.
func (h *Handler) MoveStackToFront(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Direction string `json:"direction"`
		ClientID  string `json:"client_id"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}

	dir, ok := parseDirection(req.Direction)
	if !ok {
		respondError(w, http.StatusBadRequest, "INVALID_DIRECTION", "Direction must be download or upload", nil)
		return
	}
	client, found := h.config.Client(req.ClientID)
	if !found || !client.Enabled {
		respondError(w, http.StatusBadRequest, "UNKNOWN_CLIENT", "Client is not part of the enabled roster", nil)
		return
	}

	// Reconcile first so the promoted id lands in front of the full
	// current roster, not a stale persisted order.
	h.stackOrder.Reconcile(dir, h.config.EnabledClientIDs())
	h.stackOrder.MoveToFront(dir, req.ClientID)
	h.broadcastPrefs()
	respondSuccess(w, h.prefsPayload())
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	body := http.MaxBytesReader(w, r.Body, maxPrefsBodySize)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed request body", err)
		return false
	}
	return true
}

// prefsPayload assembles the broadcast-shaped preference state. The API
// response and the WebSocket push share a shape so every dashboard tab
// converges on the same state regardless of which path delivered it.
func (h *Handler) prefsPayload() ws.PrefsUpdateData {
	visibility := h.visibility.Load()
	out := make(map[string]bool, len(visibility))
	for key, shown := range visibility {
		out[string(key)] = shown
	}

	return ws.PrefsUpdateData{
		Visibility: out,
		Stacked:    h.visibility.Stacked(),
		Flipped:    h.visibility.Flipped(),
		StackOrder: h.currentStackOrder(),
	}
}

func (h *Handler) broadcastPrefs() {
	if h.wsHub != nil {
		h.wsHub.BroadcastPrefsUpdate(h.prefsPayload())
	}
}

// knownSeries reports whether key belongs to the current roster: the
// fixed WAN and stream series plus the configured clients' series.
func (h *Handler) knownSeries(key telemetry.SeriesKey) bool {
	switch key {
	case telemetry.KeyWANDownload, telemetry.KeyWANUpload,
		telemetry.KeyStreamBitrate, telemetry.KeyStreamCount:
		return true
	}

	client, ok := h.config.Client(key.Owner())
	if !ok || !client.Enabled {
		return false
	}
	switch key {
	case telemetry.ClientDownloadKey(client.ID),
		telemetry.ClientUploadKey(client.ID),
		telemetry.ClientDownloadLimitKey(client.ID),
		telemetry.ClientUploadLimitKey(client.ID):
		return true
	}
	return false
}

func parseDirection(s string) (telemetry.Direction, bool) {
	switch s {
	case "download":
		return telemetry.DirectionDownload, true
	case "upload":
		return telemetry.DirectionUpload, true
	default:
		return telemetry.DirectionNone, false
	}
}
