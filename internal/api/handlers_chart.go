// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/bandscope/internal/chart"
	"github.com/tomtom215/bandscope/internal/metrics"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// ChartData is the payload of the chart endpoints: the scaled buckets plus
// everything the dashboard needs to label and orient them.
type ChartData struct {
	Buckets    []telemetry.Sample `json:"buckets"`
	Ratio      float64            `json:"ratio"`
	Resolution string             `json:"resolution"`

	// EffectiveDurationSeconds is the span of the zoomed data, omitted
	// when fewer than two buckets remain.
	EffectiveDurationSeconds *float64 `json:"effective_duration_seconds,omitempty"`

	Stacked    bool                `json:"stacked"`
	Flipped    bool                `json:"flipped"`
	StackOrder map[string][]string `json:"stack_order"`

	Generation uint64     `json:"generation"`
	CapturedAt *time.Time `json:"captured_at,omitempty"`
	Stale      bool       `json:"stale"`
	LastError  string     `json:"last_error,omitempty"`
}

// Chart serves the live chart: the current snapshot run through the
// aggregation, zoom, and scaling pipeline with the caller's view state.
//
// Query parameters:
//   - resolution: "raw", a duration ("15s", "1m"), or minutes ("0.25");
//     defaults to the configured chart resolution
//   - start, end: RFC3339 zoom range, half-open [start, end); both or
//     neither
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	resolution, timeRange, ok := h.parseChartParams(w, r)
	if !ok {
		return
	}

	snap := h.snapshots.Current()
	data, ok := h.runPipeline(w, snap.Samples, resolution, timeRange)
	if !ok {
		return
	}

	data.Generation = snap.Generation
	if !snap.CapturedAt.IsZero() {
		capturedAt := snap.CapturedAt
		data.CapturedAt = &capturedAt
	}
	data.Stale = snap.Stale(2 * h.config.Poll.Interval)
	data.LastError = snap.LastError

	respondSuccess(w, data)
}

// History serves archived samples through the same pipeline. Unlike the
// live endpoint the range is mandatory: the archive is unbounded and an
// unqualified scan would read the whole table.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "History archive is not enabled", nil)
		return
	}

	resolution, timeRange, ok := h.parseChartParams(w, r)
	if !ok {
		return
	}
	if timeRange == nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "start and end parameters are required", nil)
		return
	}

	samples, err := h.history.Range(r.Context(), timeRange.Start, timeRange.End)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to query history", err)
		return
	}

	// The range already bounded the query; no second zoom pass needed.
	data, ok := h.runPipeline(w, samples, resolution, nil)
	if !ok {
		return
	}

	respondSuccess(w, data)
}

// parseChartParams extracts and validates resolution and zoom range.
// On failure it writes the error response and returns ok=false.
func (h *Handler) parseChartParams(w http.ResponseWriter, r *http.Request) (chart.Resolution, *chart.TimeRange, bool) {
	resolutionParam := r.URL.Query().Get("resolution")
	if resolutionParam == "" {
		resolutionParam = h.config.Chart.DefaultResolution
	}
	resolution, err := chart.ParseResolution(resolutionParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_RESOLUTION", "Unknown chart resolution", err)
		return chart.Resolution{}, nil, false
	}

	startParam := r.URL.Query().Get("start")
	endParam := r.URL.Query().Get("end")
	if startParam == "" && endParam == "" {
		return resolution, nil, true
	}
	if startParam == "" || endParam == "" {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "start and end must be provided together", nil)
		return chart.Resolution{}, nil, false
	}

	start, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "start must be RFC3339", err)
		return chart.Resolution{}, nil, false
	}
	end, err := time.Parse(time.RFC3339, endParam)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "end must be RFC3339", err)
		return chart.Resolution{}, nil, false
	}
	if !start.Before(end) {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "start must be before end", nil)
		return chart.Resolution{}, nil, false
	}

	return resolution, &chart.TimeRange{Start: start, End: end}, true
}

// runPipeline loads view state from the prefs stores and executes the
// chart pipeline over samples.
func (h *Handler) runPipeline(w http.ResponseWriter, samples []telemetry.Sample, resolution chart.Resolution, timeRange *chart.TimeRange) (*ChartData, bool) {
	start := time.Now()

	result, err := chart.Run(samples, chart.Params{
		Resolution: resolution,
		Range:      timeRange,
		Visibility: h.visibility.Load(),
		Flipped:    h.visibility.Flipped(),
	})
	if err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_RESOLUTION", "Unknown chart resolution", err)
		return nil, false
	}

	metrics.RecordPipelineRun(resolution.String(), time.Since(start), len(result.Buckets))

	data := &ChartData{
		Buckets:    result.Buckets,
		Ratio:      result.Ratio,
		Resolution: resolution.String(),
		Stacked:    h.visibility.Stacked(),
		Flipped:    h.visibility.Flipped(),
		StackOrder: h.currentStackOrder(),
	}
	if result.EffectiveDuration != nil {
		seconds := result.EffectiveDuration.Seconds()
		data.EffectiveDurationSeconds = &seconds
	}
	if data.Buckets == nil {
		data.Buckets = []telemetry.Sample{}
	}
	return data, true
}

// currentStackOrder reconciles both directions against the enabled client
// roster and returns them keyed by direction name.
func (h *Handler) currentStackOrder() map[string][]string {
	enabled := h.config.EnabledClientIDs()
	return map[string][]string{
		telemetry.DirectionDownload.String(): h.stackOrder.Reconcile(telemetry.DirectionDownload, enabled),
		telemetry.DirectionUpload.String():   h.stackOrder.Reconcile(telemetry.DirectionUpload, enabled),
	}
}
