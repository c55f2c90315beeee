// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/poller"
	"github.com/tomtom215/bandscope/internal/prefs"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:            3858,
			CORSOrigins:     []string{"*"},
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
		},
		Poll: config.PollConfig{
			Interval: 15 * time.Second,
			Window:   time.Hour,
		},
		Chart: config.ChartConfig{DefaultResolution: "1m"},
		Clients: []config.ClientConfig{
			{ID: "plex", Label: "Plex", Enabled: true},
			{ID: "jellyfin", Enabled: true},
			{ID: "emby", Label: "Emby", Enabled: false},
		},
	}
}

func testHandler(t *testing.T, cfg *config.Config) *Handler {
	t.Helper()

	kv := prefs.NewMemKV()
	visibility := prefs.NewVisibilityStore(kv, prefs.DefaultVisibility(cfg.EnabledClientIDs()))
	stackOrder := prefs.NewStackOrderStore(kv)

	return NewHandler(cfg, poller.NewStore(), visibility, stackOrder, nil, nil, nil)
}

// decodeData unmarshals the envelope and then its data field into dst.
func decodeData(t *testing.T, body []byte, dst interface{}) *APIResponse {
	t.Helper()

	var envelope struct {
		Status   string          `json:"status"`
		Data     json.RawMessage `json:"data"`
		Metadata Metadata        `json:"metadata"`
		Error    *APIError       `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("unmarshal envelope: %v", err)
	}
	if dst != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, dst); err != nil {
			t.Fatalf("unmarshal data: %v", err)
		}
	}
	return &APIResponse{Status: envelope.Status, Metadata: envelope.Metadata, Error: envelope.Error}
}

func publishSamples(t *testing.T, h *Handler, samples []telemetry.Sample) {
	t.Helper()
	if !h.snapshots.Publish(poller.Snapshot{
		Samples:    samples,
		Generation: 1,
		CapturedAt: time.Now(),
	}) {
		t.Fatal("snapshot publish rejected")
	}
}

func sampleAt(t time.Time, values map[telemetry.SeriesKey]float64) telemetry.Sample {
	return telemetry.Sample{Time: t, Values: values}
}

func TestChart(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h := testHandler(t, testConfig())
	publishSamples(t, h, []telemetry.Sample{
		sampleAt(base, map[telemetry.SeriesKey]float64{
			telemetry.KeyWANDownload:          8000,
			telemetry.ClientUploadKey("plex"): 2000,
		}),
		sampleAt(base.Add(15*time.Second), map[telemetry.SeriesKey]float64{
			telemetry.KeyWANDownload:          4000,
			telemetry.ClientUploadKey("plex"): 1000,
		}),
	})

	w := httptest.NewRecorder()
	h.Chart(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart?resolution=raw", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var data ChartData
	decodeData(t, w.Body.Bytes(), &data)

	if len(data.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(data.Buckets))
	}
	if data.Generation != 1 {
		t.Errorf("generation = %d, want 1", data.Generation)
	}
	if data.Stale {
		t.Error("fresh snapshot reported stale")
	}
	if data.Resolution != "raw" {
		t.Errorf("resolution = %q, want raw", data.Resolution)
	}

	// Max positive 8000, max negative 2000: negatives scale by 4x.
	if data.Ratio != 4 {
		t.Errorf("ratio = %v, want 4", data.Ratio)
	}
	if got := data.Buckets[0].Value(telemetry.ClientUploadKey("plex")); got != -8000 {
		t.Errorf("scaled upload = %v, want -8000", got)
	}

	if !data.Stacked {
		t.Error("stacked default should be true")
	}
	wantOrder := []string{"plex", "jellyfin"}
	for _, dir := range []string{"download", "upload"} {
		got := data.StackOrder[dir]
		if len(got) != len(wantOrder) || got[0] != "plex" || got[1] != "jellyfin" {
			t.Errorf("stack order %s = %v, want %v", dir, got, wantOrder)
		}
	}
}

func TestChartDefaultResolution(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h := testHandler(t, testConfig())

	// Two samples in the same minute bucket aggregate to their mean.
	publishSamples(t, h, []telemetry.Sample{
		sampleAt(base, map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 100}),
		sampleAt(base.Add(30*time.Second), map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 300}),
	})

	w := httptest.NewRecorder()
	h.Chart(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var data ChartData
	decodeData(t, w.Body.Bytes(), &data)

	if data.Resolution != "1" {
		t.Errorf("resolution = %q, want 1", data.Resolution)
	}
	if len(data.Buckets) != 1 {
		t.Fatalf("buckets = %d, want 1", len(data.Buckets))
	}
	if got := data.Buckets[0].Value(telemetry.KeyWANDownload); got != 200 {
		t.Errorf("bucket mean = %v, want 200", got)
	}
}

func TestChartZoomRange(t *testing.T) {
	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	h := testHandler(t, testConfig())
	publishSamples(t, h, []telemetry.Sample{
		sampleAt(base, map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 1}),
		sampleAt(base.Add(time.Minute), map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 2}),
		sampleAt(base.Add(2*time.Minute), map[telemetry.SeriesKey]float64{telemetry.KeyWANDownload: 3}),
	})

	url := "/api/v1/chart?resolution=raw&start=" + base.Format(time.RFC3339) +
		"&end=" + base.Add(2*time.Minute).Format(time.RFC3339)
	w := httptest.NewRecorder()
	h.Chart(w, httptest.NewRequest(http.MethodGet, url, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var data ChartData
	decodeData(t, w.Body.Bytes(), &data)

	// End is exclusive: the 12:02 sample is out.
	if len(data.Buckets) != 2 {
		t.Fatalf("buckets = %d, want 2", len(data.Buckets))
	}
	if data.EffectiveDurationSeconds == nil || *data.EffectiveDurationSeconds != 60 {
		t.Errorf("effective duration = %v, want 60s", data.EffectiveDurationSeconds)
	}
}

func TestChartValidation(t *testing.T) {
	h := testHandler(t, testConfig())

	tests := []struct {
		name     string
		url      string
		wantCode string
	}{
		{"unknown resolution", "/api/v1/chart?resolution=7", "INVALID_RESOLUTION"},
		{"garbage resolution", "/api/v1/chart?resolution=fast", "INVALID_RESOLUTION"},
		{"start without end", "/api/v1/chart?start=2026-08-30T12:00:00Z", "VALIDATION_ERROR"},
		{"bad start format", "/api/v1/chart?start=yesterday&end=2026-08-30T12:00:00Z", "VALIDATION_ERROR"},
		{"inverted range", "/api/v1/chart?start=2026-08-30T13:00:00Z&end=2026-08-30T12:00:00Z", "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.Chart(w, httptest.NewRequest(http.MethodGet, tt.url, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			resp := decodeData(t, w.Body.Bytes(), nil)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestChartEmptySnapshot(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.Chart(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart?resolution=raw", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var data ChartData
	decodeData(t, w.Body.Bytes(), &data)

	if len(data.Buckets) != 0 {
		t.Errorf("buckets = %d, want 0", len(data.Buckets))
	}
	if data.Generation != 0 {
		t.Errorf("generation = %d, want 0", data.Generation)
	}
	if !data.Stale {
		t.Error("empty snapshot should read stale")
	}
	if data.Ratio != 1 {
		t.Errorf("ratio = %v, want 1", data.Ratio)
	}
}

func TestHistoryDisabled(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.History(w, httptest.NewRequest(http.MethodGet, "/api/v1/history?start=2026-08-30T11:00:00Z&end=2026-08-30T12:00:00Z", nil))

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", w.Code)
	}
}

func TestPrefsDefaults(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.Prefs(w, httptest.NewRequest(http.MethodGet, "/api/v1/prefs", nil))

	var data struct {
		Visibility map[string]bool     `json:"visibility"`
		Stacked    bool                `json:"stacked"`
		Flipped    bool                `json:"flipped"`
		StackOrder map[string][]string `json:"stack_order"`
	}
	decodeData(t, w.Body.Bytes(), &data)

	if !data.Visibility["wan.download"] {
		t.Error("wan.download should default visible")
	}
	if !data.Visibility["plex.upload"] {
		t.Error("plex.upload should default visible")
	}
	if data.Visibility["plex.upload_limit"] {
		t.Error("limit series should default hidden")
	}
	if !data.Stacked {
		t.Error("stacked should default true")
	}
	if data.Flipped {
		t.Error("flipped should default false")
	}
	if got := data.StackOrder["download"]; len(got) != 2 || got[0] != "plex" {
		t.Errorf("download stack order = %v, want [plex jellyfin]", got)
	}
}

func TestToggleVisibility(t *testing.T) {
	h := testHandler(t, testConfig())

	toggle := func(series string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		body := strings.NewReader(`{"series":"` + series + `"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/prefs/visibility/toggle", body)
		h.ToggleVisibility(w, req)
		return w
	}

	w := toggle("plex.upload")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var data struct {
		Visibility map[string]bool `json:"visibility"`
	}
	decodeData(t, w.Body.Bytes(), &data)
	if data.Visibility["plex.upload"] {
		t.Error("plex.upload should be hidden after toggle")
	}

	// Toggling a limit series shows it.
	w = toggle("plex.upload_limit")
	decodeData(t, w.Body.Bytes(), &data)
	if !data.Visibility["plex.upload_limit"] {
		t.Error("plex.upload_limit should be shown after toggle")
	}
}

func TestToggleVisibilityRejectsUnknownSeries(t *testing.T) {
	h := testHandler(t, testConfig())

	tests := []struct {
		name   string
		series string
	}{
		{"unknown owner", "router.download"},
		{"disabled client", "emby.download"},
		{"unknown metric", "plex.latency"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			body := strings.NewReader(`{"series":"` + tt.series + `"}`)
			h.ToggleVisibility(w, httptest.NewRequest(http.MethodPost, "/api/v1/prefs/visibility/toggle", body))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			resp := decodeData(t, w.Body.Bytes(), nil)
			if resp.Error == nil || resp.Error.Code != "UNKNOWN_SERIES" {
				t.Errorf("error = %+v, want UNKNOWN_SERIES", resp.Error)
			}
		})
	}
}

func TestSetStackedAndFlipped(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.SetStacked(w, httptest.NewRequest(http.MethodPut, "/api/v1/prefs/stacked", strings.NewReader(`{"stacked":false}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("stacked status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	h.SetFlipped(w, httptest.NewRequest(http.MethodPut, "/api/v1/prefs/flipped", strings.NewReader(`{"flipped":true}`)))
	if w.Code != http.StatusOK {
		t.Fatalf("flipped status = %d, want 200", w.Code)
	}

	var data struct {
		Stacked bool `json:"stacked"`
		Flipped bool `json:"flipped"`
	}
	decodeData(t, w.Body.Bytes(), &data)
	if data.Stacked {
		t.Error("stacked should be false")
	}
	if !data.Flipped {
		t.Error("flipped should be true")
	}
}

func TestMoveStackToFront(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	body := strings.NewReader(`{"direction":"upload","client_id":"jellyfin"}`)
	h.MoveStackToFront(w, httptest.NewRequest(http.MethodPost, "/api/v1/prefs/stack-order/move-to-front", body))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var data struct {
		StackOrder map[string][]string `json:"stack_order"`
	}
	decodeData(t, w.Body.Bytes(), &data)

	if got := data.StackOrder["upload"]; len(got) != 2 || got[0] != "jellyfin" {
		t.Errorf("upload order = %v, want [jellyfin plex]", got)
	}
	// Download direction is untouched.
	if got := data.StackOrder["download"]; len(got) != 2 || got[0] != "plex" {
		t.Errorf("download order = %v, want [plex jellyfin]", got)
	}
}

func TestMoveStackToFrontValidation(t *testing.T) {
	h := testHandler(t, testConfig())

	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"bad direction", `{"direction":"sideways","client_id":"plex"}`, "INVALID_DIRECTION"},
		{"unknown client", `{"direction":"download","client_id":"router"}`, "UNKNOWN_CLIENT"},
		{"disabled client", `{"direction":"download","client_id":"emby"}`, "UNKNOWN_CLIENT"},
		{"malformed body", `{direction}`, "VALIDATION_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.MoveStackToFront(w, httptest.NewRequest(http.MethodPost, "/api/v1/prefs/stack-order/move-to-front", strings.NewReader(tt.body)))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			resp := decodeData(t, w.Body.Bytes(), nil)
			if resp.Error == nil || resp.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want %s", resp.Error, tt.wantCode)
			}
		})
	}
}

func TestClients(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.Clients(w, httptest.NewRequest(http.MethodGet, "/api/v1/clients", nil))

	var clients []ClientInfo
	decodeData(t, w.Body.Bytes(), &clients)

	if len(clients) != 3 {
		t.Fatalf("clients = %d, want 3", len(clients))
	}
	if clients[0].Label != "Plex" {
		t.Errorf("label = %q, want Plex", clients[0].Label)
	}
	// Label falls back to the ID.
	if clients[1].Label != "jellyfin" {
		t.Errorf("label = %q, want jellyfin", clients[1].Label)
	}
	if clients[2].Enabled {
		t.Error("emby should be disabled")
	}
}

func TestSeries(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.Series(w, httptest.NewRequest(http.MethodGet, "/api/v1/chart/series", nil))

	var series []SeriesInfo
	decodeData(t, w.Body.Bytes(), &series)

	// 4 fixed series + 4 per enabled client.
	if len(series) != 12 {
		t.Fatalf("series = %d, want 12", len(series))
	}

	byKey := make(map[string]SeriesInfo, len(series))
	for _, s := range series {
		byKey[s.Key] = s
	}

	if s := byKey["wan.download"]; s.Direction != "download" || !s.Visible {
		t.Errorf("wan.download = %+v, want visible download", s)
	}
	if s := byKey["stream.bitrate"]; s.Direction != "upload" {
		t.Errorf("stream.bitrate direction = %q, want upload", s.Direction)
	}
	if s := byKey["stream.count"]; s.Direction != "none" {
		t.Errorf("stream.count direction = %q, want none", s.Direction)
	}
	if s := byKey["plex.download_limit"]; !s.Limit || s.Visible {
		t.Errorf("plex.download_limit = %+v, want hidden limit", s)
	}
	if s := byKey["jellyfin.upload"]; s.Label != "jellyfin Upload" {
		t.Errorf("label = %q, want jellyfin Upload", s.Label)
	}
	if _, ok := byKey["emby.download"]; ok {
		t.Error("disabled client should have no series")
	}
}

type fakeSource struct {
	pingErr error
}

func (f *fakeSource) Fetch(ctx context.Context, since time.Time) ([]telemetry.Sample, error) {
	return nil, nil
}

func (f *fakeSource) Ping(ctx context.Context) error { return f.pingErr }

func TestHealth(t *testing.T) {
	h := testHandler(t, testConfig())
	h.source = &fakeSource{}

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var health HealthStatus
	decodeData(t, w.Body.Bytes(), &health)

	// Collector reachable but no snapshot yet: degraded.
	if health.Status != "degraded" {
		t.Errorf("status = %q, want degraded", health.Status)
	}
	if !health.SourceConnected {
		t.Error("source should be connected")
	}

	publishSamples(t, h, nil)

	w = httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	decodeData(t, w.Body.Bytes(), &health)

	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if health.SnapshotGeneration != 1 {
		t.Errorf("generation = %d, want 1", health.SnapshotGeneration)
	}
}

func TestHealthDegradedOnSourceFailure(t *testing.T) {
	h := testHandler(t, testConfig())
	h.source = &fakeSource{pingErr: errors.New("connection refused")}
	publishSamples(t, h, nil)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	var health HealthStatus
	decodeData(t, w.Body.Bytes(), &health)

	if health.Status != "degraded" {
		t.Errorf("status = %q, want degraded", health.Status)
	}
	if health.SourceConnected {
		t.Error("source should be disconnected")
	}
}

func TestHealthReady(t *testing.T) {
	h := testHandler(t, testConfig())

	w := httptest.NewRecorder()
	h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("status before first poll = %d, want 503", w.Code)
	}

	publishSamples(t, h, nil)

	w = httptest.NewRecorder()
	h.HealthReady(w, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status after first poll = %d, want 200", w.Code)
	}
}
