// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Poller Metrics
	PollDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "poll_duration_seconds",
			Help:    "Duration of telemetry source polls in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	PollFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "poll_failures_total",
			Help: "Total number of failed telemetry polls",
		},
		[]string{"reason"}, // "transport", "decode", "breaker_open", "stale"
	)

	PollLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "poll_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll",
		},
	)

	PollSamplesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "poll_samples_received_total",
			Help: "Total number of telemetry samples received from the source",
		},
	)

	SnapshotGeneration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_generation",
			Help: "Generation counter of the published telemetry snapshot",
		},
	)

	SnapshotAge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "snapshot_age_seconds",
			Help: "Age of the published telemetry snapshot in seconds",
		},
	)

	// Chart Pipeline Metrics
	PipelineDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chart_pipeline_duration_seconds",
			Help:    "Duration of chart pipeline runs in seconds",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
		},
		[]string{"resolution"},
	)

	PipelineBuckets = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "chart_pipeline_buckets",
			Help:    "Number of buckets produced per pipeline run",
			Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
		},
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIRateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_rate_limit_hits_total",
			Help: "Total number of rate limit rejections",
		},
		[]string{"endpoint"},
	)

	// Preference Store Metrics
	PrefsStoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prefs_store_errors_total",
			Help: "Total number of preference persistence failures",
		},
		[]string{"key"},
	)

	// History Metrics
	HistoryInsertDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "history_insert_duration_seconds",
			Help:    "Duration of history batch inserts in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	HistoryRowsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_rows_written_total",
			Help: "Total number of sample rows written to the history store",
		},
	)

	HistoryRowsPruned = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "history_rows_pruned_total",
			Help: "Total number of sample rows pruned past the retention window",
		},
	)

	HistoryQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "history_query_errors_total",
			Help: "Total number of failed history store queries",
		},
		[]string{"operation"}, // "insert", "range", "prune"
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_connections",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
		[]string{"type"}, // "chart_update", "prefs_update"
	)

	WSClientsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_clients_dropped_total",
			Help: "Total number of clients dropped for slow consumption",
		},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)
)

// RecordPoll records one poll attempt. A nil err updates the success
// timestamp and sample counter; a non-nil err increments the failure
// counter under reason.
func RecordPoll(duration time.Duration, samples int, reason string, err error) {
	PollDuration.Observe(duration.Seconds())
	if err != nil {
		PollFailures.WithLabelValues(reason).Inc()
		return
	}
	PollSamplesReceived.Add(float64(samples))
	PollLastSuccess.Set(float64(time.Now().Unix()))
}

// RecordSnapshot updates the snapshot gauges after a publish.
func RecordSnapshot(generation uint64, capturedAt time.Time) {
	SnapshotGeneration.Set(float64(generation))
	if !capturedAt.IsZero() {
		SnapshotAge.Set(time.Since(capturedAt).Seconds())
	}
}

// RecordPipelineRun records one chart pipeline execution.
func RecordPipelineRun(resolution string, duration time.Duration, buckets int) {
	PipelineDuration.WithLabelValues(resolution).Observe(duration.Seconds())
	PipelineBuckets.Observe(float64(buckets))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordPrefsError records a failed preference write for key.
func RecordPrefsError(key string) {
	PrefsStoreErrors.WithLabelValues(key).Inc()
}

// RecordHistoryInsert records a history batch insert.
func RecordHistoryInsert(duration time.Duration, rows int, err error) {
	HistoryInsertDuration.Observe(duration.Seconds())
	if err != nil {
		HistoryQueryErrors.WithLabelValues("insert").Inc()
		return
	}
	HistoryRowsWritten.Add(float64(rows))
}
