// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/metrics"
)

// requestIDHeader is echoed on every response so a dashboard bug report
// can be matched to server logs.
const requestIDHeader = "X-Request-ID"

// Middleware bundles the cross-cutting HTTP middleware, configured once
// from the server section of the config.
type Middleware struct {
	corsOrigins     []string
	rateLimitReqs   int
	rateLimitWindow time.Duration
}

// NewMiddleware creates middleware from server configuration.
func NewMiddleware(cfg *config.ServerConfig) *Middleware {
	return &Middleware{
		corsOrigins:     cfg.CORSOrigins,
		rateLimitReqs:   cfg.RateLimitReqs,
		rateLimitWindow: cfg.RateLimitWindow,
	}
}

// CORS returns the CORS middleware. It is mounted globally so OPTIONS
// preflight requests are answered before any rate limiting applies.
func (m *Middleware) CORS() func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   m.corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	})
}

// RateLimit returns IP-keyed rate limiting for the data endpoints.
// Rejections are counted per endpoint so a misbehaving dashboard poll
// loop shows up in metrics before anyone notices slow charts.
func (m *Middleware) RateLimit() func(http.Handler) http.Handler {
	if m.rateLimitReqs <= 0 {
		return passthrough
	}
	return httprate.Limit(
		m.rateLimitReqs,
		m.rateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			logging.Warn().
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Msg("Rate limit exceeded")
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Too many requests, please slow down", nil)
		}),
	)
}

// RateLimitHealth returns permissive rate limiting for health endpoints,
// generous enough for aggressive uptime monitors.
func (m *Middleware) RateLimitHealth() func(http.Handler) http.Handler {
	return httprate.Limit(
		1000,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			metrics.APIRateLimitHits.WithLabelValues(r.URL.Path).Inc()
			respondError(w, http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED",
				"Too many requests, please slow down", nil)
		}),
	)
}

// RequestID assigns each request an ID, honoring a caller-provided
// X-Request-ID so a reverse proxy's ID survives end to end.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, id)
			next.ServeHTTP(w, r)
		})
	}
}

// Metrics records request count and latency per chi route pattern.
// Recording by pattern rather than raw path keeps label cardinality
// bounded.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(wrapper, r)

			endpoint := chi.RouteContext(r.Context()).RoutePattern()
			if endpoint == "" {
				endpoint = r.URL.Path
			}
			metrics.RecordAPIRequest(r.Method, endpoint, strconv.Itoa(wrapper.status), time.Since(start))
		})
	}
}

func passthrough(next http.Handler) http.Handler {
	return next
}

// statusRecorder captures the response status code for metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}
