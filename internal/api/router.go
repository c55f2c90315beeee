// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into the HTTP surface.
type Router struct {
	handler    *Handler
	middleware *Middleware
}

// NewRouter creates a router from a configured handler.
func NewRouter(handler *Handler) *Router {
	return &Router{
		handler:    handler,
		middleware: NewMiddleware(&handler.config.Server),
	}
}

// Setup configures all HTTP routes.
func (router *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to all routes in order. CORS is global
	// so OPTIONS preflight is answered before rate limiting.
	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.middleware.CORS())

	// Health endpoints get permissive rate limiting so uptime monitors
	// can probe frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(router.middleware.RateLimitHealth())
		r.Get("/", router.handler.Health)
		r.Get("/live", router.handler.HealthLive)
		r.Get("/ready", router.handler.HealthReady)
	})

	// Data endpoints.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(router.middleware.RateLimit())
		r.Use(Metrics())

		r.Get("/chart", router.handler.Chart)
		r.Get("/chart/series", router.handler.Series)
		r.Get("/history", router.handler.History)
		r.Get("/clients", router.handler.Clients)

		r.Route("/prefs", func(r chi.Router) {
			r.Get("/", router.handler.Prefs)
			r.Post("/visibility/toggle", router.handler.ToggleVisibility)
			r.Put("/stacked", router.handler.SetStacked)
			r.Put("/flipped", router.handler.SetFlipped)
			r.Post("/stack-order/move-to-front", router.handler.MoveStackToFront)
		})

		r.Get("/ws", router.handler.WebSocket)
	})

	// Prometheus metrics, unthrottled for the scraper.
	r.Handle("/metrics", promhttp.Handler())

	return r
}
