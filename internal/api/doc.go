// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

// Package api provides the HTTP surface of the dashboard: chart data,
// preference mutations, client metadata, health, Prometheus metrics, and
// the WebSocket upgrade endpoint.
//
// Routing uses Chi with a global middleware stack (request ID, real IP,
// panic recovery, CORS) and per-group rate limiting via httprate. All
// responses share the APIResponse envelope; handlers encode with
// goccy/go-json.
//
// The chart endpoint is where ambient view state meets the pipeline:
// visibility, orientation, and stack order are loaded from the prefs
// stores per request and passed into chart.Run explicitly, so the
// pipeline itself stays a pure function.
package api
