// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

/*
Package source implements the HTTP client for the telemetry collector.

The collector is the LAN-side agent that samples per-client speeds (via
the download clients' own APIs), SNMP WAN counters, and media server
stream activity, and serves them as JSON sample records.

Two layers:

  - Client: the plain HTTP client. Handles API-key authentication,
    HTTP 429 backoff with Retry-After support, and JSON decoding.
  - BreakerClient: wraps a Client with a sony/gobreaker circuit breaker
    so a down collector fails fast instead of stacking up timeouts in
    the poll loop.

Both honor context cancellation on every request.
*/
package source
