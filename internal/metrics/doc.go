// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

/*
Package metrics provides Prometheus metrics collection and export.

The package instruments the parts of the system that can stall or degrade
silently:

  - Poll loop: duration, failure reasons, samples received, last success
  - Snapshot: generation counter and age (a growing age means the poller
    is falling behind or the source is down)
  - Chart pipeline: per-resolution run duration and bucket counts
  - API: request counts, latency, rate-limit rejections
  - Preference store: persistence failures (writes are fire-and-forget,
    so this counter is the only place they surface)
  - History store: insert/prune throughput and query errors
  - WebSocket hub: connection count, messages sent, slow clients dropped
  - Circuit breaker: state, request outcomes, transitions

Metrics are exposed at the /metrics endpoint in Prometheus text format.
All recording helpers are safe for concurrent use; the Prometheus client
handles synchronization internally.

Metric vars are registered at package init via promauto, so importing the
package is enough to make every series visible on the next scrape.
*/
package metrics
