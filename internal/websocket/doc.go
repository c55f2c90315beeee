// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

/*
Package websocket pushes live updates to connected dashboards.

Two message types flow hub-to-client:

  - chart_update: a new telemetry snapshot was published (or a poll
    failed). Carries the generation, capture time, and last error; the
    dashboard refetches /api/v1/chart with its own view parameters.
  - prefs_update: a preference changed (visibility toggle, stack
    reorder, orientation flag). Keeps multiple open tabs in sync.

Clients may send ping messages and receive pong replies; everything
else client-to-server is ignored.

The Hub uses priority-based channel selection (shutdown, then client
lifecycle, then broadcasts) and iterates clients in ID order, so message
delivery order is deterministic. Slow clients whose send buffers fill
are dropped rather than allowed to stall the broadcast path.
*/
package websocket
