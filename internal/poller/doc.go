// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

/*
Package poller maintains the in-memory telemetry snapshot.

A Poller periodically fetches the sample window from the collector and
publishes it as an immutable Snapshot into a Store. Chart requests read
the snapshot; they never touch the network.

Polls carry a generation number issued when the poll starts. The Store
only installs a snapshot whose generation is newer than the published
one, so when a stalled poll completes after its successor the stale
result is discarded. Failed polls keep the previous samples visible and
stamp the snapshot with the failure, letting the dashboard show stale
data with an error banner instead of going blank.
*/
package poller
