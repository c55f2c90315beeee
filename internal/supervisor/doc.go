// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

// Package supervisor builds the suture supervision tree that runs the
// long-lived services: the telemetry poller, the history pruner, the
// WebSocket hub, and the HTTP server.
//
// The tree has two child layers for failure isolation. A crashing poller
// restarts inside the telemetry layer without disturbing the HTTP server,
// which keeps serving the last published snapshot.
//
// Supervisor events are logged through sutureslog, bridged onto the
// zerolog logger via logging.NewSlogLogger.
package supervisor
