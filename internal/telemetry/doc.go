// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

// Package telemetry defines the raw data model shared by the polling,
// aggregation, and presentation layers.
//
// A Sample is one timestamped telemetry point carrying a sparse set of
// numeric series values (per-client download/upload speeds, configured
// limits, stream bitrate, active-stream count, WAN counters). Samples are
// immutable once produced by a poll; every downstream stage builds new
// slices rather than mutating its input.
//
// Series are identified by SeriesKey strings of the form "<owner>.<metric>"
// ("sabnzbd.download", "wan.upload", "stream.bitrate"). Each key classifies
// into a chart direction (download side, upload side, or overlay) via
// DirectionOf; the dual-polarity scaler in internal/chart uses this
// classification to decide which side of the shared axis a series renders on.
//
// Timestamps arrive as ISO-8601 strings that may lack an explicit UTC
// designator. ParseTimestamp always interprets designator-less timestamps as
// UTC, never local time.
package telemetry
