// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

// Package chart implements the time-series aggregation and dual-polarity
// scaling pipeline that turns raw telemetry samples into a bounded,
// visually balanced dataset for a shared-axis chart.
//
// The pipeline is a pure synchronous function chain:
//
//	Aggregate -> Zoom -> Scale
//
// Aggregate buckets irregularly spaced samples into fixed-width intervals
// and emits per-field arithmetic means. Zoom narrows the dataset to a
// half-open time sub-range and reports the sub-range's effective duration.
// Scale renders download and upload as opposing signed stacks on one linear
// axis: the negative-direction group is negated and multiplied by a single
// ratio so its peak visually matches the positive group's peak. The ratio is
// returned alongside the transformed data so presentation code can invert it
// when formatting true values.
//
// No stage mutates its input, reads ambient state, or performs I/O. Run is
// the entry point: the caller supplies samples, resolution, zoom range,
// visibility map, and orientation explicitly, and persistence of any of
// those stays the caller's responsibility.
package chart
