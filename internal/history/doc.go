// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

/*
Package history archives telemetry samples in an embedded DuckDB file.

The live snapshot only covers the poll window; history is what backs
charts that look further back, and it survives restarts. Samples are
stored long-form, one row per (timestamp, series, value), which keeps
the schema stable as clients come and go:

	CREATE TABLE samples (
	    ts     TIMESTAMP NOT NULL,
	    series VARCHAR   NOT NULL,
	    value  DOUBLE    NOT NULL
	)

The Store implements poller.Recorder, so enabling history is just a
config flag away. A Pruner service deletes rows past the retention
window on a fixed interval.
*/
package history
