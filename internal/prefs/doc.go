// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

// Package prefs persists the dashboard's chart preferences: per-series
// visibility, the stacked and flipped orientation flags, and the
// per-direction client stack orders.
//
// Preferences round-trip through a generic string-keyed KV store as flat
// JSON blobs. Persisted data is never trusted to be complete: loads always
// start from the hard-coded defaults and overlay whatever was persisted, so
// newly introduced series are not silently lost and corrupt blobs degrade
// to defaults.
//
// Visibility and ordering are cosmetic, so persistence failures are logged
// and swallowed rather than surfaced; the in-memory state stays
// authoritative for the session.
package prefs
