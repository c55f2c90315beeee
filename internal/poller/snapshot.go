// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package poller

import (
	"sync"
	"time"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Snapshot is one published view of the telemetry window. The Samples
// slice is immutable once published; consumers that transform values must
// clone first.
type Snapshot struct {
	// Samples are ascending by time and cover at most the poll window.
	Samples []telemetry.Sample

	// Generation is the issuance order of the poll that produced this
	// snapshot. Later polls carry higher generations even when their
	// responses arrive out of order.
	Generation uint64

	// CapturedAt is when the poll that produced Samples succeeded.
	// A snapshot whose CapturedAt lags by more than a couple of poll
	// intervals is stale.
	CapturedAt time.Time

	// LastError carries the most recent poll failure, or "" when the
	// last poll succeeded. Samples stay populated across failures.
	LastError   string
	LastErrorAt time.Time
}

// Stale reports whether the snapshot data is older than maxAge.
func (s Snapshot) Stale(maxAge time.Duration) bool {
	return s.CapturedAt.IsZero() || time.Since(s.CapturedAt) > maxAge
}

// Store holds the current snapshot and enforces last-writer-wins by
// generation, not by completion time.
type Store struct {
	mu      sync.RWMutex
	current Snapshot
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

// Current returns the published snapshot. The contained slice must be
// treated as read-only.
func (s *Store) Current() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Publish installs snap if its generation is newer than the published
// one and reports whether it was installed. A poll that finished after a
// younger sibling is discarded here.
func (s *Store) Publish(snap Snapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Generation <= s.current.Generation {
		return false
	}
	// A successful publish clears any stamped failure.
	s.current = snap
	return true
}

// RecordFailure stamps the current snapshot with a poll failure while
// keeping its samples. Failures also respect generation order so a slow
// failed poll cannot overwrite the error state of a newer one.
func (s *Store) RecordFailure(generation uint64, err error, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation <= s.current.Generation {
		return false
	}
	s.current.Generation = generation
	s.current.LastError = err.Error()
	s.current.LastErrorAt = at
	return true
}
