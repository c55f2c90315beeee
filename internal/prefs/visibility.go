// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package prefs

import (
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bandscope/internal/chart"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Persistence keys. Visibility, stacked, and flipped persist independently:
// toggling one never rewrites the others.
const (
	keyVisibility = "chart_visibility"
	keyStacked    = "chart_stacked"
	keyFlipped    = "chart_flipped"
)

// DefaultVisibility builds the hard-coded default map for a client set:
// speeds, WAN counters, stream bitrate, and stream count shown; configured
// limits hidden until the user opts in.
func DefaultVisibility(clientIDs []string) chart.VisibilityMap {
	m := chart.VisibilityMap{
		telemetry.KeyWANDownload:   true,
		telemetry.KeyWANUpload:     true,
		telemetry.KeyStreamBitrate: true,
		telemetry.KeyStreamCount:   true,
	}
	for _, id := range clientIDs {
		m[telemetry.ClientDownloadKey(id)] = true
		m[telemetry.ClientUploadKey(id)] = true
		m[telemetry.ClientDownloadLimitKey(id)] = false
		m[telemetry.ClientUploadLimitKey(id)] = false
	}
	return m
}

// VisibilityStore persists the per-series visibility map and the two
// orientation flags. The in-memory state is authoritative: a failed write
// is logged and dropped, never surfaced, since visibility is a cosmetic
// preference.
type VisibilityStore struct {
	kv       KV
	defaults chart.VisibilityMap

	mu      sync.Mutex
	current chart.VisibilityMap
}

// NewVisibilityStore creates a store over kv with the given default map.
func NewVisibilityStore(kv KV, defaults chart.VisibilityMap) *VisibilityStore {
	return &VisibilityStore{kv: kv, defaults: defaults}
}

// Load returns the effective visibility map: the defaults overlaid with
// whatever was persisted, persisted values winning per key. Persisted data
// is never assumed complete; keys it lacks keep their defaults. A missing
// or corrupt blob degrades to the defaults alone.
func (s *VisibilityStore) Load() chart.VisibilityMap {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked().Clone()
}

// loadLocked populates and returns s.current (must be called with mu held).
func (s *VisibilityStore) loadLocked() chart.VisibilityMap {
	if s.current != nil {
		return s.current
	}

	merged := s.defaults.Clone()
	blob, err := s.kv.Get(keyVisibility)
	switch {
	case errors.Is(err, ErrNotFound):
		// First run, defaults apply.
	case err != nil:
		logging.Warn().Err(err).Msg("visibility read failed, using defaults")
	default:
		var persisted map[telemetry.SeriesKey]bool
		if err := json.Unmarshal(blob, &persisted); err != nil {
			logging.Warn().Err(err).Msg("visibility blob corrupt, using defaults")
		} else {
			for k, v := range persisted {
				merged[k] = v
			}
		}
	}

	s.current = merged
	return s.current
}

// Toggle flips exactly one key, persists the full resulting map, and
// returns it. A persistence failure keeps the flipped in-memory map for
// the session.
func (s *VisibilityStore) Toggle(key telemetry.SeriesKey) chart.VisibilityMap {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadLocked()
	current[key] = !current[key]

	blob, err := json.Marshal(current)
	if err == nil {
		err = s.kv.Set(keyVisibility, blob)
	}
	if err != nil {
		logging.Warn().Err(err).Str("series", string(key)).Msg("visibility persist failed, keeping in-memory state")
	}

	return current.Clone()
}

// Stacked reports whether series render as cumulative stacks (default true).
func (s *VisibilityStore) Stacked() bool {
	return s.loadFlag(keyStacked, true)
}

// SetStacked persists the stacked flag.
func (s *VisibilityStore) SetStacked(v bool) {
	s.storeFlag(keyStacked, v)
}

// Flipped reports the chart orientation: false renders downloads positive,
// true swaps the directions.
func (s *VisibilityStore) Flipped() bool {
	return s.loadFlag(keyFlipped, false)
}

// SetFlipped persists the orientation flag.
func (s *VisibilityStore) SetFlipped(v bool) {
	s.storeFlag(keyFlipped, v)
}

func (s *VisibilityStore) loadFlag(key string, def bool) bool {
	blob, err := s.kv.Get(key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn().Err(err).Str("key", key).Msg("flag read failed, using default")
		}
		return def
	}
	var v bool
	if err := json.Unmarshal(blob, &v); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("flag blob corrupt, using default")
		return def
	}
	return v
}

func (s *VisibilityStore) storeFlag(key string, v bool) {
	blob, err := json.Marshal(v)
	if err == nil {
		err = s.kv.Set(key, blob)
	}
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("flag persist failed")
	}
}
