// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package prefs

import (
	"errors"
	"sync"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Stack orders are kept per chart direction: the download stack and the
// upload stack are ordered independently.
const keyStackOrderPrefix = "stack_order:"

// Reconcile adjusts a persisted client order to a changed enabled-client
// set: survivors keep their relative order, newly enabled clients append in
// the enabled set's own order, stale entries drop.
//
// When nothing changes, the input slice itself is returned — not an equal
// copy — so callers can compare slices cheaply and skip a redundant
// persistence write. That identity is part of the contract.
func Reconcile(current, enabled []string) []string {
	enabledSet := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		enabledSet[id] = true
	}

	kept := make([]string, 0, len(current))
	keptSet := make(map[string]bool, len(current))
	for _, id := range current {
		if enabledSet[id] {
			kept = append(kept, id)
			keptSet[id] = true
		}
	}

	added := make([]string, 0, len(enabled))
	for _, id := range enabled {
		if !keptSet[id] {
			added = append(added, id)
		}
	}

	if len(kept) == len(current) && len(added) == 0 {
		return current
	}
	return append(kept, added...)
}

// MoveToFront re-derives an order with id first and the remaining entries
// in their prior relative order. An id absent from the order is prepended.
func MoveToFront(order []string, id string) []string {
	out := make([]string, 0, len(order)+1)
	out = append(out, id)
	for _, other := range order {
		if other != id {
			out = append(out, other)
		}
	}
	return out
}

// StackOrderStore persists the per-direction client stack orders. The first
// entry of an order is drawn innermost in the stacked rendering.
type StackOrderStore struct {
	kv KV
	mu sync.Mutex
}

// NewStackOrderStore creates a store over kv.
func NewStackOrderStore(kv KV) *StackOrderStore {
	return &StackOrderStore{kv: kv}
}

// Load returns the persisted order for a direction, or nil when none was
// ever persisted (callers reconcile against the enabled set either way).
func (s *StackOrderStore) Load(dir telemetry.Direction) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked(dir)
}

func (s *StackOrderStore) loadLocked(dir telemetry.Direction) []string {
	blob, err := s.kv.Get(keyStackOrderPrefix + dir.String())
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logging.Warn().Err(err).Str("direction", dir.String()).Msg("stack order read failed, using empty order")
		}
		return nil
	}
	var order []string
	if err := json.Unmarshal(blob, &order); err != nil {
		logging.Warn().Err(err).Str("direction", dir.String()).Msg("stack order blob corrupt, using empty order")
		return nil
	}
	return order
}

// Reconcile loads the persisted order, reconciles it against the enabled
// clients for the direction, persists only when the order actually changed,
// and returns the effective order.
func (s *StackOrderStore) Reconcile(dir telemetry.Direction, enabled []string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := s.loadLocked(dir)
	reconciled := Reconcile(current, enabled)
	if len(reconciled) == len(current) && sameOrder(reconciled, current) {
		return reconciled
	}

	s.persistLocked(dir, reconciled)
	return reconciled
}

// MoveToFront moves a client to the innermost stack position and persists
// the new order.
func (s *StackOrderStore) MoveToFront(dir telemetry.Direction, id string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	order := MoveToFront(s.loadLocked(dir), id)
	s.persistLocked(dir, order)
	return order
}

func (s *StackOrderStore) persistLocked(dir telemetry.Direction, order []string) {
	blob, err := json.Marshal(order)
	if err == nil {
		err = s.kv.Set(keyStackOrderPrefix+dir.String(), blob)
	}
	if err != nil {
		logging.Warn().Err(err).Str("direction", dir.String()).Msg("stack order persist failed, keeping in-memory order")
	}
}

// sameOrder reports element-wise equality (lengths assumed equal).
func sameOrder(a, b []string) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
