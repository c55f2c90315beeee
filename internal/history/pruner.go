// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package history

import (
	"context"
	"time"

	"github.com/tomtom215/bandscope/internal/logging"
)

// Pruner periodically deletes archived rows past the retention window.
// It implements suture.Service.
type Pruner struct {
	store    *Store
	interval time.Duration
}

// NewPruner creates a Pruner running every interval.
func NewPruner(store *Store, interval time.Duration) *Pruner {
	return &Pruner{store: store, interval: interval}
}

// Serve implements suture.Service.
func (p *Pruner) Serve(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			pruned, err := p.store.Prune(ctx)
			if err != nil {
				logging.Warn().Err(err).Msg("history prune failed")
				continue
			}
			if pruned > 0 {
				logging.Debug().Int64("rows", pruned).Msg("pruned expired history rows")
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (p *Pruner) String() string {
	return "history-pruner"
}
