// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package poller

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/metrics"
	"github.com/tomtom215/bandscope/internal/source"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Recorder receives successfully polled samples for archival. Implemented
// by the history store; a nil Recorder disables archival.
type Recorder interface {
	Record(ctx context.Context, samples []telemetry.Sample) error
}

// Poller drives the poll loop. It implements suture.Service.
type Poller struct {
	client source.Client
	store  *Store
	cfg    config.PollConfig

	recorder Recorder
	onUpdate func(Snapshot)

	gen          atomic.Uint64
	lastRecorded atomic.Int64 // unix seconds of the newest archived sample
	wg           sync.WaitGroup
}

// New creates a Poller. recorder and onUpdate may be nil.
func New(client source.Client, store *Store, cfg config.PollConfig, recorder Recorder, onUpdate func(Snapshot)) *Poller {
	return &Poller{
		client:   client,
		store:    store,
		cfg:      cfg,
		recorder: recorder,
		onUpdate: onUpdate,
	}
}

// Serve implements suture.Service. It polls immediately, then on every
// tick. Each poll runs in its own goroutine so a stalled collector cannot
// stop the ticker; the Store's generation check discards late results.
func (p *Poller) Serve(ctx context.Context) error {
	logging.Info().Dur("interval", p.cfg.Interval).Dur("window", p.cfg.Window).Msg("Starting telemetry poller")

	p.spawnPoll(ctx)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logging.Info().Msg("[poller] Context canceled, stopping")
			p.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			p.spawnPoll(ctx)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (p *Poller) String() string {
	return "telemetry-poller"
}

func (p *Poller) spawnPoll(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.poll(ctx)
	}()
}

// poll runs one fetch-and-publish cycle under a fresh generation.
func (p *Poller) poll(ctx context.Context) {
	generation := p.gen.Add(1)
	start := time.Now()
	since := start.Add(-p.cfg.Window)

	samples, err := p.fetchWithRetry(ctx, since)
	elapsed := time.Since(start)

	if err != nil {
		if ctx.Err() != nil {
			return // shutdown, not a collector failure
		}
		metrics.RecordPoll(elapsed, 0, failureReason(err), err)
		if p.store.RecordFailure(generation, err, time.Now()) {
			logging.Warn().Err(err).Uint64("generation", generation).Msg("poll failed, serving stale snapshot")
			p.notify()
		}
		return
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})

	snap := Snapshot{
		Samples:    samples,
		Generation: generation,
		CapturedAt: time.Now(),
	}

	if !p.store.Publish(snap) {
		metrics.RecordPoll(elapsed, 0, "stale", errors.New("superseded by newer poll"))
		logging.Debug().Uint64("generation", generation).Msg("discarding superseded poll result")
		return
	}

	metrics.RecordPoll(elapsed, len(samples), "", nil)
	metrics.RecordSnapshot(snap.Generation, snap.CapturedAt)
	p.archive(ctx, samples)
	p.notify()
}

// fetchWithRetry retries transport failures with a fixed delay. Rate
// limiting is already handled inside the client; this loop covers the
// collector restarting mid-poll.
func (p *Poller) fetchWithRetry(ctx context.Context, since time.Time) ([]telemetry.Sample, error) {
	var lastErr error

	attempts := p.cfg.RetryAttempts
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		samples, err := p.client.Fetch(ctx, since)
		if err == nil {
			return samples, nil
		}
		lastErr = err

		// An open breaker will not close between retries.
		if errors.Is(err, gobreaker.ErrOpenState) || ctx.Err() != nil {
			break
		}

		select {
		case <-time.After(p.cfg.RetryDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// archive forwards samples newer than the last archived one to the
// recorder. Failures are logged; archival must never block the snapshot.
func (p *Poller) archive(ctx context.Context, samples []telemetry.Sample) {
	if p.recorder == nil || len(samples) == 0 {
		return
	}

	last := p.lastRecorded.Load()
	fresh := make([]telemetry.Sample, 0, len(samples))
	for _, s := range samples {
		if s.Time.Unix() > last {
			fresh = append(fresh, s)
		}
	}
	if len(fresh) == 0 {
		return
	}

	if err := p.recorder.Record(ctx, fresh); err != nil {
		logging.Warn().Err(err).Int("samples", len(fresh)).Msg("history archival failed")
		return
	}
	p.lastRecorded.Store(fresh[len(fresh)-1].Time.Unix())
}

func (p *Poller) notify() {
	if p.onUpdate != nil {
		p.onUpdate(p.store.Current())
	}
}

// failureReason classifies a poll error for the failure counter.
func failureReason(err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "breaker_open"
	case strings.Contains(err.Error(), "decode"):
		return "decode"
	default:
		return "transport"
	}
}
