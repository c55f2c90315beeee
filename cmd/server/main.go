// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

// Package main is the entry point for the Bandscope server.
//
// Bandscope is a self-hosted bandwidth monitoring dashboard for home media
// servers. It polls a collector endpoint for per-client and WAN throughput
// samples, aggregates them into chart buckets, and renders download and
// upload traffic on a shared dual-polarity axis.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: defaults, config file, environment (Koanf v2)
//  2. Preference store: BadgerDB for visibility, orientation, stack order
//  3. History archive (optional): DuckDB long-term sample store
//  4. WebSocket hub: real-time snapshot and preference pushes
//  5. Telemetry source: collector HTTP client behind a circuit breaker
//  6. Poller: periodic sample fetches with last-writer-wins publishing
//  7. HTTP server: chart, prefs, clients, health, and metrics endpoints
//
// All long-running services run under a suture supervisor tree, so a
// crashing poller restarts without taking the HTTP server down.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins): environment variables, config.yaml, built-in defaults.
// The client roster can only be expressed in the config file:
//
//	source:
//	  url: http://collector:9105
//	clients:
//	  - id: plex
//	    label: Plex
//	    enabled: true
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: it stops
// accepting connections, drains in-flight requests (10s timeout), then
// closes the preference store and history archive.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/bandscope/internal/api"
	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/history"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/poller"
	"github.com/tomtom215/bandscope/internal/prefs"
	"github.com/tomtom215/bandscope/internal/source"
	"github.com/tomtom215/bandscope/internal/supervisor"
	ws "github.com/tomtom215/bandscope/internal/websocket"
)

func main() {
	// Load configuration first to get logging settings.
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("source_url", cfg.Source.URL).
		Int("clients", len(cfg.Clients)).
		Dur("poll_interval", cfg.Poll.Interval).
		Bool("history_enabled", cfg.History.Enabled).
		Msg("Starting Bandscope")

	// Preference store. Badger wants a directory, not a file.
	badgerOpts := badger.DefaultOptions(cfg.Store.Path).WithLogger(nil)
	badgerDB, err := badger.Open(badgerOpts)
	if err != nil {
		logging.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("Failed to open preference store")
	}
	defer func() {
		if err := badgerDB.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing preference store")
		}
	}()

	kv := prefs.NewBadgerKV(badgerDB)
	visibility := prefs.NewVisibilityStore(kv, prefs.DefaultVisibility(cfg.EnabledClientIDs()))
	stackOrder := prefs.NewStackOrderStore(kv)

	// Optional long-term archive.
	var hist *history.Store
	if cfg.History.Enabled {
		hist, err = history.Open(&cfg.History)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.History.Path).Msg("Failed to open history archive")
		}
		defer func() {
			if err := hist.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing history archive")
			}
		}()
		logging.Info().
			Str("path", cfg.History.Path).
			Dur("retention", cfg.History.Retention).
			Msg("History archive enabled")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Collector client behind a circuit breaker.
	client := source.NewBreakerClient(source.NewHTTPClient(&cfg.Source))
	if err := client.Ping(ctx); err != nil {
		logging.Warn().Err(err).Msg("Failed to reach collector (will retry)")
	} else {
		logging.Info().Msg("Connected to collector")
	}

	wsHub := ws.NewHub()

	snapshots := poller.NewStore()
	var recorder poller.Recorder
	if hist != nil {
		recorder = hist
	}
	tp := poller.New(client, snapshots, cfg.Poll, recorder, func(snap poller.Snapshot) {
		wsHub.BroadcastChartUpdate(snap.Generation, snap.CapturedAt, snap.LastError)
	})

	handler := api.NewHandler(cfg, snapshots, visibility, stackOrder, hist, wsHub, client)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
	}

	// Supervisor tree: telemetry layer restarts independently of the API
	// layer, so a flapping collector never blanks the dashboard.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddTelemetryService(tp)
	if hist != nil {
		tree.AddTelemetryService(history.NewPruner(hist, cfg.History.PruneInterval))
	}
	tree.AddAPIService(wsHub)
	tree.AddAPIService(supervisor.NewHTTPServerService(server, 10*time.Second))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
