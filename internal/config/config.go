// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package config

import (
	"fmt"
	"time"
)

// Config holds all application configuration loaded from defaults, an
// optional YAML config file, and environment variables (highest priority).
//
// Config is immutable after LoadWithKoanf() and safe for concurrent read
// access from multiple goroutines.
type Config struct {
	Server  ServerConfig   `koanf:"server"`
	Source  SourceConfig   `koanf:"source"`
	Poll    PollConfig     `koanf:"poll"`
	Clients []ClientConfig `koanf:"clients"`
	Chart   ChartConfig    `koanf:"chart"`
	Store   StoreConfig    `koanf:"store"`
	History HistoryConfig  `koanf:"history"`
	Logging LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds the HTTP server settings.
//
// Environment Variables:
//   - HTTP_PORT: Listen port (default: 3858)
//   - HTTP_HOST: Bind address (default: 0.0.0.0)
//   - HTTP_TIMEOUT: Read/write timeout (default: 30s)
//   - CORS_ORIGINS: Comma-separated allowed origins (default: *)
//   - RATE_LIMIT_REQUESTS / RATE_LIMIT_WINDOW: Per-IP rate limiting
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
}

// SourceConfig holds the telemetry source connection settings. The source
// is the collector endpoint that aggregates per-client SNMP and API reads
// into sample records.
//
// Environment Variables:
//   - SOURCE_URL: Base URL of the collector (required)
//   - SOURCE_API_KEY: API key sent as X-Api-Key (optional)
//   - SOURCE_TIMEOUT: Per-request timeout (default: 10s)
type SourceConfig struct {
	URL     string        `koanf:"url"`
	APIKey  string        `koanf:"api_key"`
	Timeout time.Duration `koanf:"timeout"`
}

// PollConfig controls the poll loop that refreshes the telemetry snapshot.
type PollConfig struct {
	Interval time.Duration `koanf:"interval"`
	// Window is how far back each poll requests samples. It bounds the
	// in-memory snapshot, so it should cover the widest chart range the
	// dashboard offers.
	Window        time.Duration `koanf:"window"`
	RetryAttempts int           `koanf:"retry_attempts"`
	RetryDelay    time.Duration `koanf:"retry_delay"`
}

// ClientConfig describes one monitored LAN client. Clients are listed in
// the YAML config file; there is no environment form for the list.
type ClientConfig struct {
	ID                string  `koanf:"id"`
	Label             string  `koanf:"label"`
	Enabled           bool    `koanf:"enabled"`
	DownloadLimitKbps float64 `koanf:"download_limit_kbps"`
	UploadLimitKbps   float64 `koanf:"upload_limit_kbps"`
}

// ChartConfig holds chart rendering defaults.
type ChartConfig struct {
	// DefaultResolution is the bucket width served when a request names
	// none, e.g. "1m", "15s", or "raw".
	DefaultResolution string `koanf:"default_resolution"`
}

// StoreConfig holds the embedded preference store settings.
type StoreConfig struct {
	Path string `koanf:"path"`
}

// HistoryConfig holds the optional long-term sample archive settings.
type HistoryConfig struct {
	Enabled   bool          `koanf:"enabled"`
	Path      string        `koanf:"path"`
	Retention time.Duration `koanf:"retention"`
	// PruneInterval is how often expired rows are deleted.
	PruneInterval time.Duration `koanf:"prune_interval"`
}

// LoggingConfig holds logging settings.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json or console (default: json)
//   - LOG_CALLER: Include caller file:line (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// EnabledClientIDs returns the IDs of enabled clients in config order.
// Config order is the canonical ordering for stack reconciliation.
func (c *Config) EnabledClientIDs() []string {
	ids := make([]string, 0, len(c.Clients))
	for _, client := range c.Clients {
		if client.Enabled {
			ids = append(ids, client.ID)
		}
	}
	return ids
}

// Client returns the config for id, or false when no such client exists.
func (c *Config) Client(id string) (ClientConfig, bool) {
	for _, client := range c.Clients {
		if client.ID == id {
			return client, true
		}
	}
	return ClientConfig{}, false
}

// Validate checks the configuration for values that would fail at runtime.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Source.URL == "" {
		return fmt.Errorf("source.url is required (set SOURCE_URL or source.url in config.yaml)")
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll.interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.Window < c.Poll.Interval {
		return fmt.Errorf("poll.window %s must cover at least one poll.interval %s", c.Poll.Window, c.Poll.Interval)
	}

	seen := make(map[string]bool, len(c.Clients))
	for i, client := range c.Clients {
		if client.ID == "" {
			return fmt.Errorf("clients[%d]: id is required", i)
		}
		if seen[client.ID] {
			return fmt.Errorf("clients[%d]: duplicate id %q", i, client.ID)
		}
		seen[client.ID] = true
		if client.DownloadLimitKbps < 0 || client.UploadLimitKbps < 0 {
			return fmt.Errorf("clients[%d] (%s): limits must be non-negative", i, client.ID)
		}
	}

	if c.History.Enabled {
		if c.History.Path == "" {
			return fmt.Errorf("history.path is required when history.enabled is true")
		}
		if c.History.Retention <= 0 {
			return fmt.Errorf("history.retention must be positive, got %s", c.History.Retention)
		}
	}

	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}

	return nil
}
