// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// maxErrorBodySize limits how much of an error response body is read for
// diagnostics, preventing unbounded allocation on large error pages.
const maxErrorBodySize = 64 * 1024 // 64KB

// Client fetches telemetry samples from the collector. Implemented by
// HTTPClient for production and by stubs in tests.
type Client interface {
	// Fetch returns all samples captured at or after since, oldest first.
	Fetch(ctx context.Context, since time.Time) ([]telemetry.Sample, error)
	// Ping verifies connectivity to the collector.
	Ping(ctx context.Context) error
}

// HTTPClient is the production collector client.
//
// Thread Safety: all methods are safe for concurrent use.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client

	maxRetries     int
	retryBaseDelay time.Duration
}

// NewHTTPClient creates a collector client from config.
func NewHTTPClient(cfg *config.SourceConfig) *HTTPClient {
	return &HTTPClient{
		baseURL: cfg.URL,
		apiKey:  cfg.APIKey,
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		maxRetries:     5,
		retryBaseDelay: 1 * time.Second, // doubles each retry: 1s, 2s, 4s, 8s, 16s
	}
}

// Fetch implements Client. Records with unparseable timestamps are skipped
// with a warning rather than failing the whole batch; a collector bug in
// one record must not blind the dashboard.
func (c *HTTPClient) Fetch(ctx context.Context, since time.Time) ([]telemetry.Sample, error) {
	params := url.Values{}
	if !since.IsZero() {
		params.Set("since", since.UTC().Format(time.RFC3339))
	}

	reqURL := c.baseURL + "/api/v1/samples"
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	resp, err := c.doRequestWithRateLimit(ctx, reqURL)
	if err != nil {
		return nil, fmt.Errorf("samples request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return nil, fmt.Errorf("samples request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var records []telemetry.SampleRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("failed to decode samples response: %w", err)
	}

	samples := make([]telemetry.Sample, 0, len(records))
	for _, rec := range records {
		s, err := rec.Sample()
		if err != nil {
			logging.Warn().Err(err).Msg("skipping malformed sample record")
			continue
		}
		samples = append(samples, s)
	}
	return samples, nil
}

// Ping implements Client.
func (c *HTTPClient) Ping(ctx context.Context) error {
	resp, err := c.doRequestWithRateLimit(ctx, c.baseURL+"/api/v1/health")
	if err != nil {
		return fmt.Errorf("health request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readBodyForError(resp.Body)
		return fmt.Errorf("health request failed with status %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// doRequestWithRateLimit performs a GET with automatic HTTP 429 handling.
// Backoff is exponential from retryBaseDelay, overridden by a Retry-After
// header when the collector sends one.
func (c *HTTPClient) doRequestWithRateLimit(ctx context.Context, reqURL string) (*http.Response, error) {
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		if c.apiKey != "" {
			req.Header.Set("X-Api-Key", c.apiKey)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("HTTP request failed: %w", err)
		}

		if resp.StatusCode != http.StatusTooManyRequests {
			return resp, nil
		}

		_ = resp.Body.Close() // retrying anyway

		if attempt == c.maxRetries {
			lastErr = fmt.Errorf("rate limit exceeded after %d retries (HTTP 429)", c.maxRetries)
			break
		}

		delay := c.retryBaseDelay * time.Duration(1<<uint(attempt))
		if retryAfter := resp.Header.Get("Retry-After"); retryAfter != "" {
			if seconds, err := time.ParseDuration(retryAfter + "s"); err == nil {
				delay = seconds
			}
		}

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, lastErr
}

// readBodyForError reads up to maxErrorBodySize of a response body for
// error reporting.
func readBodyForError(r io.Reader) []byte {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	if err != nil {
		return []byte("(failed to read response body)")
	}
	if len(body) == maxErrorBodySize {
		return append(body, []byte("\n... (truncated)")...)
	}
	return body
}
