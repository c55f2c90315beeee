// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package source

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/metrics"
	"github.com/tomtom215/bandscope/internal/telemetry"
)

// BreakerClient wraps a Client with a circuit breaker so a down collector
// fails fast instead of holding the poll loop on timeouts.
//
// DETERMINISM NOTE: the breaker uses real time (via sony/gobreaker) for
// its interval and timeout calculations. Tests should stub the wrapped
// Client rather than the breaker.
type BreakerClient struct {
	client Client
	cb     *gobreaker.CircuitBreaker[[]telemetry.Sample]
	name   string
}

// ErrBreakerOpen reports that the request was rejected without reaching
// the collector.
var ErrBreakerOpen = gobreaker.ErrOpenState

// NewBreakerClient wraps client with a circuit breaker.
// Breaker configuration:
//   - Max 3 concurrent requests in half-open state
//   - 1 minute measurement window
//   - 2 minute timeout before attempting recovery
//   - Opens after 60% failure rate with minimum 10 requests
func NewBreakerClient(client Client) *BreakerClient {
	cbName := "collector-api"

	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed

	cb := gobreaker.NewCircuitBreaker[[]telemetry.Sample](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false // need statistical significance
			}

			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			shouldTrip := failureRatio >= 0.6

			if shouldTrip {
				logging.Warn().Uint32("failures", counts.TotalFailures).Float64("failure_rate", failureRatio*100).Msg("[CIRCUIT BREAKER] Opening circuit")
			}

			return shouldTrip
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()
		},
	})

	return &BreakerClient{
		client: client,
		cb:     cb,
		name:   cbName,
	}
}

// Fetch implements Client with breaker protection.
func (b *BreakerClient) Fetch(ctx context.Context, since time.Time) ([]telemetry.Sample, error) {
	samples, err := b.cb.Execute(func() ([]telemetry.Sample, error) {
		return b.client.Fetch(ctx, since)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Warn().Err(err).Msg("[CIRCUIT BREAKER] Fetch rejected")
		} else {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		}
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	return samples, nil
}

// Ping implements Client. Health checks bypass the breaker: they are the
// signal that tells the operator whether the collector is back.
func (b *BreakerClient) Ping(ctx context.Context) error {
	return b.client.Ping(ctx)
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
