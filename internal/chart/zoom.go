// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package chart

import (
	"time"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

// TimeRange is a half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within the half-open range.
func (r TimeRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Zoom narrows samples to the half-open range [r.Start, r.End). A nil range
// returns the input unchanged. The input must already be sorted ascending
// (the aggregator guarantees this), so the result is the contiguous
// subsequence inside the range.
func Zoom(samples []telemetry.Sample, r *TimeRange) []telemetry.Sample {
	if r == nil {
		return samples
	}
	out := samples[:0:0]
	for _, s := range samples {
		if r.Contains(s.Time) {
			out = append(out, s)
		}
	}
	return out
}

// EffectiveDuration returns the span between the first and last sample.
// It is advisory only, used downstream to pick a display resolution for
// axis labels. Fewer than two samples has no meaningful span and yields nil
// rather than a zero duration, so callers can distinguish "instantaneous"
// from "unknown".
func EffectiveDuration(samples []telemetry.Sample) *time.Duration {
	if len(samples) < 2 {
		return nil
	}
	d := samples[len(samples)-1].Time.Sub(samples[0].Time)
	return &d
}
