// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package chart

import (
	"time"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Params carries every input the pipeline depends on. The pipeline reads no
// ambient state: visibility, orientation, and zoom range are loaded by the
// caller (typically from the prefs store at the API boundary) and passed in
// explicitly, which keeps Run a pure function of its arguments.
type Params struct {
	Resolution Resolution
	Range      *TimeRange
	Visibility VisibilityMap
	Flipped    bool
}

// Result is the pipeline's output handed to the presentation adapter.
type Result struct {
	Buckets []telemetry.Sample
	Ratio   float64

	// EffectiveDuration is the span of the zoomed dataset, nil when fewer
	// than two buckets remain. Advisory only; used for axis-label
	// resolution decisions.
	EffectiveDuration *time.Duration
}

// Run executes Aggregate -> Zoom -> Scale over one immutable sample batch.
// The only error condition is an invalid resolution, which is a caller
// contract violation; every other input degrades to an empty result.
func Run(samples []telemetry.Sample, p Params) (Result, error) {
	buckets, err := Aggregate(samples, p.Resolution)
	if err != nil {
		return Result{}, err
	}

	zoomed := Zoom(buckets, p.Range)
	duration := EffectiveDuration(zoomed)
	scaled := Scale(zoomed, p.Visibility, p.Flipped)

	return Result{
		Buckets:           scaled.Buckets,
		Ratio:             scaled.Ratio,
		EffectiveDuration: duration,
	}, nil
}
