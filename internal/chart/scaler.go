// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package chart

import (
	"math"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

// VisibilityMap maps every known series key to shown (true) or hidden
// (false). Hidden series keep their raw bucket values but contribute zero to
// the scaler's magnitude sums.
type VisibilityMap map[telemetry.SeriesKey]bool

// Clone returns an independent copy of the map.
func (m VisibilityMap) Clone() VisibilityMap {
	out := make(VisibilityMap, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ScaleResult is the scaler's output: the transformed bucket set and the
// ratio applied to the negative-direction group. The ratio is ephemeral,
// recomputed on every call, and must travel with the data so the
// presentation layer can invert it.
type ScaleResult struct {
	Buckets []telemetry.Sample
	Ratio   float64
}

// Scale balances the two direction groups onto one shared signed axis.
//
// Orientation: with flipped=false the download group renders positive and
// the upload group negative; flipped=true swaps them. The ratio always
// divides out as maxPositive/maxNegative over the visible per-bucket group
// totals, so the positive side stays unscaled and the negative side is
// multiplied to visually match it. When either side peaks at zero the ratio
// is 1 and the negative side is merely negated.
//
// Transform per bucket value: negative-group keys become -abs(v)*ratio,
// everything else (positive group and overlay series) becomes abs(v).
// Input buckets are never mutated; the result holds fresh copies.
//
// Zero-length input yields {nil, 1}. There are no error conditions.
func Scale(buckets []telemetry.Sample, visibility VisibilityMap, flipped bool) ScaleResult {
	if len(buckets) == 0 {
		return ScaleResult{Ratio: 1}
	}

	positiveDir, negativeDir := telemetry.DirectionDownload, telemetry.DirectionUpload
	if flipped {
		positiveDir, negativeDir = negativeDir, positiveDir
	}

	var maxPositive, maxNegative float64
	for _, b := range buckets {
		var positiveTotal, negativeTotal float64
		for k, v := range b.Values {
			if !visibility[k] {
				continue
			}
			switch telemetry.DirectionOf(k) {
			case positiveDir:
				positiveTotal += v
			case negativeDir:
				negativeTotal += v
			}
		}
		maxPositive = math.Max(maxPositive, positiveTotal)
		maxNegative = math.Max(maxNegative, negativeTotal)
	}

	ratio := 1.0
	if maxPositive > 0 && maxNegative > 0 {
		ratio = maxPositive / maxNegative
	}

	transformed := make([]telemetry.Sample, 0, len(buckets))
	for _, b := range buckets {
		values := make(map[telemetry.SeriesKey]float64, len(b.Values))
		for k, v := range b.Values {
			if telemetry.DirectionOf(k) == negativeDir {
				values[k] = -math.Abs(v) * ratio
			} else {
				values[k] = math.Abs(v)
			}
		}
		transformed = append(transformed, telemetry.Sample{Time: b.Time, Values: values})
	}

	return ScaleResult{Buckets: transformed, Ratio: ratio}
}

// InverseTransform recovers the true magnitude of a transformed value for
// display. Positive-side values pass through as-is; negative-side values
// are un-negated and divided back down by the ratio.
func InverseTransform(transformed, ratio float64) float64 {
	v := math.Abs(transformed)
	if transformed < 0 && ratio != 1 {
		v /= ratio
	}
	return v
}
