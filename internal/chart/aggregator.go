// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package chart

import (
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/bandscope/internal/telemetry"
)

// Aggregate buckets samples into fixed-width intervals and returns one
// averaged record per non-empty bucket, sorted ascending by bucket start.
//
// Each sample lands in the bucket floor(t/interval)*interval computed on
// epoch seconds. For every series key present anywhere in a bucket, the
// output value is the arithmetic mean over ALL samples in the bucket with
// absent values counted as zero: partial data dilutes a field rather than
// excluding it. Buckets are derived only from actual samples; gaps in the
// input produce gaps in the output, never synthesized zero buckets.
//
// A raw resolution returns the input slice unchanged. Empty input yields
// empty output. A non-raw resolution with a non-positive interval is a
// caller contract violation and returns an error rather than a silently
// defaulted bucket width.
func Aggregate(samples []telemetry.Sample, res Resolution) ([]telemetry.Sample, error) {
	if res.IsRaw() {
		return samples, nil
	}
	interval := res.Interval()
	if interval <= 0 {
		return nil, fmt.Errorf("chart: non-positive aggregation interval %v", interval)
	}
	if len(samples) == 0 {
		return nil, nil
	}

	intervalSec := int64(interval / time.Second)
	if intervalSec <= 0 {
		return nil, fmt.Errorf("chart: aggregation interval %v below second resolution", interval)
	}

	type group struct {
		count int
		sums  map[telemetry.SeriesKey]float64
	}

	groups := make(map[int64]*group)
	for _, s := range samples {
		start := (s.Time.Unix() / intervalSec) * intervalSec
		g, ok := groups[start]
		if !ok {
			g = &group{sums: make(map[telemetry.SeriesKey]float64)}
			groups[start] = g
		}
		g.count++
		for k, v := range s.Values {
			g.sums[k] += v
		}
	}

	buckets := make([]telemetry.Sample, 0, len(groups))
	for start, g := range groups {
		values := make(map[telemetry.SeriesKey]float64, len(g.sums))
		for k, sum := range g.sums {
			// Absent values contribute zero to the sum but still count in
			// the denominator.
			values[k] = sum / float64(g.count)
		}
		buckets = append(buckets, telemetry.Sample{
			Time:   time.Unix(start, 0).UTC(),
			Values: values,
		})
	}

	// Map iteration above is unordered; the chart contract requires strictly
	// ascending bucket timestamps.
	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Time.Before(buckets[j].Time)
	})

	return buckets, nil
}
