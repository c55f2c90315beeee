// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package chart

import (
	"fmt"
	"strconv"
	"time"
)

// RawResolution is the literal accepted by ParseResolution for passthrough.
const RawResolution = "raw"

// AllowedResolutionsMinutes is the fixed set of aggregation intervals the
// dashboard offers. Sub-minute entries cover the high-frequency poll rates
// (15s, 30s).
var AllowedResolutionsMinutes = []float64{0.25, 0.5, 1, 5, 10, 15, 30, 60}

// Resolution selects either raw passthrough or a fixed bucket width.
// The zero value is invalid; construct via ParseResolution or Raw/Minutes.
type Resolution struct {
	raw      bool
	interval time.Duration
}

// Raw returns the passthrough resolution.
func Raw() Resolution {
	return Resolution{raw: true}
}

// Minutes returns a bucketing resolution of the given interval length.
// The value is not checked against the allowed set; use ParseResolution at
// the API boundary for that.
func Minutes(m float64) Resolution {
	return Resolution{interval: time.Duration(m * float64(time.Minute))}
}

// IsRaw reports whether the resolution is passthrough.
func (r Resolution) IsRaw() bool {
	return r.raw
}

// Interval returns the bucket width; zero for raw.
func (r Resolution) Interval() time.Duration {
	return r.interval
}

// String implements fmt.Stringer.
func (r Resolution) String() string {
	if r.raw {
		return RawResolution
	}
	return strconv.FormatFloat(r.interval.Minutes(), 'f', -1, 64)
}

// ParseResolution parses a resolution parameter from its API form: the
// literal "raw", a duration like "15s" or "1m", or a bare number of minutes.
// The result must land in AllowedResolutionsMinutes. Anything else is a
// caller error: silently coercing a bad resolution would corrupt bucket
// boundaries invisibly, so parsing fails instead.
func ParseResolution(s string) (Resolution, error) {
	if s == RawResolution {
		return Raw(), nil
	}
	minutes, err := strconv.ParseFloat(s, 64)
	if err != nil {
		d, derr := time.ParseDuration(s)
		if derr != nil {
			return Resolution{}, fmt.Errorf("chart: invalid resolution %q: %w", s, err)
		}
		minutes = d.Minutes()
	}
	for _, allowed := range AllowedResolutionsMinutes {
		if minutes == allowed {
			return Minutes(minutes), nil
		}
	}
	return Resolution{}, fmt.Errorf("chart: resolution %q not in allowed set %v", s, AllowedResolutionsMinutes)
}
