// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package telemetry

import (
	"fmt"
	"time"
)

// Sample is one raw telemetry point: a UTC timestamp at second resolution
// and a sparse map of series values. A missing key means the value was
// absent at capture time; readers treat absent as zero, never as an error.
//
// Aggregated buckets reuse this type: a bucket is a Sample whose Time is the
// bucket's lower boundary and whose Values hold per-series means. Keeping one
// type means "raw" passthrough is indistinguishable from aggregated output to
// downstream consumers.
type Sample struct {
	Time   time.Time             `json:"time"`
	Values map[SeriesKey]float64 `json:"values"`
}

// Value returns the sample's value for key, with absent keys reading as 0.
func (s Sample) Value(key SeriesKey) float64 {
	return s.Values[key]
}

// Clone returns a deep copy of the sample. Pipeline stages that transform
// values clone first so the poller's snapshot stays immutable.
func (s Sample) Clone() Sample {
	values := make(map[SeriesKey]float64, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}
	return Sample{Time: s.Time, Values: values}
}

// timestampLayouts are tried in order when parsing source timestamps.
// The designator-less layouts parse in time.UTC: the source emits UTC
// instants and a missing designator must not be read as local time.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// ParseTimestamp parses an ISO-8601 timestamp from the telemetry source.
// Timestamps without an explicit UTC designator are treated as UTC.
// The result is truncated to second resolution.
func ParseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t.UTC().Truncate(time.Second), nil
		}
	}
	return time.Time{}, fmt.Errorf("telemetry: unparseable timestamp %q", raw)
}

// ClientRecord is the per-client portion of one wire record.
// All speeds and limits are in kilobits per second; zero means idle or
// unlimited respectively. Absent fields decode to zero.
type ClientRecord struct {
	ID                string  `json:"id"`
	DownloadKbps      float64 `json:"download_kbps"`
	UploadKbps        float64 `json:"upload_kbps"`
	DownloadLimitKbps float64 `json:"download_limit_kbps"`
	UploadLimitKbps   float64 `json:"upload_limit_kbps"`
}

// WANRecord carries the SNMP WAN interface counters of one wire record.
type WANRecord struct {
	DownloadKbps float64 `json:"download_kbps"`
	UploadKbps   float64 `json:"upload_kbps"`
}

// SampleRecord is one record as delivered by the telemetry source API.
type SampleRecord struct {
	Timestamp         string         `json:"timestamp"`
	Clients           []ClientRecord `json:"clients"`
	StreamBitrateKbps float64        `json:"stream_bitrate_kbps"`
	ActiveStreams     float64        `json:"active_streams"`
	WAN               *WANRecord     `json:"wan,omitempty"`
}

// Sample converts a wire record into a Sample. Only non-zero values are
// materialized so sparse records stay sparse; readers see absent as zero
// either way.
func (r SampleRecord) Sample() (Sample, error) {
	ts, err := ParseTimestamp(r.Timestamp)
	if err != nil {
		return Sample{}, err
	}

	values := make(map[SeriesKey]float64)
	put := func(key SeriesKey, v float64) {
		if v != 0 {
			values[key] = v
		}
	}

	for _, c := range r.Clients {
		if c.ID == "" {
			continue
		}
		put(ClientDownloadKey(c.ID), c.DownloadKbps)
		put(ClientUploadKey(c.ID), c.UploadKbps)
		put(ClientDownloadLimitKey(c.ID), c.DownloadLimitKbps)
		put(ClientUploadLimitKey(c.ID), c.UploadLimitKbps)
	}
	put(KeyStreamBitrate, r.StreamBitrateKbps)
	put(KeyStreamCount, r.ActiveStreams)
	if r.WAN != nil {
		put(KeyWANDownload, r.WAN.DownloadKbps)
		put(KeyWANUpload, r.WAN.UploadKbps)
	}

	return Sample{Time: ts, Values: values}, nil
}
