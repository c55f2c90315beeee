// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package telemetry

import "strings"

// SeriesKey is a stable string identifying one drawable quantity.
// Keys are composed as "<owner>.<metric>" where owner is a client ID,
// "wan", or "stream".
type SeriesKey string

// Fixed (non-client) series keys.
const (
	KeyWANDownload   SeriesKey = "wan.download"
	KeyWANUpload     SeriesKey = "wan.upload"
	KeyStreamBitrate SeriesKey = "stream.bitrate"
	KeyStreamCount   SeriesKey = "stream.count"
)

// Per-client metric suffixes.
const (
	metricDownload      = "download"
	metricUpload        = "upload"
	metricDownloadLimit = "download_limit"
	metricUploadLimit   = "upload_limit"
)

// ClientDownloadKey returns the download-speed series key for a client.
func ClientDownloadKey(clientID string) SeriesKey {
	return SeriesKey(clientID + "." + metricDownload)
}

// ClientUploadKey returns the upload-speed series key for a client.
func ClientUploadKey(clientID string) SeriesKey {
	return SeriesKey(clientID + "." + metricUpload)
}

// ClientDownloadLimitKey returns the configured download-limit series key.
func ClientDownloadLimitKey(clientID string) SeriesKey {
	return SeriesKey(clientID + "." + metricDownloadLimit)
}

// ClientUploadLimitKey returns the configured upload-limit series key.
func ClientUploadLimitKey(clientID string) SeriesKey {
	return SeriesKey(clientID + "." + metricUploadLimit)
}

// Owner returns the "<owner>" portion of the key ("sabnzbd", "wan", "stream").
func (k SeriesKey) Owner() string {
	s := string(k)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[:i]
	}
	return s
}

// Metric returns the "<metric>" portion of the key, or "" when the key has
// no owner separator.
func (k SeriesKey) Metric() string {
	s := string(k)
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return s[i+1:]
	}
	return ""
}

// Direction classifies a series onto one side of the shared chart axis.
type Direction int

const (
	// DirectionNone marks overlay series (active-stream count) that are
	// drawn unscaled on the positive side and excluded from the scaler's
	// magnitude sums.
	DirectionNone Direction = iota

	// DirectionDownload groups download speeds, download limits, and the
	// WAN inbound counter.
	DirectionDownload

	// DirectionUpload groups upload speeds, upload limits, the WAN
	// outbound counter, and the stream bitrate.
	DirectionUpload
)

// String implements fmt.Stringer for logging and API responses.
func (d Direction) String() string {
	switch d {
	case DirectionDownload:
		return "download"
	case DirectionUpload:
		return "upload"
	default:
		return "none"
	}
}

// DirectionOf classifies a series key onto its chart direction.
// Download and upload form the two disjoint bandwidth groups balanced by
// the dual-polarity scaler; stream.count is an overlay and belongs to
// neither.
func DirectionOf(key SeriesKey) Direction {
	switch key {
	case KeyWANDownload:
		return DirectionDownload
	case KeyWANUpload, KeyStreamBitrate:
		return DirectionUpload
	case KeyStreamCount:
		return DirectionNone
	}
	switch key.Metric() {
	case metricDownload, metricDownloadLimit:
		return DirectionDownload
	case metricUpload, metricUploadLimit:
		return DirectionUpload
	}
	return DirectionNone
}
