// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

/*
Package config provides layered configuration loading via Koanf v2.

Precedence, highest last:

 1. Built-in defaults (defaultConfig)
 2. YAML config file (config.yaml, or CONFIG_PATH)
 3. Environment variables

Scalar settings can come from any layer. The monitored client list is
structural and is only expressible in the YAML file:

	source:
	  url: http://collector.lan:9090
	  api_key: secret
	clients:
	  - id: sabnzbd
	    label: SABnzbd
	    enabled: true
	    download_limit_kbps: 50000
	  - id: plex
	    label: Plex
	    enabled: true

The loaded Config is validated before it is returned and immutable
afterwards, so it is safe to share across goroutines without locking.
*/
package config
