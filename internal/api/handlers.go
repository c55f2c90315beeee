// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"github.com/tomtom215/bandscope/internal/config"
	"github.com/tomtom215/bandscope/internal/history"
	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/poller"
	"github.com/tomtom215/bandscope/internal/prefs"
	"github.com/tomtom215/bandscope/internal/source"
	ws "github.com/tomtom215/bandscope/internal/websocket"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	config     *config.Config
	snapshots  *poller.Store
	visibility *prefs.VisibilityStore
	stackOrder *prefs.StackOrderStore
	history    *history.Store
	wsHub      *ws.Hub
	source     source.Client
	startTime  time.Time
}

// NewHandler creates a handler. history may be nil when the archive is
// disabled; wsHub and source may be nil in tests.
func NewHandler(
	cfg *config.Config,
	snapshots *poller.Store,
	visibility *prefs.VisibilityStore,
	stackOrder *prefs.StackOrderStore,
	hist *history.Store,
	hub *ws.Hub,
	src source.Client,
) *Handler {
	return &Handler{
		config:     cfg,
		snapshots:  snapshots,
		visibility: visibility,
		stackOrder: stackOrder,
		history:    hist,
		wsHub:      hub,
		source:     src,
		startTime:  time.Now(),
	}
}

func (h *Handler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  1024,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin validates WebSocket connection origins against the
// configured CORS origins. Browsers always send Origin; its absence means
// a non-browser client, which is allowed (curl, scripts, monitors).
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	for _, allowed := range h.config.Server.CORSOrigins {
		if allowed == "*" || allowed == origin {
			return true
		}
	}

	// Same-origin connections are always fine.
	if u, err := url.Parse(origin); err == nil && u.Host == r.Host {
		return true
	}

	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("WebSocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades the connection and hands it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if h.wsHub == nil {
		logging.Warn().Msg("WebSocket connection rejected: hub not initialized")
		respondError(w, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "WebSocket service unavailable", nil)
		return
	}

	upgrader := h.getUpgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error().Err(err).Msg("WebSocket upgrade error")
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	h.wsHub.Register <- client
	client.Start()
}
