// Bandscope - Media Server Bandwidth Monitoring Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/bandscope

package websocket

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/bandscope/internal/logging"
	"github.com/tomtom215/bandscope/internal/metrics"
)

// Message types for WebSocket communication.
const (
	MessageTypeChartUpdate = "chart_update"
	MessageTypePrefsUpdate = "prefs_update"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
)

// Message represents a WebSocket message.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ChartUpdateData announces a new (or failed) telemetry snapshot. The
// dashboard refetches chart data with its own view parameters on receipt.
type ChartUpdateData struct {
	Generation uint64 `json:"generation"`
	CapturedAt string `json:"captured_at,omitempty"`
	LastError  string `json:"last_error,omitempty"`
}

// PrefsUpdateData carries the full preference state after a change, so
// every open dashboard tab converges without refetching.
type PrefsUpdateData struct {
	Visibility map[string]bool     `json:"visibility"`
	Stacked    bool                `json:"stacked"`
	Flipped    bool                `json:"flipped"`
	StackOrder map[string][]string `json:"stack_order"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// Serve implements suture.Service.
//
// DETERMINISM: Uses priority-based selection to ensure predictable
// behavior when multiple channels are ready simultaneously (Go's select
// picks randomly otherwise):
//   - Priority 1: Context cancellation (shutdown)
//   - Priority 2: Client lifecycle events (Register/Unregister)
//   - Priority 3: Broadcast messages
func (h *Hub) Serve(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking)
		select {
		case client := <-h.Register:
			h.register(client)
			continue
		case client := <-h.Unregister:
			h.unregister(client)
			continue
		default:
		}

		// Priority 3: Handle broadcasts or wait for any event (blocking)
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.register(client)
		case client := <-h.Unregister:
			h.unregister(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (h *Hub) String() string {
	return "websocket-hub"
}

func (h *Hub) register(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WSConnections.Set(float64(total))
	logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
}

// broadcastToClients sends a message to all connected clients.
// DETERMINISM: iterates clients sorted by ID so delivery order is
// reproducible; map iteration order is not.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WSMessagesSent.WithLabelValues(message.Type).Inc()
		default:
			// Send buffer full; the client cannot keep up.
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WSClientsDropped.Inc()
		logging.Warn().Uint64("client_id", client.id).Msg("dropping slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WSConnections.Set(float64(len(h.clients)))
	}
}

// shutdown closes all connected clients in ID order and logs the result.
// Context cancellation is expected behavior, so nothing here logs at
// error level.
func (h *Hub) shutdown() {
	h.mu.Lock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WSConnections.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", len(clients)).
		Msg("websocket hub stopped")
}

// BroadcastChartUpdate notifies all clients that the telemetry snapshot
// changed. Non-blocking: if the broadcast queue is full the update is
// dropped, since a fresher one is at most one poll interval away.
func (h *Hub) BroadcastChartUpdate(generation uint64, capturedAt time.Time, lastError string) {
	data := ChartUpdateData{
		Generation: generation,
		LastError:  lastError,
	}
	if !capturedAt.IsZero() {
		data.CapturedAt = capturedAt.UTC().Format(time.RFC3339)
	}

	select {
	case h.broadcast <- Message{Type: MessageTypeChartUpdate, Data: data}:
	default:
		logging.Warn().Msg("broadcast channel full, dropping chart_update message")
	}
}

// BroadcastPrefsUpdate pushes the full preference state to all clients.
func (h *Hub) BroadcastPrefsUpdate(data PrefsUpdateData) {
	select {
	case h.broadcast <- Message{Type: MessageTypePrefsUpdate, Data: data}:
	default:
		logging.Warn().Msg("broadcast channel full, dropping prefs_update message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// MarshalMessage converts a message to JSON.
func MarshalMessage(msg Message) ([]byte, error) {
	return json.Marshal(msg)
}
