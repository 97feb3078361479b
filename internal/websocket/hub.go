// AeroPacer - Running Activity Tracking and Coaching API
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/aeropacer

package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tomtom215/aeropacer/internal/logging"
	"github.com/tomtom215/aeropacer/internal/metrics"
)

// ShutdownReason identifies why the hub stopped.
type ShutdownReason string

const (
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types sent to clients.
const (
	MessageTypePing               = "ping"
	MessageTypePong               = "pong"
	MessageTypeSyncCompleted      = "sync_completed"
	MessageTypeActivityChanged    = "activity_changed"
	MessageTypeStravaConnected    = "strava_connected"
	MessageTypeStravaDisconnected = "strava_disconnected"
)

const outboundBufferSize = 256

// Message is the frame written to clients.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type userMessage struct {
	userID uuid.UUID
	msg    Message
}

// Hub routes messages to the connections of each user.
type Hub struct {
	clients    map[uuid.UUID]map[*Client]struct{}
	outbound   chan userMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

// NewHub creates a Hub. Call Serve to start routing.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]struct{}),
		outbound:   make(chan userMessage, outboundBufferSize),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// String names the hub in supervisor logs.
func (h *Hub) String() string { return "websocket-hub" }

// Register adds a client. It returns false once the hub has shut down.
func (h *Hub) Register(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// SendToUser queues a message for every connection of userID. It never blocks;
// messages are dropped when the outbound queue is full.
func (h *Hub) SendToUser(userID uuid.UUID, messageType string, data interface{}) {
	select {
	case h.outbound <- userMessage{userID: userID, msg: Message{Type: messageType, Data: data}}:
	default:
		metrics.WSErrors.WithLabelValues("queue_full").Inc()
		logging.Warn().
			Str("user_id", userID.String()).
			Str("message_type", messageType).
			Msg("websocket outbound queue full, dropping message")
	}
}

// Serve routes messages until ctx is canceled, then closes every client.
// Lifecycle events are handled before deliveries so a message never races a
// registration that was already pending.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		default:
		}

		select {
		case c := <-h.register:
			h.add(c)
			continue
		case c := <-h.unregister:
			h.remove(c)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown(ctx)
			return ctx.Err()
		case c := <-h.register:
			h.add(c)
		case c := <-h.unregister:
			h.remove(c)
		case um := <-h.outbound:
			h.deliver(um)
		}
	}
}

func (h *Hub) add(c *Client) {
	h.mu.Lock()
	set, ok := h.clients[c.userID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()

	metrics.WSConnections.Inc()
	logging.Debug().Str("user_id", c.userID.String()).Int("total_clients", h.ClientCount()).Msg("websocket client connected")
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	removed := h.dropLocked(c)
	h.mu.Unlock()

	if removed {
		logging.Debug().Str("user_id", c.userID.String()).Int("total_clients", h.ClientCount()).Msg("websocket client disconnected")
	}
}

// dropLocked deletes c and closes its channel. Callers hold h.mu.
func (h *Hub) dropLocked(c *Client) bool {
	set, ok := h.clients[c.userID]
	if !ok {
		return false
	}
	if _, ok := set[c]; !ok {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.WSConnections.Dec()
	return true
}

// deliver sends to the user's clients in ID order, disconnecting any whose
// buffer is full.
func (h *Hub) deliver(um userMessage) {
	h.mu.Lock()
	defer h.mu.Unlock()

	targets := sortedClients(h.clients[um.userID])
	for _, c := range targets {
		select {
		case c.send <- um.msg:
		default:
			metrics.WSErrors.WithLabelValues("slow_client").Inc()
			logging.Warn().Str("user_id", c.userID.String()).Uint64("client_id", c.id).Msg("dropping slow websocket client")
			h.dropLocked(c)
		}
	}
}

func (h *Hub) shutdown(ctx context.Context) {
	h.stopOnce.Do(func() { close(h.done) })

	h.mu.Lock()
	var closed int
	for _, set := range h.clients {
		for _, c := range sortedClients(set) {
			if h.dropLocked(c) {
				closed++
			}
		}
	}
	h.mu.Unlock()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(shutdownReason(ctx))).
		Int("clients_closed", closed).
		Msg("websocket hub stopped")
}

func shutdownReason(ctx context.Context) ShutdownReason {
	if ctx.Err() == context.DeadlineExceeded {
		return ShutdownReasonContextDeadline
	}
	return ShutdownReasonContextCanceled
}

func sortedClients(set map[*Client]struct{}) []*Client {
	out := make([]*Client, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// ClientCount returns the number of open connections.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// UserClientCount returns the number of open connections for userID.
func (h *Hub) UserClientCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
