package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"campuspulse/internal/infrastructure"
	"campuspulse/pkg/contracts/domain"
)

const meterName = "campuspulse.websocket"

// Message types sent by the server. Dataset events use their own type,
// domain.EventDatasetReplaced.
const (
	TypeConnection = "connection"
	TypeHeartbeat  = "heartbeat"
)

// broadcastBuffer is the number of outbound broadcasts queued before senders block.
const broadcastBuffer = 64

// ErrHubStopped is returned by Broadcast once the hub's Run loop has exited.
var ErrHubStopped = errors.New("websocket hub stopped")

// Message is the envelope of every server-to-client frame
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

type outbound struct {
	msgType string
	payload []byte
}

// Hub maintains the set of active clients and fans broadcasts out to them.
// All mutations of the client set happen on the Run goroutine.
type Hub struct {
	clients    map[*Client]struct{}
	broadcast  chan outbound
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu      sync.RWMutex
	metrics *OTelMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewHub creates a hub. metrics may be nil.
func NewHub(metrics *OTelMetrics, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	return &Hub{
		clients:    make(map[*Client]struct{}),
		broadcast:  make(chan outbound, broadcastBuffer),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		metrics:    metrics,
		logger:     logger.With(slog.String("component", "websocket.hub")),
		now:        time.Now,
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every client's send channel so their pumps shut down.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	defer h.closeAll(ctx)

	h.logger.InfoContext(ctx, "Hub started")
	for {
		select {
		case <-ctx.Done():
			h.logger.InfoContext(ctx, "Hub shutting down", slog.Int("clients", h.ClientCount()))
			return

		case client := <-h.register:
			h.add(ctx, client)

		case client := <-h.unregister:
			h.remove(ctx, client, "closed")

		case msg := <-h.broadcast:
			h.fanOut(ctx, msg)
		}
	}
}

func (h *Hub) add(ctx context.Context, client *Client) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	count := len(h.clients)
	h.mu.Unlock()

	ctx = client.context(ctx)
	h.metrics.RecordConnection(ctx)
	h.logger.InfoContext(ctx, "Client registered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("remote_addr", client.remoteAddr))

	welcome, err := json.Marshal(Message{
		Type: TypeConnection,
		Data: map[string]interface{}{
			"status":    "connected",
			"client_id": client.id,
		},
		Timestamp: h.now().UTC(),
		TraceID:   client.traceID,
	})
	if err != nil {
		return
	}
	select {
	case client.send <- welcome:
	default:
		h.logger.WarnContext(ctx, "Failed to send connection message - client buffer full",
			slog.String("client_id", client.id))
	}
}

func (h *Hub) remove(ctx context.Context, client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	ctx = client.context(ctx)
	lived := time.Since(client.connectedAt)
	h.metrics.RecordDisconnection(ctx, lived, reason)
	h.logger.InfoContext(ctx, "Client unregistered",
		slog.Int("total_clients", count),
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Duration("connection_duration", lived))
}

func (h *Hub) fanOut(ctx context.Context, msg outbound) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	dropped := 0
	for _, client := range clients {
		select {
		case client.send <- msg.payload:
		default:
			// A client that cannot keep up is disconnected rather than stalling the hub.
			dropped++
			h.remove(ctx, client, "slow_consumer")
		}
	}
	h.metrics.RecordBroadcast(ctx, msg.msgType, dropped)

	h.logger.DebugContext(ctx, "Broadcast delivered",
		slog.String("type", msg.msgType),
		slog.Int("client_count", len(clients)),
		slog.Int("dropped", dropped),
		slog.Int("message_size", len(msg.payload)))
}

func (h *Hub) closeAll(ctx context.Context) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		h.remove(ctx, client, "shutdown")
	}
}

// Register adds a client. It reports false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client; it is a no-op once the hub has stopped.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Broadcast queues a message for every connected client
func (h *Hub) Broadcast(ctx context.Context, msgType string, data interface{}) error {
	payload, err := json.Marshal(Message{
		Type:      msgType,
		Data:      data,
		Timestamp: h.now().UTC(),
		TraceID:   infrastructure.GetTraceID(ctx),
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "Error marshaling message",
			slog.String("error", err.Error()),
			slog.String("message_type", msgType))
		return err
	}

	select {
	case h.broadcast <- outbound{msgType: msgType, payload: payload}:
		return nil
	case <-h.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// OnDatasetReplaced pushes the replacement event to every dashboard
func (h *Hub) OnDatasetReplaced(ctx context.Context, event domain.DatasetEvent) error {
	return h.Broadcast(ctx, event.Type, event)
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Done is closed when Run has returned
func (h *Hub) Done() <-chan struct{} {
	return h.done
}
