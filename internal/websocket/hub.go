package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"

	"bondpulse/pkg/contracts/domain"
	"bondpulse/pkg/contracts/events"
)

// Hub maintains the set of connected clients and fans operation
// snapshots out to them. One hub per process; clients register through
// ServeWS and are dropped when their send buffer fills rather than
// allowed to stall the broadcast loop.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client

	mu      sync.RWMutex
	running bool
	quit    chan struct{}

	logger  *slog.Logger
	metrics *wsMetrics
}

// NewHub creates a hub. Call Start before registering clients.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		quit:       make(chan struct{}),
		logger:     logger.With(slog.String("component", "websocket.hub")),
		metrics:    newWSMetrics(logger),
	}
}

// Start launches the hub loop.
func (h *Hub) Start() {
	h.mu.Lock()
	if h.running {
		h.mu.Unlock()
		return
	}
	h.running = true
	h.mu.Unlock()
	go h.run()
}

// Stop shuts the hub down and disconnects every client.
func (h *Hub) Stop() {
	h.mu.Lock()
	if !h.running {
		h.mu.Unlock()
		return
	}
	h.running = false
	h.mu.Unlock()

	close(h.quit)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
}

func (h *Hub) run() {
	for {
		select {
		case <-h.quit:
			h.logger.Info("hub shutting down")
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			count := len(h.clients)
			h.mu.Unlock()

			h.metrics.clientConnected()
			h.logger.Info("client connected",
				slog.String("client_id", client.id),
				slog.String("remote_addr", client.remoteAddr),
				slog.Int("clients", count))
			client.enqueue(marshalMessage(events.NewMessage(events.EventTypeConnected,
				map[string]string{"client_id": client.id})))

		case client := <-h.unregister:
			h.dropClient(client, "disconnected")

		case message := <-h.broadcast:
			h.mu.RLock()
			clients := make([]*Client, 0, len(h.clients))
			for client := range h.clients {
				clients = append(clients, client)
			}
			h.mu.RUnlock()

			for _, client := range clients {
				select {
				case client.send <- message:
				default:
					// A stalled client must not block the rest.
					h.dropClient(client, "send buffer full")
				}
			}
			h.metrics.broadcast(len(clients), len(message))
		}
	}
}

func (h *Hub) dropClient(client *Client, reason string) {
	h.mu.Lock()
	if _, ok := h.clients[client]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client)
	close(client.send)
	count := len(h.clients)
	h.mu.Unlock()

	h.metrics.clientDisconnected()
	h.logger.Info("client dropped",
		slog.String("client_id", client.id),
		slog.String("reason", reason),
		slog.Int("clients", count))
}

// BroadcastOperation publishes a run snapshot to every client. It
// implements the operations tracker's Broadcaster.
func (h *Hub) BroadcastOperation(snapshot domain.OperationSnapshot) {
	eventType := events.EventTypeOperationStatus
	if snapshot.IsTerminal() {
		eventType = events.EventTypeOperationComplete
	}
	h.BroadcastEvent(eventType, snapshot)
}

// BroadcastEvent wraps a payload in the event envelope and queues it
// for delivery. Dropped (never blocked on) when the hub is stopped or
// the queue is full.
func (h *Hub) BroadcastEvent(eventType string, payload interface{}) {
	data := marshalMessage(events.NewMessage(eventType, payload))
	select {
	case h.broadcast <- data:
	case <-h.quit:
	default:
		h.logger.Warn("broadcast queue full, dropping event",
			slog.String("event_type", eventType))
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Register queues a client for registration.
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.quit:
	}
}

func marshalMessage(msg events.Message) []byte {
	data, err := json.Marshal(msg)
	if err != nil {
		// NewMessage already degraded the payload; this marshal cannot
		// realistically fail, but never panic the hub loop over it.
		data = []byte(`{"type":"` + events.EventTypeOperationError + `"}`)
	}
	return data
}
