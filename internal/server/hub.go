package server

import (
	"context"
	"io"
	"sync"

	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/logging"
	"github.com/jebjosh/Convert32bitWavTo24or16Bit/internal/pipeline"
)

// allRuns is the subscription key of clients that want every run's events.
const allRuns = ""

// Hub maintains the set of active WebSocket clients and broadcasts run
// events to them. A client too slow to keep its buffer drained is dropped,
// and events are dropped outright when the broadcast queue is full, so
// subscribers only see a best-effort copy of the bus.
type Hub struct {
	log *logging.Logger

	// Registered clients keyed by the run id they follow.
	clients map[string]map[*Client]bool

	broadcast  chan pipeline.Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	mu sync.Mutex
}

// NewHub creates a new WebSocket hub. Call Run to start it.
func NewHub(log *logging.Logger) *Hub {
	if log == nil {
		log = logging.NewWriterLogger(io.Discard, false)
	}
	return &Hub{
		log:        log,
		clients:    make(map[string]map[*Client]bool),
		broadcast:  make(chan pipeline.Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main event loop. It returns when ctx is done, after
// closing every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for key, clients := range h.clients {
				for client := range clients {
					close(client.send)
				}
				delete(h.clients, key)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.runID] == nil {
				h.clients[client.runID] = make(map[*Client]bool)
			}
			h.clients[client.runID][client] = true
			h.mu.Unlock()
			h.log.Debug("WebSocket client connected (run %q)", client.runID)

		case client := <-h.unregister:
			h.mu.Lock()
			h.remove(client.runID, client)
			h.mu.Unlock()
			h.log.Debug("WebSocket client disconnected (run %q)", client.runID)

		case event := <-h.broadcast:
			h.mu.Lock()
			h.deliver(event.RunID, event)
			if event.RunID != allRuns {
				h.deliver(allRuns, event)
			}
			h.mu.Unlock()
		}
	}
}

// deliver sends event to the clients following key. Must hold h.mu.
func (h *Hub) deliver(key string, event pipeline.Event) {
	for client := range h.clients[key] {
		select {
		case client.send <- event:
		default:
			h.remove(key, client)
		}
	}
}

// remove drops client and closes its send channel. Must hold h.mu.
func (h *Hub) remove(key string, client *Client) {
	clients, ok := h.clients[key]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)
	if len(clients) == 0 {
		delete(h.clients, key)
	}
}

// Broadcast queues event for delivery without blocking. Events are dropped
// when the queue is full or the hub has stopped.
func (h *Hub) Broadcast(event pipeline.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.log.Debug("WebSocket broadcast queue full, dropping %s event", event.Type)
	}
}

// Emit implements pipeline.Sink.
func (h *Hub) Emit(event pipeline.Event) { h.Broadcast(event) }

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := 0
	for _, clients := range h.clients {
		n += len(clients)
	}
	return n
}

// RegisterClient registers a new client with the hub. It reports false when
// the hub has stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client from the hub
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Publisher returns a sink that sequences events on bus and then pushes the
// sequenced copy to the hub's clients.
func Publisher(bus *pipeline.EventBus, hub *Hub) pipeline.Sink {
	return pipeline.SinkFunc(func(e pipeline.Event) {
		hub.Broadcast(bus.Publish(e))
	})
}
