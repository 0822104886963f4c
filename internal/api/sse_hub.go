package api

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"bayesim/domain/stats"
	"bayesim/internal"

	"github.com/gin-gonic/gin"
)

// RunEvent announces a finished simulation run to stream subscribers
type RunEvent struct {
	EventType   string       `json:"event_type"`
	RunID       string       `json:"run_id"`
	SampleCount int          `json:"sample_count"`
	Seed        int64        `json:"seed"`
	Fingerprint string       `json:"fingerprint"`
	Rates       []stats.Rate `json:"rates,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}

// SSEHub fans run events out to Server-Sent Events clients
type SSEHub struct {
	clients    map[chan RunEvent]bool
	clientsMu  sync.RWMutex
	register   chan chan RunEvent
	unregister chan chan RunEvent
	broadcast  chan RunEvent
	done       chan struct{}
	logger     *internal.Logger
}

// NewSSEHub creates a hub and starts its dispatch loop
func NewSSEHub(logger *internal.Logger) *SSEHub {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	hub := &SSEHub{
		clients:    make(map[chan RunEvent]bool),
		register:   make(chan chan RunEvent, 10),
		unregister: make(chan chan RunEvent, 10),
		broadcast:  make(chan RunEvent, 100),
		done:       make(chan struct{}),
		logger:     logger.With("sse"),
	}

	go hub.run()
	return hub
}

// run processes SSE hub operations until Stop
func (h *SSEHub) run() {
	for {
		select {
		case client := <-h.register:
			h.clientsMu.Lock()
			h.clients[client] = true
			h.logger.Debug("client registered (total clients: %d)", len(h.clients))
			h.clientsMu.Unlock()

		case client := <-h.unregister:
			h.clientsMu.Lock()
			if h.clients[client] {
				delete(h.clients, client)
				close(client)
				h.logger.Debug("client unregistered (remaining clients: %d)", len(h.clients))
			}
			h.clientsMu.Unlock()

		case event := <-h.broadcast:
			h.clientsMu.RLock()
			for client := range h.clients {
				select {
				case client <- event:
				default:
					h.logger.Warn("client channel full, skipping %s for run %s", event.EventType, event.RunID)
				}
			}
			h.clientsMu.RUnlock()

		case <-h.done:
			h.clientsMu.Lock()
			for client := range h.clients {
				close(client)
			}
			h.clients = make(map[chan RunEvent]bool)
			h.clientsMu.Unlock()
			return
		}
	}
}

// Stop ends the dispatch loop and closes every client channel
func (h *SSEHub) Stop() {
	close(h.done)
}

// Subscribe registers a listener. The returned cancel func unregisters it.
func (h *SSEHub) Subscribe() (<-chan RunEvent, func()) {
	client := make(chan RunEvent, 10)
	select {
	case h.register <- client:
	case <-h.done:
		close(client)
		return client, func() {}
	}
	var once sync.Once
	return client, func() {
		once.Do(func() {
			select {
			case h.unregister <- client:
			case <-h.done:
			}
		})
	}
}

// Broadcast sends an event to all listening clients
func (h *SSEHub) Broadcast(event RunEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast channel full, dropping event: %s", event.EventType)
	}
}

// ClientCount returns the number of active clients
func (h *SSEHub) ClientCount() int {
	h.clientsMu.RLock()
	defer h.clientsMu.RUnlock()
	return len(h.clients)
}

// HandleSSE handles the Server-Sent Events endpoint
func (h *SSEHub) HandleSSE(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	events, cancel := h.Subscribe()
	defer cancel()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case event, ok := <-events:
			if !ok {
				return false
			}
			eventJSON, err := json.Marshal(event)
			if err != nil {
				h.logger.Error("failed to marshal event: %v", err)
				return true
			}
			c.SSEvent("run", string(eventJSON))
			return true

		case <-time.After(30 * time.Second):
			c.SSEvent("ping", `{"status": "alive", "timestamp": "`+time.Now().Format(time.RFC3339)+`"}`)
			return true

		case <-ctx.Done():
			return false
		}
	})
}
