// Package hub fans JSON events out to dashboard websocket clients.
// One goroutine owns the client set; everything else talks to it over channels.
package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
)

const (
	// publishBuffer absorbs bursts while the run loop is busy.
	publishBuffer = 256

	// clientBuffer is how far a client may lag before it is evicted.
	clientBuffer = 64
)

// Stats counts hub activity since start.
type Stats struct {
	Clients   int    `json:"clients"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
	Evicted   uint64 `json:"evicted"`
}

// Hub broadcasts every published event to all joined clients.
type Hub struct {
	name   string
	logger *slog.Logger

	events chan []byte
	join   chan *Client
	leave  chan *Client
	done   chan struct{}

	// retain keeps the newest event for clients that join later.
	retain bool

	mu      sync.RWMutex
	clients map[*Client]struct{}
	latest  []byte

	running   atomic.Bool
	published atomic.Uint64
	dropped   atomic.Uint64
	evicted   atomic.Uint64
}

// New creates a hub for one-off events such as alerts.
func New(name string, logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		name:    name,
		logger:  logger.With("component", "hub", "hub", name),
		events:  make(chan []byte, publishBuffer),
		join:    make(chan *Client),
		leave:   make(chan *Client),
		done:    make(chan struct{}),
		clients: make(map[*Client]struct{}),
	}
}

// NewReplay creates a hub for state streams: a client that joins late is
// sent the newest event first.
func NewReplay(name string, logger *slog.Logger) *Hub {
	h := New(name, logger)
	h.retain = true
	return h
}

// Run owns the client set until ctx is cancelled. Call once.
func (h *Hub) Run(ctx context.Context) {
	h.running.Store(true)
	defer func() {
		h.running.Store(false)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			return

		case c := <-h.join:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			if h.latest != nil {
				c.send <- h.latest
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client joined", "clients", n)

		case c := <-h.leave:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				h.dropLocked(c)
			}
			n := len(h.clients)
			h.mu.Unlock()
			h.logger.Debug("client left", "clients", n)

		case event := <-h.events:
			h.deliver(event)
		}
	}
}

func (h *Hub) deliver(event []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.retain {
		h.latest = event
	}
	for c := range h.clients {
		select {
		case c.send <- event:
		default:
			h.dropLocked(c)
			h.evicted.Add(1)
			h.logger.Warn("evicted slow client")
		}
	}
}

func (h *Hub) dropLocked(c *Client) {
	delete(h.clients, c)
	close(c.send)
}

// PublishRaw queues pre-encoded JSON. Never blocks; drops when the queue is full.
func (h *Hub) PublishRaw(event []byte) {
	select {
	case h.events <- event:
		h.published.Add(1)
	default:
		h.dropped.Add(1)
		h.logger.Warn("event queue full, dropping event")
	}
}

// Publish encodes v as JSON and queues it.
func (h *Hub) Publish(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.PublishRaw(data)
	return nil
}

// Stats returns the current counters.
func (h *Hub) Stats() Stats {
	h.mu.RLock()
	n := len(h.clients)
	h.mu.RUnlock()
	return Stats{
		Clients:   n,
		Published: h.published.Load(),
		Dropped:   h.dropped.Load(),
		Evicted:   h.evicted.Load(),
	}
}

// ClientCount returns the number of joined clients.
func (h *Hub) ClientCount() int {
	return h.Stats().Clients
}

// IsRunning reports whether Run is active.
func (h *Hub) IsRunning() bool {
	return h.running.Load()
}
