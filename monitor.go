package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// EventType identifies the kind of roster event.
type EventType string

const (
	EventPartyCreated    EventType = "party_created"
	EventPartyJoined     EventType = "party_joined"
	EventPartyLeft       EventType = "party_left"
	EventRequestRejected EventType = "request_rejected"
	EventClassifyFailed  EventType = "classify_failed"
)

// Event is a single roster event.
type Event struct {
	ID        string         `json:"id"`
	RequestID string         `json:"request_id"`
	Type      EventType      `json:"type"`
	Party     string         `json:"party,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data"`
}

type sseClient struct {
	party string // empty = receive all events
	send  chan []byte
}

// Hub fans out roster events to SSE clients and keeps a bounded in-memory
// history. Nothing is written to disk.
type Hub struct {
	log       *slog.Logger
	mu        sync.RWMutex
	clients   map[*sseClient]struct{}
	broadcast chan Event
	seq       uint64
	history   []Event
	limit     int
}

// NewHub creates a Hub that remembers the last historySize events and starts
// the run goroutine.
func NewHub(log *slog.Logger, historySize int) *Hub {
	if historySize <= 0 {
		historySize = 1
	}
	h := &Hub{
		log:       log,
		clients:   make(map[*sseClient]struct{}),
		broadcast: make(chan Event, 4096),
		limit:     historySize,
	}
	go h.run()
	return h
}

// Emit enqueues an event. No-ops if hub is nil.
func (h *Hub) Emit(requestID string, t EventType, party string, data map[string]any) {
	if h == nil {
		return
	}
	id := atomic.AddUint64(&h.seq, 1)
	e := Event{
		ID:        fmt.Sprintf("%d", id),
		RequestID: requestID,
		Type:      t,
		Party:     party,
		Timestamp: time.Now(),
		Data:      data,
	}
	select {
	case h.broadcast <- e:
	default:
		h.log.Warn("hub: broadcast channel full, dropping event", "type", t, "request_id", requestID)
	}
}

// run processes the broadcast channel. It is the only writer of history.
func (h *Hub) run() {
	for e := range h.broadcast {
		data, err := json.Marshal(e)
		if err != nil {
			h.log.Error("hub: marshal event", "error", err)
			continue
		}

		h.mu.Lock()
		h.history = append(h.history, e)
		if len(h.history) > h.limit {
			h.history = h.history[len(h.history)-h.limit:]
		}
		h.mu.Unlock()

		h.mu.RLock()
		for c := range h.clients {
			if c.party == "" || c.party == e.Party {
				select {
				case c.send <- data:
				default:
					// Client too slow, drop.
				}
			}
		}
		h.mu.RUnlock()
	}
}

// History returns the remembered events, oldest first, optionally limited to
// one party.
func (h *Hub) History(party string) []Event {
	h.mu.RLock()
	defer h.mu.RUnlock()

	events := make([]Event, 0, len(h.history))
	for _, e := range h.history {
		if party == "" || e.Party == party {
			events = append(events, e)
		}
	}
	return events
}

func (h *Hub) add(c *sseClient) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) remove(c *sseClient) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// ServeSSE handles GET /events?party={name} and streams live events to the browser.
func (h *Hub) ServeSSE(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	c := &sseClient{
		party: strings.TrimSpace(r.URL.Query().Get("party")),
		send:  make(chan []byte, 64),
	}
	h.add(c)
	defer h.remove(c)

	// Flush headers so clients see the stream open before the first event.
	flusher.Flush()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// ServeHistory handles GET /api/events?party={name} and returns recent events as JSON.
func (h *Hub) ServeHistory(w http.ResponseWriter, r *http.Request) {
	events := h.History(strings.TrimSpace(r.URL.Query().Get("party")))
	writeJSON(w, http.StatusOK, events)
}
