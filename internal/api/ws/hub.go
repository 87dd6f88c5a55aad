package ws

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/foxsearch/internal/shared/types"
)

// Event types
const (
	EventResults   = "results"
	EventNoResults = "no_results"
	EventSystem    = "system"
	EventPong      = "pong"
	EventError     = "error"
)

// subscriberBuffer is how many events a slow subscriber may lag behind
const subscriberBuffer = 16

// Event is the wire message
type Event struct {
	Type      string         `json:"type"`
	Records   []types.Record `json:"records,omitempty"`
	FirstPage bool           `json:"first_page,omitempty"`
	Query     string         `json:"query,omitempty"`
	Message   string         `json:"message,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

// Subscriber receives encoded events
type Subscriber struct {
	ID     string
	events chan []byte
}

// Events is the subscriber's event stream; closed on unsubscribe
func (s *Subscriber) Events() <-chan []byte {
	return s.events
}

// Hub fans render events out to subscribers
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]*Subscriber
	logger *zap.Logger
	now    func() time.Time
}

// NewHub creates an empty hub
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		subs:   make(map[string]*Subscriber),
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers a new subscriber
func (h *Hub) Subscribe() *Subscriber {
	sub := &Subscriber{ID: uuid.NewString(), events: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	h.subs[sub.ID] = sub
	h.mu.Unlock()
	return sub
}

// Unsubscribe removes and closes a subscriber
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.subs[sub.ID]; ok {
		delete(h.subs, sub.ID)
		close(sub.events)
	}
}

// Len returns the subscriber count
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// OnResultsReady broadcasts a newly appended page
func (h *Hub) OnResultsReady(records []types.Record, isFirstPage bool) {
	h.Broadcast(Event{Type: EventResults, Records: records, FirstPage: isFirstPage})
}

// OnNoResults broadcasts that a query found nothing
func (h *Hub) OnNoResults(query string) {
	h.Broadcast(Event{Type: EventNoResults, Query: query})
}

// Broadcast encodes ev once and offers it to every subscriber
func (h *Hub) Broadcast(ev Event) {
	ev.Timestamp = h.now().Unix()
	payload, err := sonic.Marshal(ev)
	if err != nil {
		h.logger.Error("encode event", zap.String("type", ev.Type), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		select {
		case sub.events <- payload:
		default:
			h.logger.Warn("subscriber lagging, event dropped", zap.String("subscriber", sub.ID), zap.String("type", ev.Type))
		}
	}
}
