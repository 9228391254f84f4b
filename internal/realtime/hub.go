package realtime

import (
	"context"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/fekuna/stockinator-service/internal/logger"
	"github.com/fekuna/stockinator-service/internal/metrics"
	"go.uber.org/zap"
)

const subscriberBuffer = 64

type Subscriber struct {
	businessID string
	tables     map[string]bool
	send       chan []byte
}

// C delivers JSON encoded events. It is closed when the subscriber is
// removed from the hub.
func (s *Subscriber) C() <-chan []byte { return s.send }

func (s *Subscriber) wants(ev Event) bool {
	if s.businessID != ev.BusinessID {
		return false
	}
	return len(s.tables) == 0 || s.tables[ev.Table]
}

// Hub fans change events out to websocket subscribers.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscriber]struct{}
	logger logger.ZapLogger
}

func NewHub(log logger.ZapLogger) *Hub {
	return &Hub{subs: make(map[*Subscriber]struct{}), logger: log}
}

// Subscribe registers interest in one business. An empty table list means
// every table.
func (h *Hub) Subscribe(businessID string, tables []string) *Subscriber {
	s := &Subscriber{
		businessID: businessID,
		tables:     make(map[string]bool, len(tables)),
		send:       make(chan []byte, subscriberBuffer),
	}
	for _, t := range tables {
		s.tables[t] = true
	}

	h.mu.Lock()
	h.subs[s] = struct{}{}
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(n)
	return s
}

func (h *Hub) Unsubscribe(s *Subscriber) {
	h.mu.Lock()
	h.removeLocked(s)
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(n)
}

func (h *Hub) removeLocked(s *Subscriber) {
	if _, ok := h.subs[s]; ok {
		delete(h.subs, s)
		close(s.send)
	}
}

func (h *Hub) Count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// HandleEvent broadcasts ev. A subscriber whose buffer is full is dropped
// instead of blocking the others.
func (h *Hub) HandleEvent(_ context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	h.mu.Lock()
	for s := range h.subs {
		if !s.wants(ev) {
			continue
		}
		select {
		case s.send <- payload:
		default:
			h.logger.Warn("dropping slow realtime subscriber", zap.String("business_id", s.businessID))
			h.removeLocked(s)
		}
	}
	n := len(h.subs)
	h.mu.Unlock()
	metrics.SetSubscribers(n)
	return nil
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	for s := range h.subs {
		h.removeLocked(s)
	}
	h.mu.Unlock()
	metrics.SetSubscribers(0)
}
