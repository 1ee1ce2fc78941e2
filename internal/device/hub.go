package device

import (
	"sort"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Hub fans raw input events out to named subscribers. Device
// implementations embed it to share subscription bookkeeping.
type Hub struct {
	mu       sync.RWMutex
	closed   bool
	nextID   uint64
	handlers map[uint64]hubEntry
}

type hubEntry struct {
	name string
	fn   InputHandler
}

type hubSubscription struct {
	hub  *Hub
	id   uint64
	once sync.Once
}

// NewHub returns an open hub.
func NewHub() *Hub {
	return &Hub{handlers: make(map[uint64]hubEntry)}
}

// Subscribe registers fn. It fails with ErrClosed once the hub is closed.
func (h *Hub) Subscribe(name string, fn InputHandler) (Subscription, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrClosed
	}

	h.nextID++
	id := h.nextID
	h.handlers[id] = hubEntry{name: name, fn: fn}
	log.WithField("subscriber", name).Debug("Input subscriber added")

	return &hubSubscription{hub: h, id: id}, nil
}

// Dispatch delivers ev to every subscriber in registration order.
func (h *Hub) Dispatch(ev InputEvent) {
	h.mu.RLock()
	ids := make([]uint64, 0, len(h.handlers))
	for id := range h.handlers {
		ids = append(ids, id)
	}
	fns := make([]InputHandler, 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fns = append(fns, h.handlers[id].fn)
	}
	h.mu.RUnlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Len returns the number of live subscriptions.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.handlers)
}

// Reopen accepts subscriptions again after Close.
func (h *Hub) Reopen() {
	h.mu.Lock()
	h.closed = false
	h.mu.Unlock()
}

// Close drops every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	h.closed = true
	h.handlers = make(map[uint64]hubEntry)
	h.mu.Unlock()
}

func (s *hubSubscription) Unsubscribe() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		if e, ok := s.hub.handlers[s.id]; ok {
			delete(s.hub.handlers, s.id)
			log.WithField("subscriber", e.name).Debug("Input subscriber removed")
		}
		s.hub.mu.Unlock()
	})
}
