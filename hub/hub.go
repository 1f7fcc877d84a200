// hub/hub.go
package hub

import (
	"sync"

	"github.com/rs/zerolog"
)

// Event types published for cache keys.
const (
	EventUpdated     = "updated"
	EventInvalidated = "invalidated"
	EventRemoved     = "removed"
)

type Event struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

const subscriberBuffer = 64

// Hub fans cache change events out to subscribers. A subscriber that falls
// behind loses events instead of stalling the publisher.
type Hub struct {
	clients    map[chan Event]bool
	broadcast  chan Event
	register   chan chan Event
	unregister chan chan Event
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[chan Event]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan chan Event),
		unregister: make(chan chan Event),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "hub").Logger(),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case ch := <-h.register:
			h.mu.Lock()
			h.clients[ch] = true
			h.mu.Unlock()

		case ch := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}
			h.mu.Unlock()

		case ev := <-h.broadcast:
			h.mu.RLock()
			for ch := range h.clients {
				select {
				case ch <- ev:
				default:
					h.log.Warn().Str("key", ev.Key).Str("type", ev.Type).Msg("subscriber too slow, dropping event")
				}
			}
			h.mu.RUnlock()

		case <-h.done:
			h.mu.Lock()
			for ch := range h.clients {
				delete(h.clients, ch)
				close(ch)
			}
			h.mu.Unlock()
			return
		}
	}
}

// Stop ends Run and closes every subscriber channel.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
}

func (h *Hub) Broadcast(eventType, key string) {
	select {
	case h.broadcast <- Event{Type: eventType, Key: key}:
	case <-h.done:
	}
}

// Subscribe returns a channel receiving every later event.
func (h *Hub) Subscribe() <-chan Event {
	ch := make(chan Event, subscriberBuffer)
	select {
	case h.register <- ch:
	case <-h.done:
		close(ch)
	}
	return ch
}

func (h *Hub) Unsubscribe(ch <-chan Event) {
	h.mu.RLock()
	var target chan Event
	for c := range h.clients {
		if (<-chan Event)(c) == ch {
			target = c
			break
		}
	}
	h.mu.RUnlock()
	if target == nil {
		return
	}
	select {
	case h.unregister <- target:
	case <-h.done:
	}
}
