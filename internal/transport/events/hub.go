// Package events fans freshly appended audit events out to live consumers:
// SSE clients, websocket clients and the compressed audit log.
package events

import (
	"sync"

	"monworld.ai/internal/sim/world"
)

// Hub is a lossy broadcast: a subscriber that cannot keep up has the oldest
// entries dropped rather than stalling the publishers, which run on the
// action path.
type Hub struct {
	mu   sync.Mutex
	subs map[chan world.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: map[chan world.Event]struct{}{}}
}

// Subscribe registers a buffered event channel. Callers must Unsubscribe when
// done or the hub leaks channels.
func (h *Hub) Subscribe() chan world.Event {
	ch := make(chan world.Event, 256)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan world.Event) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

func (h *Hub) Publish(events ...world.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs {
		for _, ev := range events {
			select {
			case ch <- ev:
			default:
				// Drop the oldest entry to make room.
				select {
				case <-ch:
				default:
				}
				select {
				case ch <- ev:
				default:
				}
			}
		}
	}
}
