package sentinelservice

import (
	"sync"

	"github.com/monadarb/go_monad_discovery/common/models"
)

const defaultHistoryCapacity = 100

// eventHistory keeps the most recent events, newest first.
type eventHistory struct {
	mu       sync.RWMutex
	capacity int
	events   []models.SwapEvent
}

func newEventHistory(capacity int) *eventHistory {
	if capacity <= 0 {
		capacity = defaultHistoryCapacity
	}

	return &eventHistory{
		capacity: capacity,
		events:   make([]models.SwapEvent, 0, capacity),
	}
}

func (h *eventHistory) add(event models.SwapEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.events = append([]models.SwapEvent{event}, h.events...)
	if len(h.events) > h.capacity {
		h.events = h.events[:h.capacity]
	}
}

func (h *eventHistory) recent() []models.SwapEvent {
	h.mu.RLock()
	defer h.mu.RUnlock()

	events := make([]models.SwapEvent, len(h.events))
	copy(events, h.events)
	return events
}

func (h *eventHistory) len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.events)
}
