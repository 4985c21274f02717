package sse

import (
	"sync"

	"github.com/google/uuid"
)

const (
	EventNotification = "notification"
	EventInvalidate   = "invalidate"

	// AdminChannel receives management-wide events; approver connections subscribe to it
	AdminChannel = "role:admin"
)

// Event represents an SSE event to be sent to subscribers
type Event struct {
	ID      string
	Channel string
	Event   string
	Data    interface{}
}

// InvalidatePayload lists the read caches a client must refetch
type InvalidatePayload struct {
	Keys []string `json:"keys"`
}

// Hub manages SSE subscribers and event broadcasting.
// A channel is a user ID or a shared channel such as AdminChannel.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Event]struct{}
}

// NewHub creates a new SSE Hub instance
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Event]struct{}),
	}
}

// Subscribe registers one connection on every given channel and returns the event channel and cleanup function
func (h *Hub) Subscribe(channels ...string) (chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Event, 10)

	for _, name := range channels {
		if h.subscribers[name] == nil {
			h.subscribers[name] = make(map[chan Event]struct{})
		}
		h.subscribers[name][ch] = struct{}{}
	}

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			for _, name := range channels {
				delete(h.subscribers[name], ch)
				if len(h.subscribers[name]) == 0 {
					delete(h.subscribers, name)
				}
			}
			close(ch)
		})
	}

	return ch, cleanup
}

// Publish sends an event to all subscribers of a channel
func (h *Hub) Publish(channel string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Channel = channel

	if subs, ok := h.subscribers[channel]; ok {
		for ch := range subs {
			select {
			case ch <- event:
			default:
				// Skip if channel is full (non-blocking to prevent deadlock)
			}
		}
	}
}

// PublishToMany sends an event to multiple channels
func (h *Hub) PublishToMany(channels []string, event Event) {
	for _, name := range channels {
		h.Publish(name, event)
	}
}

// Invalidate tells every connection of the given users to refetch keys
func (h *Hub) Invalidate(userIDs []string, keys ...string) {
	if len(keys) == 0 {
		return
	}
	h.PublishToMany(userIDs, Event{
		Event: EventInvalidate,
		Data:  InvalidatePayload{Keys: keys},
	})
}

// InvalidateManagement tells every approver connection to refetch keys
func (h *Hub) InvalidateManagement(keys ...string) {
	if len(keys) == 0 {
		return
	}
	h.Publish(AdminChannel, Event{
		Event: EventInvalidate,
		Data:  InvalidatePayload{Keys: keys},
	})
}

// SubscriberCount returns the number of active subscribers for a channel
func (h *Hub) SubscriberCount(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if subs, ok := h.subscribers[channel]; ok {
		return len(subs)
	}
	return 0
}

// TotalSubscribers returns the number of distinct active connections
func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[chan Event]struct{})
	for _, subs := range h.subscribers {
		for ch := range subs {
			seen[ch] = struct{}{}
		}
	}
	return len(seen)
}
