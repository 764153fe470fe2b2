// Package event provides the in-memory hub that fans message events out to live streams.
package event

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	// DefaultBufferSize is the default per-subscriber channel buffer.
	DefaultBufferSize = 64
)

// Type identifies the event category.
type Type string

const (
	// TypeMessageCreated is emitted after a message and its conversation aggregates are committed.
	TypeMessageCreated Type = "message_created"
	// TypeMessageStatus is emitted after a delivery status changes.
	TypeMessageStatus Type = "message_status"
)

// Event is one conversation-scoped notification.
type Event struct {
	Type           Type            `json:"type"`
	ConversationID string          `json:"conversation_id"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Publisher publishes events to subscribers.
type Publisher interface {
	Publish(event Event)
}

// Subscriber subscribes to conversation-scoped events.
type Subscriber interface {
	Subscribe(conversationID string, buffer int) (string, <-chan Event, func())
}

// Hub is an in-process pub/sub dispatcher keyed by conversation ID.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[string]chan Event
}

func NewHub() *Hub {
	return &Hub{
		streams: map[string]map[string]chan Event{},
	}
}

// Publish delivers the event to every subscriber of its conversation.
// A full subscriber buffer drops the event instead of blocking the writer.
func (h *Hub) Publish(event Event) {
	if h == nil {
		return
	}
	key := strings.TrimSpace(event.ConversationID)
	if key == "" {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.streams[key] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Subscribe registers a stream for one conversation.
// It returns a stream ID, the event channel, and a cancel function that closes the channel.
func (h *Hub) Subscribe(conversationID string, buffer int) (string, <-chan Event, func()) {
	key := strings.TrimSpace(conversationID)
	if h == nil || key == "" {
		ch := make(chan Event)
		close(ch)
		return "", ch, func() {}
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	streamID := uuid.NewString()
	ch := make(chan Event, buffer)

	h.mu.Lock()
	streams, ok := h.streams[key]
	if !ok {
		streams = map[string]chan Event{}
		h.streams[key] = streams
	}
	streams[streamID] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			streams := h.streams[key]
			if current, ok := streams[streamID]; ok {
				delete(streams, streamID)
				close(current)
			}
			if len(streams) == 0 {
				delete(h.streams, key)
			}
		})
	}
	return streamID, ch, cancel
}

// Subscribers reports how many streams are open for a conversation.
func (h *Hub) Subscribers(conversationID string) int {
	if h == nil {
		return 0
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[strings.TrimSpace(conversationID)])
}
