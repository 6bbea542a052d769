package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Type names a relay event.
type Type string

const (
	TypeReady            Type = "relay.ready"
	TypeCommandStarted   Type = "command.started"
	TypeCommandSucceeded Type = "command.succeeded"
	TypeCommandFailed    Type = "command.failed"
	TypeConfigChanged    Type = "config.changed"
)

// DefaultBuffer is the per-subscriber queue length.
const DefaultBuffer = 64

// Event is one message on the status stream.
type Event struct {
	ID           string    `json:"id"`
	Type         Type      `json:"type"`
	Time         time.Time `json:"time"`
	ConnectionID string    `json:"connectionId,omitempty"`
	InvocationID string    `json:"invocationId,omitempty"`
	Command      string    `json:"command,omitempty"`
	DurationMs   int64     `json:"durationMs,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose queue is full misses the event.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]chan Event
	buffer int
	closed bool
}

// NewHub creates a hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[string]chan Event),
		buffer: buffer,
	}
}

// Subscribe registers a new subscriber. The returned channel is closed by
// cancel or when the hub closes.
func (h *Hub) Subscribe() (string, <-chan Event, func()) {
	id := uuid.NewString()
	ch := make(chan Event, h.buffer)

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return id, ch, func() {}
	}
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.subs[id]; ok {
				delete(h.subs, id)
				close(c)
			}
		})
	}
	return id, ch, cancel
}

// Publish stamps and delivers an event to every subscriber.
func (h *Hub) Publish(e Event) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close ends every subscription. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
}

// CommandStarted implements relay.Observer.
func (h *Hub) CommandStarted(invocationID, command string) {
	h.Publish(Event{Type: TypeCommandStarted, InvocationID: invocationID, Command: command})
}

// CommandFinished implements relay.Observer.
func (h *Hub) CommandFinished(invocationID, command string, took time.Duration, err error) {
	e := Event{
		Type:         TypeCommandSucceeded,
		InvocationID: invocationID,
		Command:      command,
		DurationMs:   took.Milliseconds(),
	}
	if err != nil {
		e.Type = TypeCommandFailed
		e.Error = err.Error()
	}
	h.Publish(e)
}
