package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// hubRingSize is the number of recent events kept in memory for
// Last-Event-ID reconnection support on the SSE stream.
const hubRingSize = 1000

// Entry is a single event as stored in the hub: sequence number, topic and
// JSON-encoded payload.
type Entry struct {
	ID    uint64
	Topic string
	Data  []byte
}

// Subscription is one registered in-process consumer. Events whose topic
// matches the subscription's filters arrive on C; slow consumers lose events
// rather than block the publisher.
type Subscription struct {
	topics []string
	ch     chan *Entry
}

// C returns the delivery channel.
func (s *Subscription) C() <-chan *Entry { return s.ch }

// Matches reports whether the subscription's topic filters match the given
// topic. An empty filter list matches all topics.
func (s *Subscription) Matches(topic string) bool {
	if len(s.topics) == 0 {
		return true
	}
	for _, pattern := range s.topics {
		if matchTopic(pattern, topic) {
			return true
		}
	}
	return false
}

// Hub is the in-process event bus. It implements Publisher, so it slots into
// a Fanout next to the NATS publisher; the SSE endpoint subscribes to it and
// replays missed events from its ring buffer.
type Hub struct {
	mu     sync.RWMutex
	subs   map[*Subscription]struct{}
	nextID atomic.Uint64

	// Ring buffer for replay on reconnection.
	ringMu  sync.RWMutex
	ring    [hubRingSize]Entry
	ringPos int // next write position (wraps around)
	ringLen int // number of valid entries (up to hubRingSize)
}

// NewHub returns an empty hub with no subscribers.
func NewHub() *Hub {
	return &Hub{subs: make(map[*Subscription]struct{})}
}

// Publish encodes the event, stores it in the ring buffer and fans it out to
// matching subscribers. It never blocks on a slow subscriber.
func (h *Hub) Publish(_ context.Context, topic string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}
	evt := &Entry{
		ID:    h.nextID.Add(1),
		Topic: topic,
		Data:  data,
	}

	h.ringMu.Lock()
	h.ring[h.ringPos] = *evt
	h.ringPos = (h.ringPos + 1) % hubRingSize
	if h.ringLen < hubRingSize {
		h.ringLen++
	}
	h.ringMu.Unlock()

	h.mu.RLock()
	defer h.mu.RUnlock()
	for s := range h.subs {
		if s.Matches(topic) {
			select {
			case s.ch <- evt:
			default:
				// Drop if the subscriber is slow.
			}
		}
	}
	return nil
}

// Close drops all subscriptions. The hub itself holds no external resources.
func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[*Subscription]struct{})
	return nil
}

// Subscribe registers a consumer for the given topic glob patterns (empty
// means all topics). Call Unsubscribe when done.
func (h *Hub) Subscribe(topics []string) *Subscription {
	s := &Subscription{
		topics: topics,
		ch:     make(chan *Entry, 64),
	}
	h.mu.Lock()
	h.subs[s] = struct{}{}
	h.mu.Unlock()
	return s
}

// Unsubscribe removes a consumer from the hub.
func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	delete(h.subs, s)
	h.mu.Unlock()
}

// Since returns buffered events with ID > lastID, oldest first. Events that
// have already rotated out of the buffer are gone.
func (h *Hub) Since(lastID uint64) []*Entry {
	h.ringMu.RLock()
	defer h.ringMu.RUnlock()

	if h.ringLen == 0 {
		return nil
	}

	var result []*Entry

	// Walk the ring buffer from oldest to newest.
	start := h.ringPos - h.ringLen
	if start < 0 {
		start += hubRingSize
	}
	for i := range h.ringLen {
		idx := (start + i) % hubRingSize
		evt := &h.ring[idx]
		if evt.ID > lastID {
			result = append(result, evt)
		}
	}

	return result
}

// matchTopic matches a dot-separated topic against a pattern. Supports "*"
// as a single-segment wildcard and ">" as a multi-segment suffix wildcard
// (NATS-style), so SSE filters behave like NATS subjects.
func matchTopic(pattern, topic string) bool {
	if pattern == topic {
		return true
	}

	patParts := strings.Split(pattern, ".")
	topParts := strings.Split(topic, ".")

	for i, pp := range patParts {
		if pp == ">" {
			// ">" matches one or more remaining segments.
			return i < len(topParts)
		}
		if i >= len(topParts) {
			return false
		}
		if pp != "*" && pp != topParts[i] {
			return false
		}
	}

	return len(patParts) == len(topParts)
}
