// Package broadcast implements the real-time update fan-out that keeps
// connected dashboards synchronized with configuration, question and result
// mutations. It is a freshness layer, never the system of record: delivery
// is best-effort and at-most-once per connected subscriber, with no replay.
package broadcast

import (
	"fmt"
	"sync"
)

// EventType names the kinds of update events carried by the hub.
type EventType string

const (
	EventExamUpdate     EventType = "examUpdate"
	EventQuestionUpdate EventType = "questionUpdate"
	EventResultUpdate   EventType = "resultUpdate"
)

// Event is one published mutation, carrying the full mutated entity (or a
// deletion notice) as its data.
type Event struct {
	Type EventType   `json:"type"`
	Data interface{} `json:"data"`
}

// Channel partitions subscribers. Events are delivered only to subscribers
// of the channel they were published on.
type Channel string

// AdminChannel carries every mutation, for admin dashboards.
func AdminChannel() Channel { return "admin" }

// StudentChannel carries one student's own result updates.
func StudentChannel(studentID int) Channel {
	return Channel(fmt.Sprintf("student:%d", studentID))
}

// BranchChannel carries mutations scoped to one branch, for admins
// filtering their dashboard by branch.
func BranchChannel(branch string) Channel {
	return Channel("branch:" + branch)
}

// subscriptionBuffer is the per-subscriber queue depth. A subscriber that
// falls this far behind starts losing events; it must re-fetch current
// state through the ordinary read APIs, same as after a reconnect.
const subscriptionBuffer = 32

// Subscription is one subscriber's handle on the hub. Events arrive on C
// until Close is called.
type Subscription struct {
	hub      *Hub
	channels []Channel
	c        chan Event
	once     sync.Once
}

// C returns the receive side of the subscription.
func (s *Subscription) C() <-chan Event { return s.c }

// Close removes the subscription from every channel it was attached to and
// closes the event stream. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.unsubscribe(s)
		close(s.c)
	})
}

// Hub is an in-process publish/subscribe registry. It is safe for
// concurrent use by handlers and services.
type Hub struct {
	mu   sync.RWMutex
	subs map[Channel]map[*Subscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[Channel]map[*Subscription]struct{})}
}

// Subscribe attaches a new subscriber to the given channels and returns its
// handle. The caller must Close the handle when done.
func (h *Hub) Subscribe(channels ...Channel) *Subscription {
	sub := &Subscription{
		hub:      h,
		channels: channels,
		c:        make(chan Event, subscriptionBuffer),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		if h.subs[ch] == nil {
			h.subs[ch] = make(map[*Subscription]struct{})
		}
		h.subs[ch][sub] = struct{}{}
	}
	return sub
}

// Watch adds an extra channel to an existing subscription.
func (h *Hub) Watch(sub *Subscription, ch Channel) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[ch] == nil {
		h.subs[ch] = make(map[*Subscription]struct{})
	}
	h.subs[ch][sub] = struct{}{}
	sub.channels = append(sub.channels, ch)
}

// Publish delivers ev to every current subscriber of the given channels.
// Delivery to each subscriber is isolated: a full (slow or abandoned)
// subscriber is skipped and never blocks delivery to the others, and the
// publishing mutation never observes a delivery failure.
func (h *Hub) Publish(ev Event, channels ...Channel) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	seen := make(map[*Subscription]struct{})
	for _, ch := range channels {
		for sub := range h.subs[ch] {
			if _, dup := seen[sub]; dup {
				continue // subscribed to more than one target channel
			}
			seen[sub] = struct{}{}
			select {
			case sub.c <- ev:
			default:
			}
		}
	}
}

// SubscriberCount reports how many subscriptions a channel currently has.
func (h *Hub) SubscriberCount(ch Channel) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[ch])
}

func (h *Hub) unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range sub.channels {
		delete(h.subs[ch], sub)
		if len(h.subs[ch]) == 0 {
			delete(h.subs, ch)
		}
	}
}
