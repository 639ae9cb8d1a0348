// Package broadcast provides an in-process publish/subscribe hub for pushing
// live game status to any number of stream subscribers.
package broadcast

import (
	"sync"
	"time"
)

// DefaultQueueCapacity is the per-subscription buffer size used by New.
const DefaultQueueCapacity = 32

// Event is a single status update published on a named channel.
// Events are fire-and-forget: delivery is at-most-once per subscriber
// and there is no history or replay.
type Event struct {
	Channel   string         `json:"channel"`
	Stage     string         `json:"stage"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"data,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Subscription is a bounded delivery queue owned by one stream connection.
// Receive events from C. The channel is closed when the subscription is
// removed, either by Unsubscribe or because the subscriber fell behind.
type Subscription struct {
	C chan Event
}

// Broadcaster fans out events to all registered subscriptions.
// Publishers never block on subscribers: a subscription whose queue is full
// is dropped from the registered set instead of delaying everyone else.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[*Subscription]struct{}
	capacity int
}

// New creates a Broadcaster whose subscriptions buffer up to capacity events.
// A capacity of 0 or less falls back to DefaultQueueCapacity.
func New(capacity int) *Broadcaster {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Broadcaster{
		subs:     make(map[*Subscription]struct{}),
		capacity: capacity,
	}
}

// Subscribe registers a new subscription and returns it. It always succeeds.
func (b *Broadcaster) Subscribe() *Subscription {
	sub := &Subscription{C: make(chan Event, b.capacity)}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	return sub
}

// Unsubscribe removes a subscription and closes its channel.
// Unsubscribing a subscription that was already removed is a no-op.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.subs[sub]; !ok {
		return
	}
	delete(b.subs, sub)
	close(sub.C)
}

// Publish stamps the event and delivers it to every registered subscription
// without blocking. Subscriptions that cannot accept the event are removed
// and closed. Publish is safe to call from any goroutine, including the
// background worker threads of the game services.
func (b *Broadcaster) Publish(ev Event) {
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	// Enqueues are non-blocking, so holding the lock across the loop is
	// cheap and rules out a send racing with Unsubscribe's close.
	for sub := range b.subs {
		select {
		case sub.C <- ev:
		default:
			delete(b.subs, sub)
			close(sub.C)
		}
	}
}

// SubscriberCount returns the number of currently registered subscriptions.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
