// ABOUTME: EventBroadcaster fans a core.Event out to any number of subscribers over buffered channels.
// ABOUTME: Broadcast is non-blocking: a slow or abandoned subscriber drops events rather than stalling delivery.
package router

import (
	"sync"

	"github.com/2389-research/chorus/core"
)

// broadcastBuffer is the per-subscriber channel capacity. Sized generously
// so that a momentarily slow UI/logging subscriber doesn't drop routine
// traffic, matching the teacher actor's subscriber buffer.
const broadcastBuffer = 4096

// EventBroadcaster is the non-authoritative observer path behind the
// Router's diagnostic channel (Router.Diagnostics); Router.Subscribe
// listeners are plain callbacks and do not go through it. It never blocks the publisher and never
// affects delivery to authoritative inboxes.
type EventBroadcaster struct {
	mu          sync.RWMutex
	subscribers []chan core.Event
}

// NewEventBroadcaster creates a broadcaster with no initial subscribers.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{}
}

// Subscribe creates a new buffered channel that receives every broadcast
// event from this point forward.
func (b *EventBroadcaster) Subscribe() chan core.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan core.Event, broadcastBuffer)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Unsubscribe removes and closes a channel previously returned by Subscribe.
// Safe to call at most once per channel.
func (b *EventBroadcaster) Unsubscribe(ch chan core.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, sub := range b.subscribers {
		if sub == ch {
			b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
			close(ch)
			return
		}
	}
}

// Broadcast sends ev to every current subscriber. Non-blocking: a
// subscriber whose buffer is full simply misses this event.
func (b *EventBroadcaster) Broadcast(ev core.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
