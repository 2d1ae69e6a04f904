// ABOUTME: Router is the process-wide concurrent dispatcher: name-addressed delivery, channel fan-out, inbox management.
// ABOUTME: Guarantees per-pair FIFO, at-most-once in-process delivery, and fail-fast channel publication.
package router

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/2389-research/chorus/core"
)

// ListenerFunc observes a successfully enqueued event. Listener failures
// (panics) never affect delivery — Router recovers and drops them.
type ListenerFunc func(core.Event)

// Router is a single logical broker shared by every principal in a
// workspace. It holds no dedicated goroutine: Send enqueues directly into
// target inboxes from the caller's own goroutine, so many AgentRuntimes
// can call Send concurrently without funneling through one serialization
// point (the concurrency model explicitly forbids a global step lock).
type Router struct {
	mu       sync.RWMutex
	inboxes  map[core.Identifier]*Inbox
	channels map[string]*core.Channel

	listenersMu sync.RWMutex
	listeners   map[int]ListenerFunc
	nextListenerID int

	diagnostics *EventBroadcaster

	tick atomic.Uint64

	enqueueTimeout time.Duration
}

// New creates an empty Router.
func New() *Router {
	return &Router{
		inboxes:        make(map[core.Identifier]*Inbox),
		channels:       make(map[string]*core.Channel),
		listeners:      make(map[int]ListenerFunc),
		diagnostics:    NewEventBroadcaster(),
		enqueueTimeout: DefaultEnqueueTimeout,
	}
}

// SetEnqueueTimeout overrides the default 500ms backpressure timeout.
func (r *Router) SetEnqueueTimeout(d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.enqueueTimeout = d
}

// Register creates and registers a new inbox for id. Principals
// self-register on creation, per the component design.
func (r *Router) Register(id core.Identifier, capacity int) *Inbox {
	ib := NewInbox(capacity)
	r.mu.Lock()
	r.inboxes[id] = ib
	r.mu.Unlock()
	return ib
}

// Unregister removes id's inbox. After this call returns, no further
// message is delivered to id; anything still in flight at the moment of
// the call is dropped with a DeadLetter diagnostic event.
func (r *Router) Unregister(id core.Identifier) {
	r.mu.Lock()
	ib, ok := r.inboxes[id]
	delete(r.inboxes, id)
	r.mu.Unlock()
	if ok {
		ib.Close()
	}
}

// Lookup returns the inbox registered for id, if any.
func (r *Router) Lookup(id core.Identifier) (*Inbox, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ib, ok := r.inboxes[id]
	return ib, ok
}

// RegisterChannel registers a channel so it can receive publications.
func (r *Router) RegisterChannel(ch *core.Channel) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[ch.Name] = ch
}

// UnregisterChannel removes a channel.
func (r *Router) UnregisterChannel(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, name)
}

// Channel returns the registered channel by bare name, if any.
func (r *Router) Channel(name string) (*core.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// ChannelsFor returns the bare names of every registered channel that
// currently lists id as a member. Backs AgentContext.ListChannels.
func (r *Router) ChannelsFor(id core.Identifier) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var names []string
	for name, ch := range r.channels {
		if ch.Has(id) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Subscribe attaches a best-effort observer. Listener failures never
// affect delivery; the returned func detaches the listener.
func (r *Router) Subscribe(fn ListenerFunc) (unsubscribe func()) {
	r.listenersMu.Lock()
	id := r.nextListenerID
	r.nextListenerID++
	r.listeners[id] = fn
	r.listenersMu.Unlock()

	return func() {
		r.listenersMu.Lock()
		delete(r.listeners, id)
		r.listenersMu.Unlock()
	}
}

// Diagnostics returns a channel receiving every event passed to Diagnose
// (DeadLetter, HandlerCrash, and agent started/stopped lifecycle events),
// plus a function to detach it.
func (r *Router) Diagnostics() (<-chan core.Event, func()) {
	ch := r.diagnostics.Subscribe()
	return ch, func() { r.diagnostics.Unsubscribe(ch) }
}

// Diagnose publishes a diagnostic or lifecycle event (DeadLetter,
// HandlerCrash, agent started/stopped) to the diagnostic channel and to
// every listener. Exported so agentruntime can report HandlerCrash
// without routing it through the normal addressed-delivery path.
func (r *Router) Diagnose(ev core.Event) {
	r.diagnostics.Broadcast(ev)
	r.notifyListeners(ev)
}

// Send stamps ev with a monotonically increasing timestamp tick and
// enqueues it into every resolved target inbox. For a direct message this
// is exactly one inbox; for a channel publication it is every member
// except the source, delivered atomically with respect to unknown
// identifiers (fail fast before any enqueue happens) but independently
// with respect to per-member backpressure/closure.
func (r *Router) Send(ev core.Event) (core.Event, error) {
	if err := ev.Validate(); err != nil {
		return ev, err
	}

	ev.Message.Timestamp = r.tick.Add(1)
	if ev.Message.MessageID == "" {
		ev.Message.MessageID = core.NewMessageID()
	}

	if ev.Message.HasChannel() {
		return ev, r.publish(ev)
	}
	return ev, r.deliver(ev, ev.Message.Destination)
}

func (r *Router) deliver(ev core.Event, dest core.Identifier) error {
	r.mu.RLock()
	timeout := r.enqueueTimeout
	ib, ok := r.inboxes[dest]
	r.mu.RUnlock()

	if !ok {
		return core.NewRoutingError(core.ErrUnknownIdentifier, dest, nil)
	}

	delivered, full := ib.Enqueue(ev, timeout)
	if delivered {
		r.notifyListeners(ev)
		return nil
	}
	if full {
		return core.NewRoutingError(core.ErrInboxFull, dest, nil)
	}
	// Inbox was closed: the target unregistered concurrently.
	r.Diagnose(core.Event{Type: core.EventDeadLetter, Message: ev.Message, AgentName: dest})
	return core.NewRoutingError(core.ErrUnknownIdentifier, dest, nil)
}

func (r *Router) publish(ev core.Event) error {
	name := ev.Message.Channel.Name()

	r.mu.RLock()
	ch, ok := r.channels[name]
	timeout := r.enqueueTimeout
	if !ok {
		r.mu.RUnlock()
		return core.NewRoutingError(core.ErrUnknownIdentifier, ev.Message.Channel, nil)
	}
	recipients := ch.Recipients(ev.Message.Source)

	// Resolve every recipient's inbox before enqueuing any of them, so an
	// unknown member fails the whole publication fast rather than
	// delivering a partial fan-out.
	inboxes := make([]*Inbox, len(recipients))
	for i, rcpt := range recipients {
		ib, ok := r.inboxes[rcpt]
		if !ok {
			r.mu.RUnlock()
			return core.NewRoutingError(core.ErrUnknownIdentifier, rcpt, nil)
		}
		inboxes[i] = ib
	}
	r.mu.RUnlock()

	for i, ib := range inboxes {
		copyEv := ev
		copyEv.Message.Destination = ""
		delivered, full := ib.Enqueue(copyEv, timeout)
		switch {
		case delivered:
			r.notifyListeners(copyEv)
		case full:
			// A full member inbox does not abort the rest of the fan-out;
			// the miss is reported only as a DeadLetter diagnostic and Send
			// still returns nil.
			r.Diagnose(core.Event{Type: core.EventDeadLetter, Message: copyEv.Message, AgentName: recipients[i]})
		default:
			r.Diagnose(core.Event{Type: core.EventDeadLetter, Message: copyEv.Message, AgentName: recipients[i]})
		}
	}
	return nil
}

func (r *Router) notifyListeners(ev core.Event) {
	r.listenersMu.RLock()
	fns := make([]ListenerFunc, 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.listenersMu.RUnlock()

	for _, fn := range fns {
		go func(f ListenerFunc) {
			defer func() { _ = recover() }()
			f(ev)
		}(fn)
	}
}
