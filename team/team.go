// ABOUTME: Team intercepts traffic addressed to a team identifier and hands it to a CollaborationPolicy.
// ABOUTME: Runs as its own independent execution unit, consuming the team identifier's own inbox like a service.
package team

import (
	"context"
	"sync"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

// Team groups an ordered, unique member list under a CollaborationPolicy.
// Every member name must resolve to a registered agent and a policy's
// declared coordinator, if any, must be a member — both invariants are
// the caller's responsibility to uphold at construction (config.Build
// validates them when building a workspace from a document).
type Team struct {
	name    string
	members []core.Identifier
	policy  CollaborationPolicy
	router  *router.Router
	inbox   *router.Inbox

	channel *core.Channel

	mu      sync.Mutex
	pending map[string]core.Identifier

	done chan struct{}
	stop chan struct{}
}

// New constructs a Team and registers both its own inbox (at the team
// identifier) and an internal broadcast channel (named after the team,
// for Decentralized/RoundRobin policies) with r.
func New(name string, members []core.Identifier, policy CollaborationPolicy, r *router.Router) *Team {
	t := &Team{
		name:    name,
		members: append([]core.Identifier(nil), members...),
		policy:  policy,
		router:  r,
		pending: make(map[string]core.Identifier),
		done:    make(chan struct{}),
		stop:    make(chan struct{}),
	}
	t.inbox = r.Register(t.ID(), 0)
	t.channel = core.NewChannel(name, members...)
	r.RegisterChannel(t.channel)
	return t
}

// ID returns the team's fully qualified identifier, team:<name>.
func (t *Team) ID() core.Identifier { return core.TeamID(t.name) }

// ChannelID returns the identifier of the team's internal broadcast channel.
func (t *Team) ChannelID() core.Identifier { return core.ChannelID(t.name) }

// Members returns the team's ordered member list.
func (t *Team) Members() []core.Identifier {
	return append([]core.Identifier(nil), t.members...)
}

// IsMember reports whether id is one of the team's members.
func (t *Team) IsMember(id core.Identifier) bool {
	for _, m := range t.members {
		if m == id {
			return true
		}
	}
	return false
}

// RecordPending remembers that messageID's reply route leads back to
// sender, so a later RouteOutbound call (e.g. Centralized's coordinator
// reply) can look it up by ReplyTo. Entries are not pruned on a timer —
// teams are expected to run for a bounded session lifetime.
func (t *Team) RecordPending(messageID string, sender core.Identifier) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending[messageID] = sender
}

// ResolvePending looks up a previously recorded original sender by the
// message id it was recorded under.
func (t *Team) ResolvePending(messageID string) (core.Identifier, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	sender, ok := t.pending[messageID]
	return sender, ok
}

// Run drives the team's interception loop until ctx is cancelled or Stop
// is called. Launch with `go t.Run(ctx)`.
func (t *Team) Run(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stop:
			return
		default:
		}

		ev, ok := t.inbox.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-t.stop:
				return
			case <-t.inbox.Notify():
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}
		if ev.Type != core.EventMessage {
			continue
		}
		t.dispatch(ev.Message)
	}
}

func (t *Team) dispatch(msg core.Message) {
	var out []core.Message
	if t.IsMember(msg.Source) {
		out = t.policy.RouteOutbound(t, msg)
	} else {
		out = t.policy.RouteInbound(t, msg)
	}
	for _, m := range out {
		if _, err := t.router.Send(core.Event{Type: core.EventMessage, Message: m}); err != nil {
			if re, ok := err.(*core.RoutingError); ok {
				t.router.Diagnose(core.Event{Type: core.EventDeadLetter, Message: m, AgentName: t.ID(), Err: re})
			}
		}
	}
}

// Stop requests the team to exit after its current dispatch.
func (t *Team) Stop() {
	close(t.stop)
	<-t.done
}

// Done reports when Run has fully exited.
func (t *Team) Done() <-chan struct{} { return t.done }
