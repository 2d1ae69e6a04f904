// ABOUTME: Context is the facade a Behavior uses to send messages, inspect its inbox, and list channels.
// ABOUTME: Sends are buffered during a step and flushed only after the step returns successfully.
package agentruntime

import (
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

// TeamServiceLocator resolves a team's async tool service by name, letting
// a Behavior invoke team services without the runtime depending on the
// teamservice package directly.
type TeamServiceLocator interface {
	TeamServices(team core.Identifier) []core.Identifier
}

// Context is handed to every Behavior call. It is not safe for use outside
// the step that received it: Send buffers into a per-step slice that the
// Runtime flushes (or discards, on failure) once the step function
// returns, so nothing here survives past that boundary.
type Context struct {
	self   core.Identifier
	router *router.Router
	locator TeamServiceLocator
	now    func() time.Time

	pending []core.Event
}

func newContext(self core.Identifier, r *router.Router, locator TeamServiceLocator, now func() time.Time) *Context {
	if now == nil {
		now = time.Now
	}
	return &Context{self: self, router: r, locator: locator, now: now}
}

// Self returns this agent's own identifier.
func (c *Context) Self() core.Identifier { return c.self }

// Now returns the current time, as seen by this step.
func (c *Context) Now() time.Time { return c.now() }

// Send buffers an outbound message for delivery once the in-progress step
// completes without error. Only the cheap, registry-independent envelope
// shape is checked synchronously (exactly one of destination/channel);
// routing failures that depend on the rest of the workspace (unknown
// identifier, inbox full) can only be discovered at flush time, after this
// step's handler has already returned, so they cannot be returned here —
// they surface as EventDeadLetter diagnostics instead.
func (c *Context) Send(msg core.Message) error {
	if msg.Source.IsZero() {
		msg.Source = c.self
	}
	ev := core.Event{Type: core.EventMessage, Message: msg}
	if err := ev.Validate(); err != nil {
		return err
	}
	c.pending = append(c.pending, ev)
	return nil
}

// Invoke buffers a tool invocation request addressed to a team service,
// following the same buffer-then-flush discipline as Send. service is
// typically one of the identifiers returned by TeamServices.
func (c *Context) Invoke(service core.Identifier, inv core.ToolInvocation) error {
	msg := core.Message{Source: c.self, Destination: service, Role: core.RoleAssistant, Actions: []core.ToolInvocation{inv}}
	ev := core.Event{Type: core.EventTeamServiceRequest, Message: msg}
	if err := ev.Validate(); err != nil {
		return err
	}
	c.pending = append(c.pending, ev)
	return nil
}

// ListInbox returns a non-destructive snapshot of this agent's currently
// queued, not-yet-processed events.
func (c *Context) ListInbox() []core.Event {
	ib, ok := c.router.Lookup(c.self)
	if !ok {
		return nil
	}
	return ib.Peek()
}

// ListChannels returns the bare names of every channel this agent
// currently belongs to.
func (c *Context) ListChannels() []string {
	return c.router.ChannelsFor(c.self)
}

// TeamServices returns the service identifiers of every tool a team
// exposes, or nil if no locator was configured.
func (c *Context) TeamServices(team core.Identifier) []core.Identifier {
	if c.locator == nil {
		return nil
	}
	return c.locator.TeamServices(team)
}

// take drains and returns the buffered sends, resetting the buffer. Called
// by the Runtime after a step returns, whether to flush (on success) or
// discard (on failure) them.
func (c *Context) take() []core.Event {
	out := c.pending
	c.pending = nil
	return out
}
