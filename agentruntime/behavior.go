// ABOUTME: Behavior is the capability contract every agent type implements: init, respond, iterate.
// ABOUTME: StepOutcome carries the agent's updated state plus any fatal step error back to the runtime.
package agentruntime

import (
	"context"

	"github.com/2389-research/chorus/core"
)

// State is opaque, behavior-owned data carried between steps. The runtime
// never inspects it; it only stores whatever InitState/Respond/Iterate
// return and hands the same value back on the next call.
type State = any

// Behavior is the capability-based contract a concrete agent type
// implements. An agent is "active" if Iterate does real work on a timer,
// "passive" if it only reacts to Respond; PassiveOnly and ActiveOnly embed
// no-op defaults so a concrete type need only implement the method that
// matters to it.
type Behavior interface {
	// InitState runs once before the first step and produces the agent's
	// starting state.
	InitState(ctx context.Context) (State, error)

	// Respond runs once per inbound message addressed to this agent (or
	// delivered to a channel it belongs to). The returned StepOutcome's
	// State becomes the state passed into the next step.
	Respond(ctx context.Context, ac *Context, state State, msg core.Message) StepOutcome

	// Iterate runs on the runtime's configured interval when the inbox is
	// empty. A purely passive agent's Iterate is a no-op that returns the
	// state unchanged (see PassiveOnly).
	Iterate(ctx context.Context, ac *Context, state State) StepOutcome
}

// StepOutcome is the result of a single Respond or Iterate call. Exactly
// one of the constructors below should be used to build one.
type StepOutcome struct {
	State State
	Err   error
}

// Updated reports the step completed normally with a (possibly changed)
// state.
func Updated(s State) StepOutcome {
	return StepOutcome{State: s}
}

// NoChange reports the step completed normally without touching state.
// Equivalent to Updated(state) but reads better at call sites that only
// send messages or do nothing.
func NoChange(state State) StepOutcome {
	return StepOutcome{State: state}
}

// Failed reports the step panicked or returned a fatal error. The runtime
// treats this exactly like a recovered panic: the state is rolled back to
// its pre-step value and any buffered sends from the step are discarded.
func Failed(state State, err error) StepOutcome {
	return StepOutcome{State: state, Err: err}
}

// Failed reports whether this outcome represents a failed step.
func (o StepOutcome) Failed() bool { return o.Err != nil }

// PassiveOnly embeds into a Behavior whose Iterate is a no-op, for agents
// driven purely by inbound messages (e.g. the echo demo agent).
type PassiveOnly struct{}

func (PassiveOnly) Iterate(ctx context.Context, ac *Context, state State) StepOutcome {
	return NoChange(state)
}

// ActiveOnly embeds into a Behavior whose Respond is a no-op, for agents
// that act only on their own schedule and ignore inbound messages (rare,
// but symmetric with PassiveOnly).
type ActiveOnly struct{}

func (ActiveOnly) Respond(ctx context.Context, ac *Context, state State, msg core.Message) StepOutcome {
	return NoChange(state)
}
