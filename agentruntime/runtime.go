// ABOUTME: Runtime drives one agent's goroutine: lifecycle state, respond/iterate scheduling, crash isolation.
// ABOUTME: State commit and message flush are tied together — a step that fails commits neither.
package agentruntime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

// DefaultIterateInterval is how often Iterate runs when the inbox is empty,
// unless a workspace config overrides it.
const DefaultIterateInterval = 100 * time.Millisecond

// DefaultGracePeriod bounds how long Stop waits for an in-progress step to
// return on its own before the runtime abandons it and transitions to
// Stopped regardless.
const DefaultGracePeriod = 2 * time.Second

// Runtime owns exactly one agent's goroutine: it pulls events off the
// agent's inbox, dispatches them to the Behavior, and commits the result.
type Runtime struct {
	name     core.Identifier
	kind     core.AgentKind
	behavior Behavior
	router   *router.Router
	inbox    *router.Inbox

	iterateInterval time.Duration
	gracePeriod     time.Duration
	locator         TeamServiceLocator

	state core.AgentLifecycleState
	done  chan struct{}
	stop  chan struct{}

	stateMu      sync.RWMutex
	currentState State
	restored     bool
}

// Option configures a Runtime at construction time.
type Option func(*Runtime)

// WithIterateInterval overrides DefaultIterateInterval.
func WithIterateInterval(d time.Duration) Option {
	return func(rt *Runtime) { rt.iterateInterval = d }
}

// WithGracePeriod overrides DefaultGracePeriod.
func WithGracePeriod(d time.Duration) Option {
	return func(rt *Runtime) { rt.gracePeriod = d }
}

// WithTeamServiceLocator wires a TeamServiceLocator into every Context this
// runtime hands its behavior.
func WithTeamServiceLocator(l TeamServiceLocator) Option {
	return func(rt *Runtime) { rt.locator = l }
}

// New constructs a Runtime for name, registering its inbox with r.
// inboxCapacity <= 0 uses router.DefaultCapacity.
func New(name core.Identifier, kind core.AgentKind, behavior Behavior, r *router.Router, inboxCapacity int, opts ...Option) *Runtime {
	rt := &Runtime{
		name:            name,
		kind:            kind,
		behavior:        behavior,
		router:          r,
		iterateInterval: DefaultIterateInterval,
		gracePeriod:     DefaultGracePeriod,
		state:           core.StateCreated,
		done:            make(chan struct{}),
		stop:            make(chan struct{}),
	}
	rt.inbox = r.Register(name, inboxCapacity)
	return rt
}

// State returns the runtime's current lifecycle state.
func (rt *Runtime) State() core.AgentLifecycleState { return rt.state }

// Name returns the identifier this runtime drives.
func (rt *Runtime) Name() core.Identifier { return rt.name }

// Run blocks, driving the agent until ctx is cancelled or Stop is called.
// It is meant to be launched with `go rt.Run(ctx)`.
func (rt *Runtime) Run(ctx context.Context) {
	rt.state = core.StateInitializing
	rt.router.Diagnose(core.Event{Type: core.EventAgentStarted, AgentName: rt.name})

	var state State
	if rt.restored {
		state = rt.CurrentState()
	} else {
		var err error
		state, err = rt.behavior.InitState(ctx)
		if err != nil {
			rt.reportCrash(err)
			rt.state = core.StateStopped
			rt.router.Diagnose(core.Event{Type: core.EventAgentStopped, AgentName: rt.name})
			close(rt.done)
			return
		}
	}
	rt.state = core.StateIdle
	rt.setCurrentState(state)

	defer func() {
		rt.state = core.StateStopped
		rt.router.Diagnose(core.Event{Type: core.EventAgentStopped, AgentName: rt.name})
		close(rt.done)
	}()

	ticker := time.NewTicker(rt.iterateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rt.stop:
			return
		default:
		}

		if ev, ok := rt.inbox.Pop(); ok {
			state = rt.step(ctx, state, func(ac *Context) StepOutcome {
				return rt.behavior.Respond(ctx, ac, state, ev.Message)
			})
			continue
		}

		select {
		case <-ctx.Done():
			return
		case <-rt.stop:
			return
		case <-rt.inbox.Notify():
			continue
		case <-ticker.C:
			if rt.kind != core.KindActive {
				continue
			}
			state = rt.step(ctx, state, func(ac *Context) StepOutcome {
				return rt.behavior.Iterate(ctx, ac, state)
			})
		}
	}
}

// step runs fn exactly once under crash recovery, then commits state and
// flushes buffered sends together — or, on failure, discards both,
// leaving state exactly as it was before the step. This is the "all or
// nothing" per-step guarantee: a crashed or failed step is invisible to
// the rest of the workspace.
func (rt *Runtime) step(ctx context.Context, state State, fn func(*Context) StepOutcome) State {
	rt.state = core.StateRunning
	ac := newContext(rt.name, rt.router, rt.locator, time.Now)

	outcome, crashErr := rt.runProtected(fn, ac)

	if crashErr != nil {
		rt.reportCrash(crashErr)
		rt.state = core.StateIdle
		return state
	}
	if outcome.Failed() {
		rt.reportCrash(outcome.Err)
		rt.state = core.StateIdle
		return state
	}

	for _, ev := range ac.take() {
		if _, err := rt.router.Send(ev); err != nil {
			if re, ok := err.(*core.RoutingError); ok {
				rt.router.Diagnose(core.Event{Type: core.EventDeadLetter, Message: ev.Message, AgentName: rt.name, Err: re})
			}
		}
	}

	rt.state = core.StateIdle
	rt.setCurrentState(outcome.State)
	return outcome.State
}

func (rt *Runtime) setCurrentState(s State) {
	rt.stateMu.Lock()
	rt.currentState = s
	rt.stateMu.Unlock()
}

// CurrentState returns the state as of the last committed step, safe to
// call from outside the runtime's own goroutine (e.g. for snapshotting).
func (rt *Runtime) CurrentState() State {
	rt.stateMu.RLock()
	defer rt.stateMu.RUnlock()
	return rt.currentState
}

// SetState installs s directly, bypassing InitState/Respond/Iterate. Meant
// to be called before Run, to restore state from a loaded snapshot; Run
// then skips InitState and starts from this state instead.
func (rt *Runtime) SetState(s State) {
	rt.setCurrentState(s)
	rt.restored = true
}

// runProtected calls fn, converting a panic into a crashErr rather than
// letting it unwind the agent's own goroutine and take the whole workspace
// down with it.
func (rt *Runtime) runProtected(fn func(*Context) StepOutcome, ac *Context) (outcome StepOutcome, crashErr error) {
	defer func() {
		if r := recover(); r != nil {
			crashErr = fmt.Errorf("agent %s step panicked: %v", rt.name, r)
		}
	}()
	outcome = fn(ac)
	return outcome, nil
}

func (rt *Runtime) reportCrash(err error) {
	re := core.NewRoutingError(core.ErrHandlerCrash, rt.name, err)
	rt.router.Diagnose(core.Event{Type: core.EventHandlerCrash, AgentName: rt.name, Err: re})
}

// Stop requests the runtime to exit after its current step, waiting up to
// its grace period before returning regardless (the goroutine itself may
// still be finishing an unresponsive step after Stop returns — Done
// reports true completion).
func (rt *Runtime) Stop() {
	rt.state = core.StateStopping
	close(rt.stop)
	select {
	case <-rt.done:
	case <-time.After(rt.gracePeriod):
	}
}

// Done returns a channel closed once the runtime's Run loop has fully
// exited.
func (rt *Runtime) Done() <-chan struct{} {
	return rt.done
}
