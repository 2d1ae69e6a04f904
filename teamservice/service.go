// ABOUTME: Service is one team's named async tool executor, running as its own independent execution unit.
// ABOUTME: Bounds concurrent invocations to a configurable parallelism, honors per-request deadlines, rejects duplicate invocation ids.
package teamservice

import (
	"context"
	"sync"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

// DefaultParallelism is the number of invocations a Service may run
// concurrently absent an explicit override.
const DefaultParallelism = 4

// DefaultDrainGrace bounds how long Stop waits for outstanding invocations
// to finish before cancelling them with error.kind=Cancelled.
const DefaultDrainGrace = 5 * time.Second

// Service drains team_service_request events addressed to
// service:<team>/<tool> and replies with team_service_response events
// carrying one ToolObservation per request. It tracks outstanding
// invocation ids so a resubmitted id is rejected with DuplicateInvocation
// rather than executed twice.
type Service struct {
	id     core.Identifier
	tool   Tool
	router *router.Router
	inbox  *router.Inbox

	sem chan struct{}

	outstandingMu sync.Mutex
	outstanding   map[string]struct{}

	drainGrace time.Duration
	done       chan struct{}
	stop       chan struct{}
}

// New registers a Service for (team, tool) with the router and returns it
// unstarted; call Run to drive it.
func New(team core.Identifier, tool Tool, r *router.Router, parallelism int, opts ...Option) *Service {
	if parallelism <= 0 {
		parallelism = DefaultParallelism
	}
	id := core.ServiceID(team.Name(), tool.Name())
	s := &Service{
		id:          id,
		tool:        tool,
		router:      r,
		sem:         make(chan struct{}, parallelism),
		outstanding: make(map[string]struct{}),
		drainGrace:  DefaultDrainGrace,
		done:        make(chan struct{}),
		stop:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.inbox = r.Register(id, 0)
	return s
}

// Option configures a Service at construction time.
type Option func(*Service)

// WithDrainGrace overrides DefaultDrainGrace.
func WithDrainGrace(d time.Duration) Option {
	return func(s *Service) { s.drainGrace = d }
}

// ID returns the service's fully qualified identifier, service:<team>/<tool>.
func (s *Service) ID() core.Identifier { return s.id }

// Run drives the service until ctx is cancelled or Stop is called. Launch
// with `go s.Run(ctx)`.
func (s *Service) Run(ctx context.Context) {
	defer close(s.done)

	// Invocations run under their own context, so shutdown lets them drain
	// for up to drainGrace before they are cancelled.
	invCtx, cancelInv := context.WithCancel(context.WithoutCancel(ctx))
	var wg sync.WaitGroup
	defer func() {
		waitCh := make(chan struct{})
		go func() { wg.Wait(); close(waitCh) }()
		select {
		case <-waitCh:
		case <-time.After(s.drainGrace):
			cancelInv()
			<-waitCh
		}
		cancelInv()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		default:
		}

		ev, ok := s.inbox.Pop()
		if !ok {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-s.inbox.Notify():
			case <-time.After(50 * time.Millisecond):
			}
			continue
		}
		if ev.Type != core.EventTeamServiceRequest {
			continue
		}
		for _, inv := range ev.Message.Actions {
			wg.Add(1)
			go func(requester core.Identifier, inv core.ToolInvocation) {
				defer wg.Done()
				s.handle(invCtx, requester, inv)
			}(ev.Message.Source, inv)
		}
	}
}

func (s *Service) handle(ctx context.Context, requester core.Identifier, inv core.ToolInvocation) {
	if s.claim(inv.InvocationID) {
		s.reply(requester, inv.InvocationID, core.ToolObservation{
			InvocationID: inv.InvocationID,
			OK:           false,
			Error:        core.ObservationError(core.ErrDuplicateInvocation, nil),
		})
		return
	}
	defer s.release(inv.InvocationID)

	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		s.reply(requester, inv.InvocationID, core.ToolObservation{
			InvocationID: inv.InvocationID,
			OK:           false,
			Error:        core.ObservationError(core.ErrCancelled, ctx.Err()),
		})
		return
	}

	callCtx := ctx
	var cancel context.CancelFunc
	if inv.Deadline != nil {
		callCtx, cancel = context.WithDeadline(ctx, *inv.Deadline)
		defer cancel()
	}

	resultCh := make(chan any, 1)
	errCh := make(chan error, 1)
	go func() {
		result, err := s.tool.Invoke(callCtx, inv.Arguments)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- result
	}()

	select {
	case result := <-resultCh:
		s.reply(requester, inv.InvocationID, core.ToolObservation{
			InvocationID: inv.InvocationID, OK: true, Result: result,
		})
	case err := <-errCh:
		s.reply(requester, inv.InvocationID, core.ToolObservation{
			InvocationID: inv.InvocationID, OK: false,
			Error: core.ObservationError(core.ErrHandlerCrash, err),
		})
	case <-callCtx.Done():
		kind := core.ErrTimeout
		if ctx.Err() != nil {
			kind = core.ErrCancelled
		}
		s.reply(requester, inv.InvocationID, core.ToolObservation{
			InvocationID: inv.InvocationID, OK: false,
			Error: core.ObservationError(kind, callCtx.Err()),
		})
	}
}

func (s *Service) claim(invocationID string) (duplicate bool) {
	s.outstandingMu.Lock()
	defer s.outstandingMu.Unlock()
	if _, ok := s.outstanding[invocationID]; ok {
		return true
	}
	s.outstanding[invocationID] = struct{}{}
	return false
}

func (s *Service) release(invocationID string) {
	s.outstandingMu.Lock()
	delete(s.outstanding, invocationID)
	s.outstandingMu.Unlock()
}

func (s *Service) reply(requester core.Identifier, invocationID string, obs core.ToolObservation) {
	_, err := s.router.Send(core.Event{
		Type: core.EventTeamServiceResponse,
		Message: core.Message{
			Source:       s.id,
			Destination:  requester,
			Role:         core.RoleTool,
			Observations: []core.ToolObservation{obs},
			ReplyTo:      invocationID,
		},
	})
	if err != nil {
		if re, ok := err.(*core.RoutingError); ok {
			s.router.Diagnose(core.Event{Type: core.EventDeadLetter, AgentName: requester, Err: re})
		}
	}
}

// Stop requests the service to exit after draining outstanding
// invocations up to its grace period.
func (s *Service) Stop() {
	close(s.stop)
	<-s.done
}

// Done reports when Run has fully exited.
func (s *Service) Done() <-chan struct{} { return s.done }
