// ABOUTME: Controller starts, monitors, and stops the full collective of agents, teams, and team services.
// ABOUTME: Owns the Router and polls its stop condition every StopPoll interval against the observed message activity.
package workspace

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
	"github.com/2389-research/chorus/snapshot"
	"github.com/2389-research/chorus/stopcond"
	"github.com/2389-research/chorus/store"
	"github.com/2389-research/chorus/team"
	"github.com/2389-research/chorus/teamservice"
	"github.com/2389-research/chorus/topology"
)

// DefaultStopPollInterval is how often Run re-checks the stop condition
// against the latest observed Snapshot while idle.
const DefaultStopPollInterval = 50 * time.Millisecond

// AgentEntry describes one agent to register with Start.
type AgentEntry struct {
	Name          core.Identifier
	Kind          core.AgentKind
	Behavior      agentruntime.Behavior
	InboxCapacity int
	Options       []agentruntime.Option
}

// ServiceEntry describes one team service to register with Start.
type ServiceEntry struct {
	Team        core.Identifier
	Tool        teamservice.Tool
	Parallelism int
}

// TeamEntry describes one team to register with Start.
type TeamEntry struct {
	Name    string
	Members []core.Identifier
	Policy  team.CollaborationPolicy
}

// Controller is the programmatic embedding surface: construct one,
// register agents/teams/services and a stop condition, then Start or Run
// it. A single unrecoverable agent crash isolates that agent (marked
// Stopped, agent_stopped emitted) rather than tearing down the workspace,
// unless FailFast is set.
type Controller struct {
	Router   *router.Router
	Registry *teamservice.Registry

	FailFast    bool
	GracePeriod time.Duration
	StopPoll    time.Duration

	index *store.Index

	runtimes map[core.Identifier]*agentruntime.Runtime
	teams    []*team.Team
	services []*teamservice.Service

	stopCond stopcond.Condition

	mu           sync.Mutex
	messageCount uint64
	lastActivity time.Time
	lastMessage  core.Message
	history      []core.Event

	unsubscribe func()
	ctx         context.Context
	cancel      context.CancelFunc
}

// New constructs an empty Controller.
func New() *Controller {
	return &Controller{
		Router:      router.New(),
		Registry:    teamservice.NewRegistry(),
		GracePeriod: teamservice.DefaultDrainGrace,
		StopPoll:    DefaultStopPollInterval,
		runtimes:    make(map[core.Identifier]*agentruntime.Runtime),
	}
}

// WithIndex wires an optional SQLite index that mirrors every routed
// message alongside the required ndjson snapshot file. The index is a
// queryable cache; the ndjson file stays authoritative.
func (c *Controller) WithIndex(idx *store.Index) *Controller {
	c.index = idx
	return c
}

// AddAgent registers an agent's runtime. Must be called before Start.
func (c *Controller) AddAgent(e AgentEntry) *agentruntime.Runtime {
	opts := append([]agentruntime.Option{agentruntime.WithTeamServiceLocator(c.Registry)}, e.Options...)
	rt := agentruntime.New(e.Name, e.Kind, e.Behavior, c.Router, e.InboxCapacity, opts...)
	c.runtimes[e.Name] = rt
	return rt
}

// AddTeam registers a team. Must be called before Start.
func (c *Controller) AddTeam(e TeamEntry) *team.Team {
	tm := team.New(e.Name, e.Members, e.Policy, c.Router)
	c.teams = append(c.teams, tm)
	return tm
}

// AddService registers a team service. Must be called before Start.
func (c *Controller) AddService(e ServiceEntry) *teamservice.Service {
	var opts []teamservice.Option
	if c.GracePeriod > 0 {
		opts = append(opts, teamservice.WithDrainGrace(c.GracePeriod))
	}
	svc := teamservice.New(e.Team, e.Tool, c.Router, e.Parallelism, opts...)
	c.services = append(c.services, svc)
	c.Registry.Add(e.Team, svc)
	return svc
}

// SetStopCondition installs the disjunctive (or however composed)
// condition Run polls for.
func (c *Controller) SetStopCondition(cond stopcond.Condition) {
	c.stopCond = cond
}

// AddMessageListener attaches a best-effort observer of every routed
// event, exactly like Router.Subscribe.
func (c *Controller) AddMessageListener(fn func(core.Event)) (unsubscribe func()) {
	return c.Router.Subscribe(router.ListenerFunc(fn))
}

// Start is non-blocking: it launches every agent, team, and service
// goroutine and delivers startMessages, then returns.
func (c *Controller) Start(ctx context.Context, startMessages []core.Message) error {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
	c.unsubscribe = c.Router.Subscribe(c.observe)

	for _, rt := range c.runtimes {
		go func(rt *agentruntime.Runtime) {
			defer c.maybeFailFast(rt.Name())
			rt.Run(c.ctx)
		}(rt)
	}
	for _, tm := range c.teams {
		go tm.Run(c.ctx)
	}
	for _, svc := range c.services {
		go svc.Run(c.ctx)
	}

	for _, msg := range startMessages {
		if _, err := c.Router.Send(core.Event{Type: core.EventMessage, Message: msg}); err != nil {
			return fmt.Errorf("deliver start message: %w", err)
		}
	}
	return nil
}

func (c *Controller) maybeFailFast(name core.Identifier) {
	if !c.FailFast {
		return
	}
	c.mu.Lock()
	done := c.ctx.Err() != nil
	c.mu.Unlock()
	if !done {
		c.Stop()
	}
}

func (c *Controller) observe(ev core.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = append(c.history, ev)
	if ev.Type == core.EventMessage {
		c.messageCount++
		c.lastActivity = time.Now()
		c.lastMessage = ev.Message
	}
	if c.index != nil {
		_ = c.index.ApplyEvent(ev)
	}
}

func (c *Controller) snapshotNow() stopcond.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return stopcond.Snapshot{
		MessageCount: c.messageCount,
		LastActivity: c.lastActivity,
		LastMessage:  c.lastMessage,
		Now:          time.Now(),
	}
}

// Run is Start followed by a blocking wait until the stop condition fires
// or ctx is cancelled, then Stop.
func (c *Controller) Run(ctx context.Context, startMessages []core.Message) error {
	if err := c.Start(ctx, startMessages); err != nil {
		return err
	}
	defer c.Stop()

	poll := c.StopPoll
	if poll <= 0 {
		poll = DefaultStopPollInterval
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if c.stopCond != nil && c.stopCond(c.snapshotNow()) {
				return nil
			}
		}
	}
}

// Stop signals shutdown: cancels the internal context (observed by every
// runtime/team/service as a context.Context), waits for each agent
// runtime to finish its current step up to its own grace period, and lets
// team services drain outstanding invocations up to GracePeriod before
// Cancelled kicks in.
func (c *Controller) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()

	var wg sync.WaitGroup
	for _, rt := range c.runtimes {
		wg.Add(1)
		go func(rt *agentruntime.Runtime) { defer wg.Done(); rt.Stop() }(rt)
	}
	for _, tm := range c.teams {
		wg.Add(1)
		go func(tm *team.Team) { defer wg.Done(); tm.Stop() }(tm)
	}
	for _, svc := range c.services {
		wg.Add(1)
		go func(svc *teamservice.Service) { defer wg.Done(); svc.Stop() }(svc)
	}
	wg.Wait()

	if c.unsubscribe != nil {
		c.unsubscribe()
	}
}

// Snapshot writes every observed event (ordered by routing tick) followed
// by one final state record per registered agent to w, in the ndjson
// format described in the external interfaces.
func (c *Controller) Snapshot(w io.Writer) error {
	c.mu.Lock()
	events := append([]core.Event(nil), c.history...)
	c.mu.Unlock()

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Message.Timestamp < events[j].Message.Timestamp
	})

	sw := snapshot.NewWriter(w)
	for _, ev := range events {
		if err := sw.WriteEvent(ev); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(c.runtimes))
	for name := range c.runtimes {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		rt := c.runtimes[core.Identifier(name)]
		if err := sw.WriteState(name, rt.CurrentState()); err != nil {
			return err
		}
	}
	return nil
}

// Topology returns a point-in-time snapshot of every registered agent,
// team, channel, and team service, for rendering with topology.Export or
// for the dashboard's structural view.
func (c *Controller) Topology() topology.Graph {
	g := topology.Graph{}

	names := make([]string, 0, len(c.runtimes))
	for name := range c.runtimes {
		names = append(names, string(name))
	}
	sort.Strings(names)
	for _, name := range names {
		g.Agents = append(g.Agents, core.Identifier(name))
	}

	for _, tm := range c.teams {
		node := topology.TeamNode{
			ID:      tm.ID(),
			Members: tm.Members(),
			Channel: tm.ChannelID(),
		}
		teamName := tm.ID().Name()
		for _, svc := range c.services {
			if serviceTeamName(svc.ID()) == teamName {
				node.Services = append(node.Services, svc.ID())
			}
		}
		g.Teams = append(g.Teams, node)
	}

	return g
}

// serviceTeamName extracts the owning team's name from a service
// identifier of the form "service:<team>/<tool>".
func serviceTeamName(id core.Identifier) string {
	name := id.Name()
	if i := strings.IndexByte(name, '/'); i >= 0 {
		return name[:i]
	}
	return name
}

// Load replays a previously written snapshot: every addressed event is
// re-delivered through the Router and every state record is installed
// directly into the matching registered runtime via SetState, bypassing
// InitState. Broadcast (lifecycle and diagnostic) events are skipped.
// Because Snapshot records every observed event, messages that were
// already handled before the snapshot are delivered again as well.
// Load must run before Start.
func (c *Controller) Load(r io.Reader) error {
	sr := snapshot.NewReader(r)
	recs, err := sr.All()
	if err != nil {
		return err
	}
	for _, rec := range recs {
		if rec.IsState {
			if rt, ok := c.runtimes[core.AgentID(rec.State.Agent)]; ok {
				rt.SetState(rec.State.State)
			}
			continue
		}
		if rec.Event.IsBroadcast() {
			continue
		}
		if _, err := c.Router.Send(rec.Event); err != nil {
			return fmt.Errorf("replay event: %w", err)
		}
	}
	return nil
}
