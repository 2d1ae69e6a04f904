// ABOUTME: AgentKind and AgentLifecycleState are the data-model vocabulary shared between agentruntime and callers.
package core

// AgentKind distinguishes agents driven by a periodic iterate step from
// agents driven only by inbound messages.
type AgentKind string

const (
	KindActive  AgentKind = "active"
	KindPassive AgentKind = "passive"
)

// AgentLifecycleState is the runtime lifecycle state machine from the
// AgentRuntime design: Created -> Initializing -> Idle -> Running -> Idle
// -> ... -> Stopping -> Stopped.
type AgentLifecycleState string

const (
	StateCreated      AgentLifecycleState = "created"
	StateInitializing AgentLifecycleState = "initializing"
	StateIdle         AgentLifecycleState = "idle"
	StateRunning      AgentLifecycleState = "running"
	StateStopping     AgentLifecycleState = "stopping"
	StateStopped      AgentLifecycleState = "stopped"
)

// AgentInfo is the read-only descriptor of a registered agent, used by
// Registry lookups and by the declarative loader.
type AgentInfo struct {
	Name  string
	Kind  AgentKind
	State AgentLifecycleState
}

// ID returns the agent's Identifier.
func (a AgentInfo) ID() Identifier {
	return AgentID(a.Name)
}
