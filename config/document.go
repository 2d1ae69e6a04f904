// ABOUTME: Document is the declarative workspace definition parsed from a YAML (or JSON-compatible) document.
// ABOUTME: It names agents, teams, services, and stop conditions by type string, resolved later through a Registry.
package config

// Document is the top-level workspace document shape.
type Document struct {
	Title          string              `yaml:"title" json:"title"`
	Description    string              `yaml:"description" json:"description"`
	MainChannel    string              `yaml:"main_channel" json:"main_channel"`
	StartMessages  []MessageSpec       `yaml:"start_messages" json:"start_messages"`
	StopConditions []StopConditionSpec `yaml:"stop_conditions" json:"stop_conditions"`
	Agents         []AgentSpec         `yaml:"agents" json:"agents"`
	Teams          []TeamSpec          `yaml:"teams" json:"teams"`
}

// MessageSpec is a wire-shaped Message as it appears in a workspace
// document (start_messages). Source/Destination/Channel are bare names
// resolved against the Human sentinel and the core.* constructors by the
// Loader, not fully qualified Identifiers.
type MessageSpec struct {
	Source      string            `yaml:"source" json:"source"`
	Destination string            `yaml:"destination" json:"destination"`
	Channel     string            `yaml:"channel" json:"channel"`
	Content     string            `yaml:"content" json:"content"`
	Role        string            `yaml:"role" json:"role"`
	Metadata    map[string]string `yaml:"metadata" json:"metadata"`
}

// StopConditionSpec names a stop condition type plus its parameters.
// "any" and "all" nest child conditions, matching stopcond.Any/All.
type StopConditionSpec struct {
	Type       string              `yaml:"type" json:"type"`
	Parameters map[string]any      `yaml:"parameters" json:"parameters"`
	Conditions []StopConditionSpec `yaml:"conditions" json:"conditions"`
}

// AgentSpec names one agent: its type (resolved via Registry), its
// identity, and the behavior-specific fields an embedding program's
// factory may use however it likes (instruction, tools, model_name,
// reachable_agents, planner). iterate_interval_ms overrides the default
// 100ms scheduling cadence for active agents.
type AgentSpec struct {
	Type              string   `yaml:"type" json:"type"`
	Name              string   `yaml:"name" json:"name"`
	Instruction       string   `yaml:"instruction" json:"instruction"`
	Tools             []string `yaml:"tools" json:"tools"`
	ModelName         string   `yaml:"model_name" json:"model_name"`
	ReachableAgents   []string `yaml:"reachable_agents" json:"reachable_agents"`
	Planner           string   `yaml:"planner" json:"planner"`
	IterateIntervalMS int      `yaml:"iterate_interval_ms" json:"iterate_interval_ms"`
	InboxCapacity     int      `yaml:"inbox_capacity" json:"inbox_capacity"`
}

// CollaborationSpec selects and configures a team's CollaborationPolicy.
type CollaborationSpec struct {
	Type        string `yaml:"type" json:"type"`
	Coordinator string `yaml:"coordinator" json:"coordinator"`
}

// ServiceSpec names one team service: its type (resolved via Registry)
// and tool-specific configuration.
type ServiceSpec struct {
	Type        string `yaml:"type" json:"type"`
	Name        string `yaml:"name" json:"name"`
	Parallelism int    `yaml:"parallelism" json:"parallelism"`
}

// TeamSpec names one team: its members (by agent name), its collaboration
// policy, and the services it exposes.
type TeamSpec struct {
	Type          string             `yaml:"type" json:"type"`
	Name          string             `yaml:"name" json:"name"`
	Agents        []string           `yaml:"agents" json:"agents"`
	Collaboration CollaborationSpec  `yaml:"collaboration" json:"collaboration"`
	Services      []ServiceSpec      `yaml:"services" json:"services"`
}
