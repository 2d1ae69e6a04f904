// ABOUTME: Registry resolves AgentSpec/ServiceSpec "type" strings to concrete constructors, supplied by the embedding program.
// ABOUTME: No reflection-based subclass discovery — types are registered explicitly before Build is called.
package config

import (
	"fmt"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/teamservice"
)

// AgentFactory builds a Behavior and its Kind from an AgentSpec. The core
// is agnostic to the meaning of spec.Type — it's the embedding program's
// job to interpret it.
type AgentFactory func(spec AgentSpec) (agentruntime.Behavior, core.AgentKind, error)

// ToolFactory builds a Tool from a ServiceSpec.
type ToolFactory func(spec ServiceSpec) (teamservice.Tool, error)

// Registry holds the factories a workspace document's "type" strings
// resolve against.
type Registry struct {
	agents map[string]AgentFactory
	tools  map[string]ToolFactory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]AgentFactory),
		tools:  make(map[string]ToolFactory),
	}
}

// RegisterAgentType binds an AgentSpec.Type string to a factory.
func (r *Registry) RegisterAgentType(typeName string, f AgentFactory) {
	r.agents[typeName] = f
}

// RegisterToolType binds a ServiceSpec.Type string to a factory.
func (r *Registry) RegisterToolType(typeName string, f ToolFactory) {
	r.tools[typeName] = f
}

func (r *Registry) buildAgent(spec AgentSpec) (agentruntime.Behavior, core.AgentKind, error) {
	f, ok := r.agents[spec.Type]
	if !ok {
		return nil, "", fmt.Errorf("config: no agent factory registered for type %q", spec.Type)
	}
	return f(spec)
}

func (r *Registry) buildTool(spec ServiceSpec) (teamservice.Tool, error) {
	f, ok := r.tools[spec.Type]
	if !ok {
		return nil, fmt.Errorf("config: no tool factory registered for type %q", spec.Type)
	}
	return f(spec)
}
