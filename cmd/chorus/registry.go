// ABOUTME: buildRegistry wires the config.Registry's type strings to the concrete agent/tool
// ABOUTME: constructors this binary ships with: echo, an LLM-backed reasoner, and the toolbox tools.
package main

import (
	"strings"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/agents/echo"
	"github.com/2389-research/chorus/agents/reasoner"
	"github.com/2389-research/chorus/agents/reasoner/llm"
	"github.com/2389-research/chorus/config"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/services/toolbox"
	"github.com/2389-research/chorus/teamservice"
)

// builtinToolDefinitions maps a bare tool name to the llm.ToolDefinition a
// reasoner's tool list presents to the model. A spec.Tools entry that
// doesn't match one of these falls back to a generic single-string-field
// schema, so a workspace document can still reference a tool type this
// binary doesn't know the precise shape of.
func builtinToolDefinitions() map[string]llm.ToolDefinition {
	return map[string]llm.ToolDefinition{
		"echo":            toolbox.EchoDefinition(),
		"wordcount":       toolbox.WordCountDefinition(),
		"render_markdown": toolbox.RenderMarkdownDefinition(),
	}
}

func genericToolDefinition(name string) llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        name,
		Description: "Invoke the " + name + " tool.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"input": map[string]any{"type": "string"}},
		},
	}
}

// buildRegistry registers every agent and tool type this binary supports.
// client may be nil when no LLM API key was found; "reasoner" agents still
// build, and each of their model calls then panics on the nil client and
// is reported as a handler crash.
func buildRegistry(client *llm.Client) *config.Registry {
	reg := config.NewRegistry()

	reg.RegisterAgentType("echo", echoFactory)
	reg.RegisterAgentType("reasoner", reasonerFactory(client))

	reg.RegisterToolType("echo", func(spec config.ServiceSpec) (teamservice.Tool, error) {
		return toolbox.Echo{}, nil
	})
	reg.RegisterToolType("wordcount", func(spec config.ServiceSpec) (teamservice.Tool, error) {
		return toolbox.WordCount{}, nil
	})
	reg.RegisterToolType("render_markdown", func(spec config.ServiceSpec) (teamservice.Tool, error) {
		return toolbox.NewRenderMarkdown(), nil
	})

	return reg
}

func echoFactory(spec config.AgentSpec) (agentruntime.Behavior, core.AgentKind, error) {
	return echo.New(spec.Instruction), core.KindPassive, nil
}

// reasonerFactory closes over the shared llm.Client and builds one
// reasoner.Behavior per AgentSpec. spec.Tools entries are expected as
// "<team>/<tool>" strings, matching the Name() a core.ServiceID produces,
// so each entry names the team whose service it addresses.
func reasonerFactory(client *llm.Client) config.AgentFactory {
	defs := builtinToolDefinitions()
	return func(spec config.AgentSpec) (agentruntime.Behavior, core.AgentKind, error) {
		b := &reasoner.Behavior{
			Client:      client,
			Model:       spec.ModelName,
			Instruction: spec.Instruction,
			MaxTokens:   4096,
		}
		for _, ref := range spec.Tools {
			team, tool, ok := strings.Cut(ref, "/")
			if !ok {
				tool = ref
			}
			def, known := defs[tool]
			if !known {
				def = genericToolDefinition(tool)
			}
			svc := core.ServiceID(team, tool)
			b.ToolBindings = append(b.ToolBindings, reasoner.ToolBinding{Definition: def, Service: svc})
		}
		return b, core.KindPassive, nil
	}
}
