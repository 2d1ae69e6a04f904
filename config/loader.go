// ABOUTME: Loader decodes a workspace Document and builds a populated workspace.Controller from it plus a Registry.
// ABOUTME: Validates the cross-references spec.md's Team invariant requires while building; agents are already registered with the Router by then.
package config

import (
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/stopcond"
	"github.com/2389-research/chorus/team"
	"github.com/2389-research/chorus/workspace"
)

// DefaultIterateIntervalMS is the scheduling cadence an AgentSpec gets
// when it omits iterate_interval_ms.
const DefaultIterateIntervalMS = 100

// Decode parses a YAML workspace document. The format is also a valid
// JSON-compatible superset, so a well-formed JSON document decodes too.
func Decode(r io.Reader) (Document, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("config: decode document: %w", err)
	}
	return doc, nil
}

// identifier resolves a bare document name to a fully qualified
// Identifier: "human" maps to the sentinel, everything else to a plain
// agent name.
func identifier(name string) core.Identifier {
	if name == string(core.Human) {
		return core.Human
	}
	return core.AgentID(name)
}

func messageFromSpec(m MessageSpec) core.Message {
	msg := core.Message{
		Content:  m.Content,
		Role:     core.Role(m.Role),
		Metadata: m.Metadata,
	}
	if m.Source != "" {
		msg.Source = identifier(m.Source)
	}
	if m.Channel != "" {
		msg.Channel = core.ChannelID(m.Channel)
	} else if m.Destination != "" {
		msg.Destination = identifier(m.Destination)
	}
	return msg
}

// Build validates doc against reg and constructs a populated
// workspace.Controller plus the resolved start messages. The controller's
// agents, teams, and services are registered but not yet started — call
// Controller.Start or Controller.Run next.
func Build(doc Document, reg *Registry) (*workspace.Controller, []core.Message, error) {
	known := make(map[string]bool, len(doc.Agents))
	for _, a := range doc.Agents {
		if known[a.Name] {
			return nil, nil, fmt.Errorf("config: duplicate agent name %q", a.Name)
		}
		known[a.Name] = true
	}

	c := workspace.New()

	for _, a := range doc.Agents {
		behavior, kind, err := reg.buildAgent(a)
		if err != nil {
			return nil, nil, err
		}
		interval := a.IterateIntervalMS
		if interval <= 0 {
			interval = DefaultIterateIntervalMS
		}
		c.AddAgent(workspace.AgentEntry{
			Name:          core.AgentID(a.Name),
			Kind:          kind,
			Behavior:      behavior,
			InboxCapacity: a.InboxCapacity,
			Options:       []agentruntime.Option{agentruntime.WithIterateInterval(time.Duration(interval) * time.Millisecond)},
		})
	}

	for _, ts := range doc.Teams {
		members := make([]core.Identifier, 0, len(ts.Agents))
		for _, name := range ts.Agents {
			if !known[name] {
				return nil, nil, fmt.Errorf("config: team %q references unregistered agent %q", ts.Name, name)
			}
			members = append(members, core.AgentID(name))
		}

		policy, err := buildPolicy(ts, members)
		if err != nil {
			return nil, nil, err
		}

		c.AddTeam(workspace.TeamEntry{Name: ts.Name, Members: members, Policy: policy})

		seenServiceNames := make(map[string]bool, len(ts.Services))
		for _, svcSpec := range ts.Services {
			if seenServiceNames[svcSpec.Name] {
				return nil, nil, fmt.Errorf("config: team %q declares duplicate service name %q", ts.Name, svcSpec.Name)
			}
			seenServiceNames[svcSpec.Name] = true

			tool, err := reg.buildTool(svcSpec)
			if err != nil {
				return nil, nil, err
			}
			c.AddService(workspace.ServiceEntry{
				Team:        core.TeamID(ts.Name),
				Tool:        tool,
				Parallelism: svcSpec.Parallelism,
			})
		}
	}

	if cond, ok, err := buildStopCondition(doc.StopConditions); err != nil {
		return nil, nil, err
	} else if ok {
		c.SetStopCondition(cond)
	}

	msgs := make([]core.Message, 0, len(doc.StartMessages))
	for _, m := range doc.StartMessages {
		msgs = append(msgs, messageFromSpec(m))
	}

	return c, msgs, nil
}

func buildPolicy(ts TeamSpec, members []core.Identifier) (team.CollaborationPolicy, error) {
	switch ts.Collaboration.Type {
	case "", "decentralized":
		return team.Decentralized{}, nil
	case "centralized":
		coordinator := core.AgentID(ts.Collaboration.Coordinator)
		found := false
		for _, m := range members {
			if m == coordinator {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("config: team %q's coordinator %q is not a member", ts.Name, ts.Collaboration.Coordinator)
		}
		return team.Centralized{Coordinator: coordinator}, nil
	case "round_robin":
		return &team.RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("config: team %q has unknown collaboration type %q", ts.Name, ts.Collaboration.Type)
	}
}

func buildStopCondition(specs []StopConditionSpec) (stopcond.Condition, bool, error) {
	if len(specs) == 0 {
		return nil, false, nil
	}
	conds := make([]stopcond.Condition, 0, len(specs))
	for _, spec := range specs {
		cond, err := buildCondition(spec)
		if err != nil {
			return nil, false, err
		}
		conds = append(conds, cond)
	}
	if len(conds) == 1 {
		return conds[0], true, nil
	}
	return stopcond.Any(conds...), true, nil
}

func buildCondition(spec StopConditionSpec) (stopcond.Condition, error) {
	switch spec.Type {
	case "no_activity":
		ms, err := intParam(spec.Parameters, "window_ms")
		if err != nil {
			return nil, err
		}
		return stopcond.NoActivity(time.Duration(ms) * time.Millisecond), nil
	case "message_count_reached":
		n, err := intParam(spec.Parameters, "count")
		if err != nil {
			return nil, err
		}
		return stopcond.MessageCountReached(uint64(n)), nil
	case "human_signal":
		return stopcond.HumanSignal(), nil
	case "any", "all":
		children := make([]stopcond.Condition, 0, len(spec.Conditions))
		for _, c := range spec.Conditions {
			built, err := buildCondition(c)
			if err != nil {
				return nil, err
			}
			children = append(children, built)
		}
		if spec.Type == "any" {
			return stopcond.Any(children...), nil
		}
		return stopcond.All(children...), nil
	default:
		return nil, fmt.Errorf("config: unknown stop condition type %q", spec.Type)
	}
}

func intParam(params map[string]any, key string) (int, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("config: stop condition missing parameter %q", key)
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	default:
		return 0, fmt.Errorf("config: parameter %q has unsupported type %T", key, v)
	}
}
