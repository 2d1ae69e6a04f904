// ABOUTME: reasoner is the LLM-backed Behavior: it turns inbound messages into completions, and completions
// ABOUTME: that ask for a tool into team service invocations, resuming the conversation once an observation arrives.
package reasoner

import (
	"context"
	"fmt"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/agents/reasoner/llm"
	"github.com/2389-research/chorus/core"
)

// ToolBinding pairs a tool definition the model may call with the team
// service identifier that actually executes it.
type ToolBinding struct {
	Definition llm.ToolDefinition
	Service    core.Identifier
}

// Behavior drives one conversation per agent through an llm.Client,
// fulfilling any tool calls the model issues via the matching ToolBinding
// before continuing the turn.
type Behavior struct {
	agentruntime.PassiveOnly

	Client       *llm.Client
	Model        string
	Instruction  string
	MaxTokens    int
	ToolBindings []ToolBinding
}

type conversationState struct {
	history   []llm.Message
	replyTo   core.Identifier
	toolCalls map[string]llm.ToolCall
}

func (b *Behavior) InitState(ctx context.Context) (agentruntime.State, error) {
	return &conversationState{toolCalls: make(map[string]llm.ToolCall)}, nil
}

func (b *Behavior) Respond(ctx context.Context, ac *agentruntime.Context, state agentruntime.State, msg core.Message) agentruntime.StepOutcome {
	prev, _ := state.(*conversationState)
	cs := &conversationState{toolCalls: make(map[string]llm.ToolCall)}
	if prev != nil {
		cs.history = append([]llm.Message(nil), prev.history...)
		cs.replyTo = prev.replyTo
		for id, tc := range prev.toolCalls {
			cs.toolCalls[id] = tc
		}
	}

	if len(msg.Observations) > 0 {
		for _, obs := range msg.Observations {
			if _, pending := cs.toolCalls[obs.InvocationID]; !pending {
				continue
			}
			delete(cs.toolCalls, obs.InvocationID)
			cs.history = append(cs.history, llm.Message{
				Role: llm.RoleTool,
				ToolResults: []llm.ToolResult{{
					ToolCallID: obs.InvocationID,
					Content:    observationText(obs),
					IsError:    !obs.OK,
				}},
			})
		}
		if len(cs.toolCalls) > 0 {
			return agentruntime.Updated(cs)
		}
	} else {
		cs.replyTo = msg.Source
		cs.history = append(cs.history, llm.Message{Role: llm.RoleUser, Content: msg.Content})
	}

	resp, err := b.Client.Complete(ctx, llm.Request{
		Model:     b.Model,
		System:    b.Instruction,
		Messages:  cs.history,
		Tools:     b.toolDefinitions(),
		MaxTokens: b.MaxTokens,
	})
	if err != nil {
		return agentruntime.Failed(state, fmt.Errorf("reasoner: completion failed: %w", err))
	}

	if resp.StopReason == llm.StopToolUse && len(resp.ToolCalls) > 0 {
		cs.history = append(cs.history, llm.Message{Role: llm.RoleAssistant, Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, tc := range resp.ToolCalls {
			svc, found := b.serviceFor(tc.Name)
			if !found {
				cs.history = append(cs.history, llm.Message{
					Role:        llm.RoleTool,
					ToolResults: []llm.ToolResult{{ToolCallID: tc.ID, Content: "no such tool: " + tc.Name, IsError: true}},
				})
				continue
			}
			cs.toolCalls[tc.ID] = tc
			if err := ac.Invoke(svc, core.ToolInvocation{InvocationID: tc.ID, Name: tc.Name, Arguments: tc.Arguments}); err != nil {
				return agentruntime.Failed(state, fmt.Errorf("reasoner: invoke %s: %w", tc.Name, err))
			}
		}
		return agentruntime.Updated(cs)
	}

	cs.history = append(cs.history, llm.Message{Role: llm.RoleAssistant, Content: resp.Content})
	if cs.replyTo != "" {
		if err := ac.Send(core.Message{Destination: cs.replyTo, Content: resp.Content, Role: core.RoleAssistant}); err != nil {
			return agentruntime.Failed(state, err)
		}
	}
	return agentruntime.Updated(cs)
}

func (b *Behavior) toolDefinitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, len(b.ToolBindings))
	for _, tb := range b.ToolBindings {
		defs = append(defs, tb.Definition)
	}
	return defs
}

func (b *Behavior) serviceFor(name string) (core.Identifier, bool) {
	for _, tb := range b.ToolBindings {
		if tb.Definition.Name == name {
			return tb.Service, true
		}
	}
	return "", false
}

func observationText(obs core.ToolObservation) string {
	if !obs.OK {
		if obs.Error != nil {
			return obs.Error.Message
		}
		return "tool failed"
	}
	return fmt.Sprintf("%v", obs.Result)
}
