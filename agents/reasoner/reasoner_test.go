package reasoner_test

import (
	"context"
	"testing"
	"time"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/agents/reasoner"
	"github.com/2389-research/chorus/agents/reasoner/llm"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

type scriptedProvider struct {
	responses []*llm.Response
	calls     int
}

func (p *scriptedProvider) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	r := p.responses[p.calls]
	p.calls++
	return r, nil
}

func popWithin(t *testing.T, ib *router.Inbox, timeout time.Duration) (core.Event, bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ev, ok := ib.Pop(); ok {
			return ev, true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return core.Event{}, false
}

func TestRespondWithoutToolCallSendsTextReply(t *testing.T) {
	r := router.New()
	caller := r.Register(core.AgentID("caller"), 0)

	provider := &scriptedProvider{responses: []*llm.Response{
		{Content: "hi there", StopReason: llm.StopEndTurn},
	}}
	client := llm.NewClient(llm.WithProvider("stub", provider))
	b := &reasoner.Behavior{Client: client, Model: "stub-model"}

	rt := agentruntime.New(core.AgentID("bot"), core.KindPassive, b, r, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)
	defer rt.Stop()

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("caller"), Destination: core.AgentID("bot"), Content: "hello",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	ev, ok := popWithin(t, caller, time.Second)
	if !ok {
		t.Fatal("expected a reply to caller")
	}
	if ev.Message.Content != "hi there" {
		t.Fatalf("unexpected reply content: %q", ev.Message.Content)
	}
}

func TestRespondWithToolCallInvokesServiceThenResumes(t *testing.T) {
	r := router.New()
	caller := r.Register(core.AgentID("caller"), 0)
	svcInbox := r.Register(core.ServiceID("crew", "lookup"), 0)

	provider := &scriptedProvider{responses: []*llm.Response{
		{StopReason: llm.StopToolUse, ToolCalls: []llm.ToolCall{{ID: "tc1", Name: "lookup", Arguments: map[string]any{"q": "x"}}}},
		{Content: "found it", StopReason: llm.StopEndTurn},
	}}
	client := llm.NewClient(llm.WithProvider("stub", provider))
	b := &reasoner.Behavior{
		Client: client, Model: "stub-model",
		ToolBindings: []reasoner.ToolBinding{{
			Definition: llm.ToolDefinition{Name: "lookup"},
			Service:    core.ServiceID("crew", "lookup"),
		}},
	}

	rt := agentruntime.New(core.AgentID("bot"), core.KindPassive, b, r, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)
	defer rt.Stop()

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("caller"), Destination: core.AgentID("bot"), Content: "look this up",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	req, ok := popWithin(t, svcInbox, time.Second)
	if !ok {
		t.Fatal("expected the reasoner to invoke the lookup service")
	}
	if req.Type != core.EventTeamServiceRequest || len(req.Message.Actions) != 1 || req.Message.Actions[0].InvocationID != "tc1" {
		t.Fatalf("unexpected tool invocation: %+v", req.Message)
	}

	if _, err := r.Send(core.Event{Type: core.EventTeamServiceResponse, Message: core.Message{
		Source: core.ServiceID("crew", "lookup"), Destination: core.AgentID("bot"),
		Observations: []core.ToolObservation{{InvocationID: "tc1", OK: true, Result: "42"}},
		ReplyTo:      "tc1",
	}}); err != nil {
		t.Fatalf("send observation: %v", err)
	}

	final, ok := popWithin(t, caller, time.Second)
	if !ok {
		t.Fatal("expected the reasoner to resume and reply to caller")
	}
	if final.Message.Content != "found it" {
		t.Fatalf("unexpected final reply: %q", final.Message.Content)
	}
}
