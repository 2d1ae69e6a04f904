package core_test

import (
	"testing"

	"github.com/2389-research/chorus/core"
)

func TestIdentifierKinds(t *testing.T) {
	cases := []struct {
		id   core.Identifier
		kind core.Kind
		name string
	}{
		{core.AgentID("alice"), core.KindAgent, "alice"},
		{core.TeamID("T"), core.KindTeam, "T"},
		{core.ChannelID("news"), core.KindChannel, "news"},
		{core.ServiceID("T", "search"), core.KindService, "T/search"},
		{core.Human, core.KindHuman, "human"},
	}
	for _, c := range cases {
		if got := c.id.Kind(); got != c.kind {
			t.Errorf("%q: kind = %v, want %v", c.id, got, c.kind)
		}
		if got := c.id.Name(); got != c.name {
			t.Errorf("%q: name = %q, want %q", c.id, got, c.name)
		}
	}
}

func TestMessageValidate(t *testing.T) {
	ev := core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("a"), Destination: core.AgentID("b"),
	}}
	if err := ev.Validate(); err != nil {
		t.Errorf("valid direct message rejected: %v", err)
	}

	neither := core.Event{Type: core.EventMessage, Message: core.Message{Source: core.AgentID("a")}}
	if err := neither.Validate(); err == nil {
		t.Error("expected MalformedEnvelope when neither destination nor channel is set")
	}

	both := core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("a"), Destination: core.AgentID("b"), Channel: core.ChannelID("c"),
	}}
	if err := both.Validate(); err == nil {
		t.Error("expected MalformedEnvelope when both destination and channel are set")
	}

	broadcast := core.Event{Type: core.EventAgentStarted, Message: core.Message{Source: core.AgentID("a")}}
	if err := broadcast.Validate(); err != nil {
		t.Errorf("broadcast event should bypass the destination/channel invariant: %v", err)
	}
}

func TestChannelRecipientsExcludesSource(t *testing.T) {
	ch := core.NewChannel("news", core.AgentID("A"), core.AgentID("B"), core.AgentID("C"))
	got := ch.Recipients(core.AgentID("A"))
	if len(got) != 2 {
		t.Fatalf("expected 2 recipients, got %d: %v", len(got), got)
	}
	for _, r := range got {
		if r == core.AgentID("A") {
			t.Fatalf("source must be excluded from recipients: %v", got)
		}
	}
}

func TestRoutingErrorIs(t *testing.T) {
	err := core.NewRoutingError(core.ErrTimeout, core.AgentID("x"), nil)
	target := &core.RoutingError{Kind: core.ErrTimeout}
	if !err.Is(target) {
		t.Error("expected errors.Is match on Kind")
	}
	other := &core.RoutingError{Kind: core.ErrCancelled}
	if err.Is(other) {
		t.Error("expected no match for different Kind")
	}
}
