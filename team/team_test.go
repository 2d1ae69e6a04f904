package team_test

import (
	"context"
	"testing"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
	"github.com/2389-research/chorus/team"
)

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

func TestCentralizedRoutesOnlyToCoordinator(t *testing.T) {
	r := router.New()
	k := r.Register(core.AgentID("K"), 0)
	rMember := r.Register(core.AgentID("R"), 0)

	tm := team.New("T", []core.Identifier{core.AgentID("K"), core.AgentID("R")}, team.Centralized{Coordinator: core.AgentID("K")}, r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tm.Run(ctx)
	defer tm.Stop()

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.Human, Destination: tm.ID(), Content: "q",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	ev, ok := popWithin(t, k, time.Second)
	if !ok {
		t.Fatal("coordinator never received the externally-addressed team message")
	}
	if ev.Message.Source != core.Human || ev.Message.Content != "q" {
		t.Fatalf("unexpected message at coordinator: %+v", ev.Message)
	}

	time.Sleep(50 * time.Millisecond)
	if ev, ok := rMember.Pop(); ok {
		t.Fatalf("non-coordinator member R should not receive the externally-addressed message, got %+v", ev)
	}

	// K directly messaging R is not intercepted by the team at all.
	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("K"), Destination: core.AgentID("R"), Content: "sub",
	}}); err != nil {
		t.Fatalf("direct send: %v", err)
	}
	ev, ok = popWithin(t, rMember, time.Second)
	if !ok || ev.Message.Content != "sub" {
		t.Fatalf("R should have received K's direct message, got ok=%v ev=%+v", ok, ev)
	}
}

func TestCentralizedCoordinatorReplyRoutesToOriginalSender(t *testing.T) {
	r := router.New()
	k := r.Register(core.AgentID("K"), 0)
	human := r.Register(core.Human, 0)

	tm := team.New("T", []core.Identifier{core.AgentID("K")}, team.Centralized{Coordinator: core.AgentID("K")}, r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tm.Run(ctx)
	defer tm.Stop()

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.Human, Destination: tm.ID(), Content: "q",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}
	inbound, ok := popWithin(t, k, time.Second)
	if !ok {
		t.Fatal("coordinator never received the inbound message")
	}

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("K"), Destination: tm.ID(), Content: "answer", ReplyTo: inbound.Message.ReplyTo,
	}}); err != nil {
		t.Fatalf("reply send: %v", err)
	}

	ev, ok := popWithin(t, human, time.Second)
	if !ok || ev.Message.Content != "answer" {
		t.Fatalf("human never received the coordinator's routed reply, got ok=%v ev=%+v", ok, ev)
	}
}

func TestDecentralizedBroadcastsToAllMembers(t *testing.T) {
	r := router.New()
	a := r.Register(core.AgentID("A"), 0)
	b := r.Register(core.AgentID("B"), 0)

	tm := team.New("T", []core.Identifier{core.AgentID("A"), core.AgentID("B")}, team.Decentralized{}, r)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tm.Run(ctx)
	defer tm.Stop()

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.Human, Destination: tm.ID(), Content: "hello",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	for _, ib := range []*router.Inbox{a, b} {
		ev, ok := popWithin(t, ib, time.Second)
		if !ok || ev.Message.Content != "hello" {
			t.Fatalf("member did not receive broadcast: ok=%v ev=%+v", ok, ev)
		}
	}
}
