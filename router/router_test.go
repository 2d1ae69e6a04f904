package router_test

import (
	"testing"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

func drain(t *testing.T, ib *router.Inbox, n int, timeout time.Duration) []core.Event {
	t.Helper()
	out := make([]core.Event, 0, n)
	deadline := time.Now().Add(timeout)
	for len(out) < n {
		if ev, ok := ib.Pop(); ok {
			out = append(out, ev)
			continue
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %d events, got %d", n, len(out))
		}
		select {
		case <-ib.Notify():
		case <-time.After(10 * time.Millisecond):
		}
	}
	return out
}

func TestPerPairFIFO(t *testing.T) {
	r := router.New()
	a := r.Register(core.AgentID("a"), 0)
	_ = a
	b := r.Register(core.AgentID("b"), 0)

	for i := 0; i < 5; i++ {
		msg := core.Message{Source: core.AgentID("a"), Destination: core.AgentID("b"), Content: string(rune('0' + i))}
		if _, err := r.Send(core.Event{Type: core.EventMessage, Message: msg}); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}

	events := drain(t, b, 5, time.Second)
	for i, ev := range events {
		want := string(rune('0' + i))
		if ev.Message.Content != want {
			t.Fatalf("event %d: got content %q, want %q (FIFO violated)", i, ev.Message.Content, want)
		}
		if ev.Message.Timestamp == 0 {
			t.Fatalf("event %d: timestamp not stamped", i)
		}
	}
}

func TestChannelExcludesSource(t *testing.T) {
	r := router.New()
	m := r.Register(core.AgentID("M"), 0)
	x := r.Register(core.AgentID("X"), 0)
	y := r.Register(core.AgentID("Y"), 0)

	ch := core.NewChannel("news", core.AgentID("M"), core.AgentID("X"), core.AgentID("Y"))
	r.RegisterChannel(ch)

	msg := core.Message{Source: core.AgentID("M"), Channel: core.ChannelID("news"), Content: "update"}
	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: msg}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	xEvents := drain(t, x, 1, time.Second)
	yEvents := drain(t, y, 1, time.Second)

	if xEvents[0].Message.Content != "update" || xEvents[0].Message.Channel != core.ChannelID("news") {
		t.Fatalf("X did not receive expected channel message: %+v", xEvents[0])
	}
	if yEvents[0].Message.Content != "update" {
		t.Fatalf("Y did not receive expected channel message: %+v", yEvents[0])
	}

	time.Sleep(50 * time.Millisecond)
	if ev, ok := m.Pop(); ok {
		t.Fatalf("source M should not receive its own publication, got %+v", ev)
	}
}

func TestUnknownIdentifier(t *testing.T) {
	r := router.New()
	msg := core.Message{Source: core.AgentID("a"), Destination: core.AgentID("nobody"), Content: "x"}
	_, err := r.Send(core.Event{Type: core.EventMessage, Message: msg})
	if err == nil {
		t.Fatal("expected error for unknown destination")
	}
	re, ok := err.(*core.RoutingError)
	if !ok || re.Kind != core.ErrUnknownIdentifier {
		t.Fatalf("expected UnknownIdentifier, got %v", err)
	}
}

func TestMalformedEnvelope(t *testing.T) {
	r := router.New()
	r.Register(core.AgentID("a"), 0)

	// Neither destination nor channel set.
	_, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{Source: core.AgentID("a")}})
	if err == nil {
		t.Fatal("expected MalformedEnvelope for no destination/channel")
	}

	// Both set.
	_, err = r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("a"), Destination: core.AgentID("a"), Channel: core.ChannelID("x"),
	}})
	if err == nil {
		t.Fatal("expected MalformedEnvelope for both destination and channel")
	}
}

func TestSendAfterUnregisterFails(t *testing.T) {
	r := router.New()
	r.Register(core.AgentID("a"), 0)
	r.Register(core.AgentID("b"), 0)

	diag, unsub := r.Diagnostics()
	defer unsub()

	r.Unregister(core.AgentID("b"))

	_, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("a"), Destination: core.AgentID("b"), Content: "hi",
	}})
	if err == nil {
		t.Fatal("expected error sending to unregistered identifier")
	}

	select {
	case <-diag:
	case <-time.After(100 * time.Millisecond):
		// Unregister-before-send is a plain UnknownIdentifier, not a
		// DeadLetter (no delivery was ever in flight). That's fine.
	}
}

func TestInboxFullReturnsInboxFull(t *testing.T) {
	r := router.New()
	r.SetEnqueueTimeout(10 * time.Millisecond)
	r.Register(core.AgentID("b"), 1)

	msg := core.Message{Source: core.AgentID("a"), Destination: core.AgentID("b"), Content: "x"}
	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: msg}); err != nil {
		t.Fatalf("first send: %v", err)
	}
	_, err := r.Send(core.Event{Type: core.EventMessage, Message: msg})
	if err == nil {
		t.Fatal("expected InboxFull on second send into a full 1-capacity inbox")
	}
	re, ok := err.(*core.RoutingError)
	if !ok || re.Kind != core.ErrInboxFull {
		t.Fatalf("expected InboxFull, got %v", err)
	}
}

func TestSubscribeListenerFailureDoesNotAffectDelivery(t *testing.T) {
	r := router.New()
	b := r.Register(core.AgentID("b"), 0)
	unsub := r.Subscribe(func(core.Event) { panic("boom") })
	defer unsub()

	msg := core.Message{Source: core.AgentID("a"), Destination: core.AgentID("b"), Content: "x"}
	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: msg}); err != nil {
		t.Fatalf("send: %v", err)
	}
	drain(t, b, 1, time.Second)
}
