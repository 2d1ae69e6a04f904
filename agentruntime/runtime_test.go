package agentruntime_test

import (
	"context"
	"testing"
	"time"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/router"
)

// echoBehavior replies to every message by sending its content back to the
// sender, and counts how many times each step ran.
type echoBehavior struct {
	agentruntime.PassiveOnly
	responded chan core.Message
}

func (b *echoBehavior) InitState(ctx context.Context) (agentruntime.State, error) {
	return 0, nil
}

func (b *echoBehavior) Respond(ctx context.Context, ac *agentruntime.Context, state agentruntime.State, msg core.Message) agentruntime.StepOutcome {
	_ = ac.Send(core.Message{Destination: msg.Source, Content: "echo:" + msg.Content})
	b.responded <- msg
	n := state.(int)
	return agentruntime.Updated(n + 1)
}

func TestRespondSendsAndCommitsState(t *testing.T) {
	r := router.New()
	caller := r.Register(core.AgentID("caller"), 0)

	b := &echoBehavior{responded: make(chan core.Message, 1)}
	rt := agentruntime.New(core.AgentID("echoer"), core.KindPassive, b, r, 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("caller"), Destination: core.AgentID("echoer"), Content: "hi",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case <-b.responded:
	case <-time.After(time.Second):
		t.Fatal("behavior never ran")
	}

	deadline := time.Now().Add(time.Second)
	for {
		if ev, ok := caller.Pop(); ok {
			if ev.Message.Content != "echo:hi" {
				t.Fatalf("got %q, want %q", ev.Message.Content, "echo:hi")
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("caller never received the echoed reply")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rt.Stop()
}

// crashingBehavior panics on its first Respond call and succeeds afterward,
// letting a test assert that state never moved past the crashed step.
type crashingBehavior struct {
	agentruntime.PassiveOnly
	calls int
}

func (b *crashingBehavior) InitState(ctx context.Context) (agentruntime.State, error) {
	return "initial", nil
}

func (b *crashingBehavior) Respond(ctx context.Context, ac *agentruntime.Context, state agentruntime.State, msg core.Message) agentruntime.StepOutcome {
	b.calls++
	if b.calls == 1 {
		panic("boom")
	}
	return agentruntime.Updated("after-crash")
}

func TestCrashedStepLeavesStateUnchangedAndKeepsRunning(t *testing.T) {
	r := router.New()
	b := &crashingBehavior{}
	rt := agentruntime.New(core.AgentID("crasher"), core.KindPassive, b, r, 0)

	diag, unsub := r.Diagnostics()
	defer unsub()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go rt.Run(ctx)

	send := func(content string) {
		if _, err := r.Send(core.Event{Type: core.EventMessage, Message: core.Message{
			Source: core.AgentID("caller"), Destination: core.AgentID("crasher"), Content: content,
		}}); err != nil {
			t.Fatalf("send: %v", err)
		}
	}

	send("first")

	var sawCrash bool
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		select {
		case ev := <-diag:
			if ev.Type == core.EventHandlerCrash {
				sawCrash = true
			}
		case <-time.After(10 * time.Millisecond):
		}
		if sawCrash {
			break
		}
	}
	if !sawCrash {
		t.Fatal("expected a HandlerCrash diagnostic after the panicking step")
	}
	if got := rt.CurrentState(); got != "initial" {
		t.Fatalf("state after crashed step = %v, want initial", got)
	}

	// The runtime must still be alive to process the next message.
	send("second")
	deadline = time.Now().Add(time.Second)
	for b.calls < 2 {
		if time.Now().After(deadline) {
			t.Fatal("runtime did not process a message after recovering from a crash")
		}
		time.Sleep(5 * time.Millisecond)
	}

	rt.Stop()
	select {
	case <-rt.Done():
	case <-time.After(time.Second):
		t.Fatal("Stop did not complete")
	}
}

func TestStopRespectsCancellation(t *testing.T) {
	r := router.New()
	b := &echoBehavior{responded: make(chan core.Message, 1)}
	rt := agentruntime.New(core.AgentID("e2"), core.KindPassive, b, r, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go rt.Run(ctx)
	cancel()

	select {
	case <-rt.Done():
	case <-time.After(time.Second):
		t.Fatal("cancelling ctx did not stop the runtime")
	}
}
