// ABOUTME: echo is the reference passive demo agent: it replies with a fixed phrase to every inbound message.
package echo

import (
	"context"

	"github.com/2389-research/chorus/agentruntime"
	"github.com/2389-research/chorus/core"
)

// Behavior replies with Phrase to every message addressed to it, ignoring
// content entirely. It carries no meaningful state beyond a message count,
// kept only to exercise the state-commit path.
type Behavior struct {
	agentruntime.PassiveOnly
	Phrase string
}

// New constructs an echo Behavior that replies with phrase.
func New(phrase string) *Behavior {
	return &Behavior{Phrase: phrase}
}

func (b *Behavior) InitState(ctx context.Context) (agentruntime.State, error) {
	return 0, nil
}

func (b *Behavior) Respond(ctx context.Context, ac *agentruntime.Context, state agentruntime.State, msg core.Message) agentruntime.StepOutcome {
	_ = ac.Send(core.Message{Destination: msg.Source, Content: b.Phrase, Role: core.RoleAssistant})
	count, _ := state.(int)
	return agentruntime.Updated(count + 1)
}
