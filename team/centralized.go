// ABOUTME: Centralized funnels every externally-addressed team message through one coordinator member.
package team

import "github.com/2389-research/chorus/core"

// Centralized re-addresses team traffic to a single coordinator: external
// senders reach only the coordinator, and other members' team-addressed
// messages are redirected to the coordinator too. A reply from the
// coordinator back to the team identifier is routed to whichever original
// external sender it is correlated with via ReplyTo; direct agent-to-agent
// messages inside the team are never touched, since only traffic addressed
// to the team identifier passes through the policy at all.
type Centralized struct {
	Coordinator core.Identifier
}

func (c Centralized) RouteInbound(t *Team, msg core.Message) []core.Message {
	t.RecordPending(msg.MessageID, msg.Source)
	fwd := msg.WithDestination(c.Coordinator)
	fwd.ReplyTo = msg.MessageID
	return []core.Message{fwd}
}

func (c Centralized) RouteOutbound(t *Team, msg core.Message) []core.Message {
	if msg.Source == c.Coordinator {
		if sender, ok := t.ResolvePending(msg.ReplyTo); ok {
			return []core.Message{msg.WithDestination(sender)}
		}
		// No correlated external request for this reply; nothing to do —
		// the coordinator addressed the team identifier unprompted.
		return nil
	}
	return []core.Message{msg.WithDestination(c.Coordinator)}
}
