// ABOUTME: RoundRobin assigns each externally-addressed team message to the next member in turn.
package team

import (
	"sync/atomic"

	"github.com/2389-research/chorus/core"
)

// RoundRobin cycles through member_names deterministically on each inbound
// external message; member-to-team traffic is broadcast like
// Decentralized. Unlike Centralized and Decentralized it carries state (a
// cursor), which is why it is an expansion rather than one of the two
// spec-mandated policies.
type RoundRobin struct {
	next atomic.Uint64
}

func (r *RoundRobin) RouteInbound(t *Team, msg core.Message) []core.Message {
	members := t.Members()
	if len(members) == 0 {
		return nil
	}
	idx := r.next.Add(1) - 1
	target := members[idx%uint64(len(members))]
	return []core.Message{msg.WithDestination(target)}
}

func (r *RoundRobin) RouteOutbound(t *Team, msg core.Message) []core.Message {
	return []core.Message{msg.WithChannel(t.ChannelID())}
}
