// ABOUTME: Decentralized fans team-addressed traffic out to every member over the team's internal channel.
package team

import "github.com/2389-research/chorus/core"

// Decentralized broadcasts both directions: an external message addressed
// to the team reaches every member, and a member's team-addressed message
// reaches every other member, via the team's internal channel (which the
// Router's publish already excludes the source from).
type Decentralized struct{}

func (Decentralized) RouteInbound(t *Team, msg core.Message) []core.Message {
	return []core.Message{msg.WithChannel(t.ChannelID())}
}

func (Decentralized) RouteOutbound(t *Team, msg core.Message) []core.Message {
	return []core.Message{msg.WithChannel(t.ChannelID())}
}
