// ABOUTME: CollaborationPolicy rewrites traffic addressed to a team identifier into traffic addressed to members.
package team

import "github.com/2389-research/chorus/core"

// CollaborationPolicy is a pure function of a message plus the team's
// static configuration — it holds no state of its own beyond what a
// specific policy documents (RoundRobin is the one built-in exception,
// since "pick the next member" is inherently stateful).
type CollaborationPolicy interface {
	// RouteInbound handles a message from outside the team (source is not
	// a member) addressed to the team identifier. It returns the messages
	// to re-emit, addressed to one or more members.
	RouteInbound(t *Team, msg core.Message) []core.Message

	// RouteOutbound handles a message from a team member addressed to the
	// team identifier. It returns the messages to re-emit.
	RouteOutbound(t *Team, msg core.Message) []core.Message
}
