// ABOUTME: Graph is a plain snapshot of a workspace's agents, teams, channels, and services.
// ABOUTME: Built by workspace.Controller.Topology and rendered to DOT for external visualization.
package topology

import "github.com/2389-research/chorus/core"

// TeamNode describes one team: its members and the services it exposes.
type TeamNode struct {
	ID       core.Identifier
	Members  []core.Identifier
	Channel  core.Identifier
	Services []core.Identifier
}

// Graph is a point-in-time snapshot of a workspace's membership structure.
type Graph struct {
	Agents []core.Identifier
	Teams  []TeamNode
}
