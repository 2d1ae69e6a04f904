// ABOUTME: Export renders a Graph as a DOT digraph: agent/team/service nodes, membership and exposure edges.
// ABOUTME: Adapted from the teacher's hand-rolled DOT writer (spec/core/export/dot.go), not a gographviz dependency.
package topology

import (
	"fmt"
	"sort"
	"strings"

	"github.com/2389-research/chorus/core"
)

// Export renders g as a DOT digraph suitable for `dot -Tpng`. Agents are
// plain nodes, teams are labeled clusters containing their members, and a
// team's services render as diamond nodes with an "exposes" edge to each
// member.
func Export(g Graph) string {
	var out strings.Builder

	fmt.Fprintln(&out, "digraph workspace {")
	fmt.Fprintln(&out, "  rankdir=LR;")

	agents := append([]core.Identifier(nil), g.Agents...)
	sort.Slice(agents, func(i, j int) bool { return agents[i] < agents[j] })
	for _, a := range agents {
		fmt.Fprintf(&out, "  %s [shape=box,label=%s];\n", nodeID(a), quote(a.Name()))
	}

	teams := append([]TeamNode(nil), g.Teams...)
	sort.Slice(teams, func(i, j int) bool { return teams[i].ID < teams[j].ID })

	for i, team := range teams {
		fmt.Fprintf(&out, "  subgraph cluster_%d {\n", i)
		fmt.Fprintf(&out, "    label=%s;\n", quote(team.ID.Name()))

		members := append([]core.Identifier(nil), team.Members...)
		sort.Slice(members, func(i, j int) bool { return members[i] < members[j] })
		for _, m := range members {
			fmt.Fprintf(&out, "    %s;\n", nodeID(m))
		}
		fmt.Fprintln(&out, "  }")

		if team.Channel != "" {
			for _, m := range members {
				fmt.Fprintf(&out, "  %s -> %s [style=dashed,label=\"channel\"];\n", nodeID(m), nodeID(team.Channel))
			}
			fmt.Fprintf(&out, "  %s [shape=ellipse,label=%s];\n", nodeID(team.Channel), quote(team.Channel.Name()))
		}

		services := append([]core.Identifier(nil), team.Services...)
		sort.Slice(services, func(i, j int) bool { return services[i] < services[j] })
		for _, svc := range services {
			fmt.Fprintf(&out, "  %s [shape=diamond,label=%s];\n", nodeID(svc), quote(svc.Name()))
			for _, m := range members {
				fmt.Fprintf(&out, "  %s -> %s [label=\"exposes\"];\n", nodeID(svc), nodeID(m))
			}
		}
	}

	fmt.Fprintln(&out, "}")
	return out.String()
}

// nodeID produces a DOT-safe node identifier from an Identifier, since
// ":" and "/" are not valid in an unquoted DOT ID.
func nodeID(id core.Identifier) string {
	s := strings.NewReplacer(":", "_", "/", "_").Replace(string(id))
	return quote(s)
}

func quote(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "\"", "\\\"")
	return "\"" + s + "\""
}
