// ABOUTME: Registry tracks which team services exist per team so agents can discover them via team_services().
package teamservice

import (
	"sort"
	"sync"

	"github.com/2389-research/chorus/core"
)

// Registry implements agentruntime.TeamServiceLocator: it records every
// Service's identifier, grouped by team, so a Context.TeamServices call
// can list what's available without the agentruntime package depending on
// teamservice directly.
type Registry struct {
	mu    sync.RWMutex
	byTeam map[core.Identifier][]core.Identifier
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{byTeam: make(map[core.Identifier][]core.Identifier)}
}

// Add records a service as belonging to team.
func (reg *Registry) Add(team core.Identifier, svc *Service) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.byTeam[team] = append(reg.byTeam[team], svc.ID())
}

// TeamServices returns the sorted service identifiers registered for team.
func (reg *Registry) TeamServices(team core.Identifier) []core.Identifier {
	reg.mu.RLock()
	defer reg.mu.RUnlock()
	out := append([]core.Identifier(nil), reg.byTeam[team]...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
