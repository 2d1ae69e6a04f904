// ABOUTME: Channel is a named multicast group; publication excludes the source from fan-out.
package core

import "sort"

// Channel groups agent names under a shared identifier for broadcast
// publication. The Router reads Members at the moment it processes a
// publication (see router.Router.Send) — membership changes mid-session
// take effect for the next publication, per the Open Question resolution
// in SPEC_FULL.md §9(a).
type Channel struct {
	Name     string
	Members  map[Identifier]struct{}
	Metadata map[string]string
}

// NewChannel creates a channel with the given members.
func NewChannel(name string, members ...Identifier) *Channel {
	c := &Channel{
		Name:    name,
		Members: make(map[Identifier]struct{}, len(members)),
	}
	for _, m := range members {
		c.Members[m] = struct{}{}
	}
	return c
}

// ID returns the channel's fully qualified Identifier.
func (c *Channel) ID() Identifier {
	return ChannelID(c.Name)
}

// Add inserts a member. Idempotent.
func (c *Channel) Add(member Identifier) {
	c.Members[member] = struct{}{}
}

// Remove deletes a member. Idempotent.
func (c *Channel) Remove(member Identifier) {
	delete(c.Members, member)
}

// Has reports whether member currently belongs to the channel.
func (c *Channel) Has(member Identifier) bool {
	_, ok := c.Members[member]
	return ok
}

// Recipients returns every member except exclude, as a stable-ordered slice.
// Used by the Router to fan out a publication to all members but the source.
func (c *Channel) Recipients(exclude Identifier) []Identifier {
	out := make([]Identifier, 0, len(c.Members))
	for m := range c.Members {
		if m == exclude {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
