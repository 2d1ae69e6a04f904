// ABOUTME: Condition is a predicate over observed workspace activity, which the workspace Controller polls periodically.
// ABOUTME: Any combines conditions disjunctively (the spec-mandated default); All is the natural dual for nested config.
package stopcond

import (
	"time"

	"github.com/2389-research/chorus/core"
)

// Snapshot is the observed activity a Condition evaluates against. The
// WorkspaceController updates its counters from each routed message event
// and evaluates the condition on a fixed poll interval (StopPoll), not
// after each individual delivery or step.
type Snapshot struct {
	MessageCount uint64
	LastActivity time.Time
	LastMessage  core.Message
	Now          time.Time
}

// Condition reports whether the workspace should begin shutdown.
type Condition func(Snapshot) bool

// NoActivity fires once window has elapsed since LastActivity, which the
// WorkspaceController sets at Start and on every routed message event.
// Agent steps that route no message are not counted as activity.
func NoActivity(window time.Duration) Condition {
	return func(s Snapshot) bool {
		return s.Now.Sub(s.LastActivity) >= window
	}
}

// MessageCountReached fires once the total routed message count reaches n.
func MessageCountReached(n uint64) Condition {
	return func(s Snapshot) bool {
		return s.MessageCount >= n
	}
}

// HumanSignal fires when the last observed message came from the human
// sentinel identifier with metadata["stop"] == "true".
func HumanSignal() Condition {
	return func(s Snapshot) bool {
		if s.LastMessage.Source != core.Human {
			return false
		}
		return s.LastMessage.Metadata["stop"] == "true"
	}
}

// Any combines conditions disjunctively: it fires as soon as one condition
// fires. This is the spec-mandated combination for a workspace's
// stop_conditions list.
func Any(conds ...Condition) Condition {
	return func(s Snapshot) bool {
		for _, c := range conds {
			if c(s) {
				return true
			}
		}
		return false
	}
}

// All combines conditions conjunctively: every condition must fire. Not a
// spec requirement on its own, but the natural dual of Any once conditions
// are modeled as func(Snapshot) bool — config needs it to parse a nested
// {type: "all", conditions: [...]} entry in a workspace document.
func All(conds ...Condition) Condition {
	return func(s Snapshot) bool {
		for _, c := range conds {
			if !c(s) {
				return false
			}
		}
		return true
	}
}
