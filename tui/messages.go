// ABOUTME: Bubble Tea message types carrying Chorus events and timer ticks into the viewer's Update loop.
package tui

import (
	"time"

	"github.com/2389-research/chorus/core"
)

// EventMsg wraps one routed Event for the Bubble Tea message loop.
type EventMsg struct {
	Event core.Event
}

// TickMsg drives the elapsed-time display in the status bar.
type TickMsg struct {
	Time time.Time
}
