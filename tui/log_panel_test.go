// ABOUTME: Tests for LogPanelModel's bounded event buffer and rendering.
package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/2389-research/chorus/core"
)

func TestLogPanelAppendEvictsOldestAtCapacity(t *testing.T) {
	m := NewLogPanelModel(2)
	m.Append(core.Event{Type: core.EventMessage, Message: core.Message{Content: "one"}})
	m.Append(core.Event{Type: core.EventMessage, Message: core.Message{Content: "two"}})
	m.Append(core.Event{Type: core.EventMessage, Message: core.Message{Content: "three"}})

	if m.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", m.Len())
	}
	if m.entries[0].Message.Content != "two" {
		t.Fatalf("expected oldest entry evicted, got %q", m.entries[0].Message.Content)
	}
}

func TestFormatEventIncludesSourceAndDestination(t *testing.T) {
	ev := core.Event{
		Type: core.EventMessage,
		Message: core.Message{
			Source:      core.AgentID("writer"),
			Destination: core.AgentID("critic"),
			Content:     "draft ready",
		},
	}
	line := formatEvent(ev)
	for _, want := range []string{"writer", "critic", "draft ready"} {
		if !strings.Contains(line, want) {
			t.Errorf("expected line to contain %q, got %q", want, line)
		}
	}
}

func TestTruncateShortensLongContent(t *testing.T) {
	s := strings.Repeat("x", 200)
	got := truncate(s, 10)
	if n := utf8.RuneCountInString(got); n != 10 {
		t.Fatalf("expected length 10, got %d", n)
	}
}
