package store_test

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/snapshot"
	"github.com/2389-research/chorus/store"
)

func TestApplyAndQueryMessages(t *testing.T) {
	dir := t.TempDir()
	idx, err := store.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	ev := core.Event{Type: core.EventMessage, Message: core.Message{
		MessageID: "m1", Source: core.AgentID("a"), Destination: core.AgentID("b"),
		Content: "hi", Timestamp: 1,
	}}
	if err := idx.ApplyEvent(ev); err != nil {
		t.Fatalf("ApplyEvent: %v", err)
	}

	rows, err := idx.ListMessagesFor("b")
	if err != nil {
		t.Fatalf("ListMessagesFor: %v", err)
	}
	if len(rows) != 1 || rows[0].Content != "hi" {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestRebuildFromSnapshot(t *testing.T) {
	dir := t.TempDir()
	idx, err := store.Open(filepath.Join(dir, "index.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer idx.Close()

	var buf bytes.Buffer
	w := snapshot.NewWriter(&buf)
	_ = w.WriteEvent(core.Event{Type: core.EventMessage, Message: core.Message{
		MessageID: "m1", Source: core.AgentID("a"), Destination: core.AgentID("b"), Content: "hi", Timestamp: 1,
	}})
	_ = w.WriteState("a", map[string]any{"n": float64(1)})

	if err := idx.RebuildFromSnapshot(snapshot.NewReader(&buf)); err != nil {
		t.Fatalf("RebuildFromSnapshot: %v", err)
	}

	rows, err := idx.ListMessagesFor("a")
	if err != nil || len(rows) != 1 {
		t.Fatalf("expected 1 message after rebuild, got %d (err=%v)", len(rows), err)
	}
	raw, ok, err := idx.GetAgentState("a")
	if err != nil || !ok {
		t.Fatalf("expected agent state for a, ok=%v err=%v", ok, err)
	}
	if string(raw) == "" {
		t.Fatal("expected non-empty state json")
	}
}
