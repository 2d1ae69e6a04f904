package snapshot_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/snapshot"
)

func TestWriteReadRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	w := snapshot.NewWriter(&buf)

	ev := core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.AgentID("a"), Destination: core.AgentID("b"), Content: "hi", Timestamp: 1,
	}}
	if err := w.WriteEvent(ev); err != nil {
		t.Fatalf("WriteEvent: %v", err)
	}
	if err := w.WriteState("a", map[string]any{"count": float64(3)}); err != nil {
		t.Fatalf("WriteState: %v", err)
	}

	r := snapshot.NewReader(&buf)
	recs, err := r.All()
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records, got %d", len(recs))
	}
	if recs[0].IsState {
		t.Fatal("first record should be an event")
	}
	if recs[0].Event.Message.Content != "hi" {
		t.Fatalf("event content mismatch: %+v", recs[0].Event)
	}
	if !recs[1].IsState || recs[1].State.Agent != "a" {
		t.Fatalf("second record should be agent a's state: %+v", recs[1])
	}

	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected EOF after all records consumed, got %v", err)
	}
}
