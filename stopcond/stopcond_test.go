package stopcond_test

import (
	"testing"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/stopcond"
)

func TestNoActivity(t *testing.T) {
	cond := stopcond.NoActivity(100 * time.Millisecond)
	base := time.Now()
	if cond(stopcond.Snapshot{LastActivity: base, Now: base.Add(50 * time.Millisecond)}) {
		t.Error("should not fire before the window elapses")
	}
	if !cond(stopcond.Snapshot{LastActivity: base, Now: base.Add(150 * time.Millisecond)}) {
		t.Error("should fire once the window elapses")
	}
}

func TestMessageCountReached(t *testing.T) {
	cond := stopcond.MessageCountReached(3)
	if cond(stopcond.Snapshot{MessageCount: 2}) {
		t.Error("should not fire below the threshold")
	}
	if !cond(stopcond.Snapshot{MessageCount: 3}) {
		t.Error("should fire at the threshold")
	}
}

func TestHumanSignal(t *testing.T) {
	cond := stopcond.HumanSignal()
	if cond(stopcond.Snapshot{LastMessage: core.Message{Source: core.AgentID("a")}}) {
		t.Error("should not fire for a non-human sender")
	}
	if cond(stopcond.Snapshot{LastMessage: core.Message{Source: core.Human}}) {
		t.Error("should not fire without metadata[stop]=true")
	}
	if !cond(stopcond.Snapshot{LastMessage: core.Message{Source: core.Human, Metadata: map[string]string{"stop": "true"}}}) {
		t.Error("should fire for a human stop signal")
	}
}

func TestAnyIsDisjunctive(t *testing.T) {
	always := func(stopcond.Snapshot) bool { return false }
	trigger := func(stopcond.Snapshot) bool { return true }
	if stopcond.Any(always, always)(stopcond.Snapshot{}) {
		t.Error("Any of all-false conditions should not fire")
	}
	if !stopcond.Any(always, trigger)(stopcond.Snapshot{}) {
		t.Error("Any should fire when one condition fires")
	}
}

func TestAllIsConjunctive(t *testing.T) {
	always := func(stopcond.Snapshot) bool { return true }
	never := func(stopcond.Snapshot) bool { return false }
	if stopcond.All(always, never)(stopcond.Snapshot{}) {
		t.Error("All should not fire unless every condition fires")
	}
	if !stopcond.All(always, always)(stopcond.Snapshot{}) {
		t.Error("All should fire when every condition fires")
	}
}
