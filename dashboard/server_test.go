package dashboard_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/2389-research/chorus/agents/echo"
	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/dashboard"
	"github.com/2389-research/chorus/stopcond"
	"github.com/2389-research/chorus/team"
	"github.com/2389-research/chorus/workspace"
)

func newTestController(t *testing.T) *workspace.Controller {
	t.Helper()
	c := workspace.New()
	c.AddAgent(workspace.AgentEntry{
		Name:     core.AgentID("bot"),
		Kind:     core.KindPassive,
		Behavior: echo.New("hi"),
	})
	c.AddTeam(workspace.TeamEntry{
		Name:    "crew",
		Members: []core.Identifier{core.AgentID("bot")},
		Policy:  team.Decentralized{},
	})
	c.Router.Register(core.Human, 0)
	c.SetStopCondition(stopcond.NoActivity(time.Hour))
	return c
}

func TestHealthReportsOK(t *testing.T) {
	c := newTestController(t)
	d := dashboard.NewServer(c, "")
	defer d.Close()

	srv := httptest.NewServer(d)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestTopologyJSONIncludesAgentsAndTeams(t *testing.T) {
	c := newTestController(t)
	d := dashboard.NewServer(c, "")
	defer d.Close()

	srv := httptest.NewServer(d)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/topology")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var g struct {
		Agents []string `json:"agents"`
		Teams  []struct {
			ID      string   `json:"ID"`
			Members []string `json:"Members"`
		} `json:"teams"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Agents) != 1 || g.Agents[0] != "bot" {
		t.Fatalf("expected [bot], got %v", g.Agents)
	}
	if len(g.Teams) != 1 || g.Teams[0].ID != "team:crew" || len(g.Teams[0].Members) != 1 || g.Teams[0].Members[0] != "bot" {
		t.Fatalf("expected team:crew with member bot, got %+v", g.Teams)
	}
}

func TestTopologyDOTIncludesTeamLabel(t *testing.T) {
	c := newTestController(t)
	d := dashboard.NewServer(c, "")
	defer d.Close()

	srv := httptest.NewServer(d)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/topology.dot")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.Header.Get("Content-Type") != "text/vnd.graphviz" {
		t.Fatalf("unexpected content type %q", resp.Header.Get("Content-Type"))
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), `label="crew"`) {
		t.Fatalf("expected the team label in the DOT output, got %s", body)
	}
}

func TestEventsStreamsRoutedMessages(t *testing.T) {
	c := newTestController(t)
	d := dashboard.NewServer(c, "")
	defer d.Close()

	srv := httptest.NewServer(d)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go c.Run(ctx, nil)

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/events", nil)
	req = req.WithContext(ctx)
	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if _, err := c.Router.Send(core.Event{Type: core.EventMessage, Message: core.Message{
		Source: core.Human, Destination: core.AgentID("bot"), Content: "hello",
	}}); err != nil {
		t.Fatalf("send: %v", err)
	}

	read := make(chan int, 1)
	go func() {
		buf := make([]byte, 4096)
		n, _ := resp.Body.Read(buf)
		read <- n
	}()

	select {
	case n := <-read:
		if n == 0 {
			t.Fatal("expected at least one SSE frame")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for an SSE frame")
	}
}
