// ABOUTME: Server is a read-only chi-based HTTP observability surface over a running workspace.Controller:
// ABOUTME: health, a topology snapshot (JSON/DOT), and a live server-sent-events feed of routed events.
package dashboard

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/2389-research/chorus/core"
	"github.com/2389-research/chorus/topology"
	"github.com/2389-research/chorus/workspace"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// historyLimit caps how many recent events the dashboard keeps in memory
// for late SSE subscribers.
const historyLimit = 200

// Server exposes a running Controller's state over HTTP. It never mutates
// the workspace; every handler only reads Controller.Topology or the
// event history this Server accumulates via AddMessageListener.
type Server struct {
	controller *workspace.Controller
	router     chi.Router
	addr       string

	mu          sync.RWMutex
	history     []core.Event
	subscribers map[chan core.Event]struct{}

	unsubscribe func()
}

// NewServer wires a dashboard over ctrl and subscribes to its events at
// once; construct it before the controller begins routing events so no
// early events are missed.
func NewServer(ctrl *workspace.Controller, addr string) *Server {
	s := &Server{
		controller:  ctrl,
		addr:        addr,
		subscribers: make(map[chan core.Event]struct{}),
	}
	s.unsubscribe = ctrl.AddMessageListener(s.observe)
	s.router = s.buildRouter()
	return s
}

// Close detaches the dashboard from the controller's event stream.
func (s *Server) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// ServeHTTP satisfies http.Handler, delegating to the chi router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe starts the HTTP server on the configured address with
// read-header, read and idle timeouts; no WriteTimeout is set, so the
// long-lived /events stream is not cut off.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return srv.ListenAndServe()
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/topology", s.handleTopologyJSON)
	r.Get("/topology.dot", s.handleTopologyDOT)
	r.Get("/events", s.handleEvents)

	return r
}

func (s *Server) observe(ev core.Event) {
	s.mu.Lock()
	s.history = append(s.history, ev)
	if len(s.history) > historyLimit {
		s.history = s.history[len(s.history)-historyLimit:]
	}
	for ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
			log.Printf("component=dashboard action=drop_event reason=subscriber_slow")
		}
	}
	s.mu.Unlock()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleTopologyJSON(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.controller.Topology())
}

func (s *Server) handleTopologyDOT(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, topology.Export(s.controller.Topology()))
}

// handleEvents streams the event history followed by live events as
// server-sent events, one JSON object per event.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	ch := make(chan core.Event, 64)
	s.mu.Lock()
	backlog := append([]core.Event(nil), s.history...)
	s.subscribers[ch] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.subscribers, ch)
		s.mu.Unlock()
	}()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, ev := range backlog {
		writeSSE(w, ev)
	}
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			writeSSE(w, ev)
			flusher.Flush()
		}
	}
}

func writeSSE(w http.ResponseWriter, ev core.Event) {
	b, err := json.Marshal(ev)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
