// Package server is the chat transport around the dialogue runtime: a
// websocket hub of rooms that relays player chat and forwards dialogue
// requests to the engine.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nvale/parley/internal/logging"
	"github.com/nvale/parley/internal/metrics"
	"github.com/nvale/parley/internal/runtime"
	"github.com/nvale/parley/internal/store"
)

// DefaultHost is the display name of the room host whose departure is
// deferred while a dialogue runs.
const DefaultHost = "Symoné"

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Server wires the websocket hub, the dialogue runtime and the HTTP routes.
type Server struct {
	logger      *slog.Logger
	host        string
	runtimeOpts []runtime.Option

	hub      *Hub
	manager  *runtime.Manager
	registry *prometheus.Registry
	router   chi.Router
}

// Option configures the Server.
type Option func(*Server)

// WithLogger configures structured logging for the transport and runtime.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// WithHost sets the host participant's display name.
func WithHost(name string) Option {
	return func(s *Server) { s.host = name }
}

// WithRuntimeOptions passes options through to the dialogue runtime.
func WithRuntimeOptions(opts ...runtime.Option) Option {
	return func(s *Server) { s.runtimeOpts = append(s.runtimeOpts, opts...) }
}

// New builds a server over the given graph library.
func New(graphs store.GraphStore, opts ...Option) *Server {
	s := &Server{
		logger:   logging.NewNop(),
		host:     DefaultHost,
		registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(s)
	}

	mx := metrics.New(s.registry)
	s.hub = newHub(s.logger, mx, s.host)
	runtimeOpts := append([]runtime.Option{
		runtime.WithLogger(s.logger),
		runtime.WithMetrics(mx),
	}, s.runtimeOpts...)
	s.manager = runtime.NewManager(graphs, s.hub, runtimeOpts...)
	s.hub.dialogues = s.manager

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/ws", s.serveWS)
	r.Get("/rooms/{room}/dialogue", s.dialogueStatus)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	s.router = r

	return s
}

// Handler returns the HTTP handler for the full route surface.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Runtime exposes the dialogue manager, mainly for embedding and tests.
func (s *Server) Runtime() *runtime.Manager {
	return s.manager
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	room := r.URL.Query().Get("room")
	if room == "" {
		room = "default"
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	c := newClient(s.hub, conn, room)
	s.hub.register(c)

	go c.writePump()
	c.readPump(r.Context())
}

func (s *Server) dialogueStatus(w http.ResponseWriter, r *http.Request) {
	room := chi.URLParam(r, "room")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.manager.Status(room)); err != nil {
		s.logger.Error("encoding status response", "room", room, "error", err)
	}
}
