// Package runtime executes compiled dialogue graphs inside chat rooms: one
// session of timed, stateful playback per room, driven by player choices and
// cancellable scheduled messages.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nvale/parley/internal/logging"
	"github.com/nvale/parley/internal/metrics"
	"github.com/nvale/parley/internal/store"
	"github.com/nvale/parley/internal/validator"
	"github.com/nvale/parley/pkg/pacing"
)

// DefaultNarrator is the display name dialogue output is attributed to.
const DefaultNarrator = "Liz"

// DefaultGracePeriod is how long an ended session's state survives before
// deletion, giving clients time to query the final node.
const DefaultGracePeriod = 5 * time.Minute

// Manager is the registry of dialogue sessions, keyed by room. It owns
// session lifecycle; all mutation of a session's state goes through it.
type Manager struct {
	store    store.GraphStore
	cast     Broadcaster
	sched    Scheduler
	calc     *pacing.Calculator
	logger   *slog.Logger
	metrics  *metrics.Metrics
	narrator string
	grace    time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures structured logging for runtime events.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithScheduler substitutes the timer backend, mainly for tests.
func WithScheduler(s Scheduler) Option {
	return func(m *Manager) { m.sched = s }
}

// WithPacing overrides the message pacing configuration.
func WithPacing(cfg pacing.Config) Option {
	return func(m *Manager) { m.calc = pacing.NewCalculator(cfg) }
}

// WithNarrator sets the display name for narrated output.
func WithNarrator(name string) Option {
	return func(m *Manager) { m.narrator = name }
}

// WithGracePeriod sets how long ended session state is kept.
func WithGracePeriod(d time.Duration) Option {
	return func(m *Manager) { m.grace = d }
}

// WithMetrics enables prometheus instrumentation.
func WithMetrics(mx *metrics.Metrics) Option {
	return func(m *Manager) { m.metrics = mx }
}

// NewManager creates a session registry over the given graph store and
// broadcast collaborator.
func NewManager(graphs store.GraphStore, cast Broadcaster, opts ...Option) *Manager {
	m := &Manager{
		store:    graphs,
		cast:     cast,
		sched:    TimerScheduler{},
		calc:     pacing.NewCalculator(pacing.DefaultConfig()),
		logger:   logging.NewNop(),
		narrator: DefaultNarrator,
		grace:    DefaultGracePeriod,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Start begins a dialogue in a room. A room already running one rejects the
// request with a log line; loading or validation failures are reported to the
// room as an error notice and leave no state behind.
func (m *Manager) Start(ctx context.Context, room, dialogueID string) {
	s := m.session(room)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		m.logger.Info("ignoring start, dialogue already active",
			"room", room, "dialogue", s.dialogueID)
		return
	}

	g, err := m.store.Load(ctx, dialogueID)
	if err != nil {
		m.logger.Error("loading dialogue graph", "room", room, "dialogue", dialogueID, "error", err)
		m.cast.Event(room, Event{Type: EventError, DialogueID: dialogueID, Message: err.Error()})
		return
	}
	if err := validator.Validate(g); err != nil {
		m.logger.Error("dialogue graph failed validation",
			"room", room, "dialogue", dialogueID, "error", err)
		m.cast.Event(room, Event{Type: EventError, DialogueID: dialogueID, Message: err.Error()})
		return
	}

	s.begin(dialogueID, g)
	m.cast.Event(room, Event{Type: EventStarted, DialogueID: dialogueID})
	m.metrics.DialogueStarted(dialogueID)
	s.process(nil, 0)
}

// Choose applies a player's choice to the room's dialogue. Unknown choices
// and rooms without an active dialogue are ignored beyond a log line.
func (m *Manager) Choose(room, choiceID, username string) {
	s := m.lookup(room)
	if s == nil {
		m.logger.Info("ignoring choice, no dialogue state", "room", room, "choice", choiceID)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		m.logger.Info("ignoring choice, dialogue not active", "room", room, "choice", choiceID)
		return
	}
	s.choose(choiceID, username)
}

// Restart rewinds the room's dialogue to its start node. No-op when nothing
// is running.
func (m *Manager) Restart(room string) {
	s := m.lookup(room)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.restart()
}

// EndManual force-ends the room's dialogue. No-op when nothing is running.
func (m *Manager) EndManual(room string) {
	s := m.lookup(room)
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.end("ended manually")
}

// Status describes a room's dialogue state.
type Status struct {
	Active      bool   `json:"active"`
	DialogueID  string `json:"dialogueId,omitempty"`
	CurrentNode string `json:"currentNode,omitempty"`
}

// Status reports whether a dialogue is running in the room and where it is.
func (m *Manager) Status(room string) Status {
	s := m.lookup(room)
	if s == nil {
		return Status{}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return Status{}
	}
	return Status{Active: true, DialogueID: s.dialogueID, CurrentNode: s.currentNode}
}

// HostDeparted defers a departure notice for the named participant until the
// room's dialogue ends, so the scene is not broken mid-run. It reports
// whether the notice was deferred; when false the caller announces it now.
func (m *Manager) HostDeparted(room, username string) bool {
	s := m.lookup(room)
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return false
	}
	s.departedHost = username
	return true
}

// session returns the room's session, creating idle state if none exists.
func (m *Manager) session(room string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[room]
	if !ok {
		s = newSession(m, room)
		m.sessions[room] = s
	}
	return s
}

// lookup returns the room's session without creating one.
func (m *Manager) lookup(room string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessions[room]
}

// cleanup removes an ended session after the grace period, unless a newer run
// has claimed the room in the meantime.
func (m *Manager) cleanup(room string, s *Session, gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions[room] != s {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active || s.gen != gen {
		return
	}
	delete(m.sessions, room)
}
