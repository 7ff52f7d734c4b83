package server

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/nvale/parley/internal/metrics"
	"github.com/nvale/parley/internal/runtime"
)

// envelope frames every websocket message in both directions.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// chatPayload is a relayed player chat line.
type chatPayload struct {
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Hub tracks connected clients per room and fans broadcasts out to them.
// It is the runtime's broadcast collaborator.
type Hub struct {
	logger  *slog.Logger
	metrics *metrics.Metrics
	host    string

	// dialogues is set after construction; the hub and the dialogue manager
	// reference each other.
	dialogues *runtime.Manager

	mu    sync.Mutex
	rooms map[string]map[*client]struct{}
}

func newHub(logger *slog.Logger, mx *metrics.Metrics, host string) *Hub {
	return &Hub{
		logger:  logger,
		metrics: mx,
		host:    host,
		rooms:   make(map[string]map[*client]struct{}),
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	clients, ok := h.rooms[c.room]
	if !ok {
		clients = make(map[*client]struct{})
		h.rooms[c.room] = clients
	}
	clients[c] = struct{}{}
	h.mu.Unlock()
	h.metrics.ClientConnected()
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	if clients, ok := h.rooms[c.room]; ok {
		if _, present := clients[c]; present {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, c.room)
			}
			h.metrics.ClientDisconnected()
		}
	}
	h.mu.Unlock()

	if c.username == "" {
		return
	}
	// The host leaving mid-scene would spoil it; the runtime holds the
	// notice until the dialogue ends.
	if c.username == h.host && h.dialogues.HostDeparted(c.room, c.username) {
		h.logger.Info("deferring host departure notice", "room", c.room, "user", c.username)
		return
	}
	h.broadcast(c.room, envelope{Type: "user-left", Payload: c.username})
}

// evict drops one stalled client: removed from its room under the hub mutex
// first, so no concurrent broadcast can hit the closed send channel.
func (h *Hub) evict(c *client) {
	h.mu.Lock()
	if clients, ok := h.rooms[c.room]; ok {
		if _, present := clients[c]; present {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, c.room)
			}
			h.metrics.ClientDisconnected()
		}
	}
	h.mu.Unlock()

	h.logger.Warn("dropping stalled client", "room", c.room, "user", c.username)
	c.close()
}

// broadcast sends one envelope to every client in the room. Slow clients are
// dropped rather than allowed to stall the room.
func (h *Hub) broadcast(room string, env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		h.logger.Error("marshaling broadcast", "room", room, "type", env.Type, "error", err)
		return
	}

	h.mu.Lock()
	var stalled []*client
	clients := h.rooms[room]
	for c := range clients {
		select {
		case c.send <- data:
		default:
			// Remove before closing so no later broadcast hits a closed
			// channel.
			delete(clients, c)
			stalled = append(stalled, c)
		}
	}
	if len(clients) == 0 {
		delete(h.rooms, room)
	}
	h.mu.Unlock()

	for _, c := range stalled {
		h.logger.Warn("dropping stalled client", "room", room, "user", c.username)
		h.metrics.ClientDisconnected()
		c.close()
	}
}

// Message delivers one runtime content message to the room.
func (h *Hub) Message(room string, msg runtime.ChatMessage) {
	h.broadcast(room, envelope{Type: "dialogue-message", Payload: msg})
}

// Sync delivers a runtime synchronization snapshot to the room.
func (h *Hub) Sync(room string, snap runtime.Snapshot) {
	h.broadcast(room, envelope{Type: "dialogue-sync", Payload: snap})
}

// Event delivers a runtime lifecycle or monitoring notice to the room.
func (h *Hub) Event(room string, ev runtime.Event) {
	h.broadcast(room, envelope{Type: ev.Type, Payload: ev})
}
