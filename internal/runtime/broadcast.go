package runtime

import (
	"time"

	"github.com/nvale/parley/pkg/dialogue"
)

// Lifecycle and monitoring event types sent to a room.
const (
	EventStarted    = "dialogue-started"
	EventRestart    = "dialogue-restart"
	EventEnd        = "dialogue-end"
	EventError      = "dialogue-error"
	EventChoiceMade = "player-choice-made"
)

// MessageChat tags a player's echoed choice text, alongside the message type
// constants of package dialogue.
const MessageChat = "chat"

// ChatMessage is one content message delivered to a room. Sender is the
// display label: the narrator's name, the speaker, or the player who chose.
type ChatMessage struct {
	Type      string    `json:"type"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text,omitempty"`
	Speaker   string    `json:"speaker,omitempty"`
	URL       string    `json:"url,omitempty"`
	Alt       string    `json:"alt,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Snapshot synchronizes clients with the session: which node awaits a choice
// and the live variable bindings. DialogueData carries the full graph only on
// the first snapshot of a run, so late clients can render past choices.
type Snapshot struct {
	Active       bool            `json:"active"`
	DialogueID   string          `json:"dialogueId"`
	CurrentNode  string          `json:"currentNode"`
	Variables    map[string]any  `json:"variables"`
	NodeData     *dialogue.Node  `json:"nodeData"`
	DialogueData *dialogue.Graph `json:"dialogueData,omitempty"`
}

// Event is a lifecycle or monitoring notice.
type Event struct {
	Type       string `json:"type"`
	DialogueID string `json:"dialogueId,omitempty"`
	Reason     string `json:"reason,omitempty"`
	Message    string `json:"message,omitempty"`
	NodeID     string `json:"nodeId,omitempty"`
	IsEnding   bool   `json:"isEnding,omitempty"`
}

// Broadcaster delivers runtime output to a room. The chat server implements
// it; tests record. Implementations must not call back into the Manager from
// inside these methods.
type Broadcaster interface {
	Message(room string, msg ChatMessage)
	Sync(room string, snap Snapshot)
	Event(room string, ev Event)
}
