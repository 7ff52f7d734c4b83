package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mitchellh/mapstructure"
)

const (
	writeWait      = 10 * time.Second
	sendBufferSize = 64
)

// client is one websocket connection scoped to a room.
type client struct {
	hub  *Hub
	conn *websocket.Conn
	room string

	// username is set by the join request and must match on every chat
	// relay; dialogue messages impersonating another user are dropped.
	username string

	send      chan []byte
	closeOnce sync.Once
}

func newClient(hub *Hub, conn *websocket.Conn, room string) *client {
	return &client{
		hub:  hub,
		conn: conn,
		room: room,
		send: make(chan []byte, sendBufferSize),
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.send)
	})
}

// writePump is the connection's only writer.
func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait))
}

// reply sends one envelope to this client only.
func (c *client) reply(env envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		c.hub.logger.Error("marshaling reply", "type", env.Type, "error", err)
		return
	}
	select {
	case c.send <- data:
	default:
		c.hub.evict(c)
	}
}

// readPump consumes inbound requests until the connection drops.
func (c *client) readPump(ctx context.Context) {
	defer func() {
		c.hub.unregister(c)
		c.close()
	}()

	for {
		var env struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		if err := c.conn.ReadJSON(&env); err != nil {
			return
		}
		c.dispatch(ctx, env.Type, env.Payload)
	}
}

type joinRequest struct {
	Username string `mapstructure:"username"`
}

type chatRequest struct {
	Username string `mapstructure:"username"`
	Text     string `mapstructure:"text"`
}

type startRequest struct {
	DialogueID string `mapstructure:"dialogueId"`
}

type choiceRequest struct {
	ChoiceID   string `mapstructure:"choiceId"`
	Username   string `mapstructure:"username"`
	ChoiceText string `mapstructure:"choiceText"`
}

func (c *client) dispatch(ctx context.Context, msgType string, payload map[string]any) {
	switch msgType {
	case "join":
		var req joinRequest
		if err := mapstructure.Decode(payload, &req); err != nil || req.Username == "" {
			c.hub.logger.Warn("invalid join request", "room", c.room, "error", err)
			return
		}
		c.username = req.Username
		c.hub.logger.Info("user joined", "room", c.room, "user", req.Username)
		c.hub.broadcast(c.room, envelope{Type: "user-joined", Payload: req.Username})

	case "chat":
		var req chatRequest
		if err := mapstructure.Decode(payload, &req); err != nil {
			return
		}
		// Relay only messages whose claimed sender is this connection.
		if req.Text == "" || req.Username == "" || req.Username != c.username {
			c.hub.logger.Warn("dropping chat message", "room", c.room,
				"claimed", req.Username, "actual", c.username)
			return
		}
		c.hub.broadcast(c.room, envelope{Type: "chat", Payload: chatPayload{
			Username:  req.Username,
			Text:      req.Text,
			Timestamp: time.Now(),
		}})

	case "dialogue-start":
		var req startRequest
		if err := mapstructure.Decode(payload, &req); err != nil || req.DialogueID == "" {
			c.hub.logger.Warn("invalid dialogue-start request", "room", c.room, "error", err)
			return
		}
		c.hub.dialogues.Start(ctx, c.room, req.DialogueID)

	case "player-choice":
		var req choiceRequest
		if err := mapstructure.Decode(payload, &req); err != nil {
			return
		}
		c.hub.dialogues.Choose(c.room, req.ChoiceID, req.Username)

	case "dialogue-restart":
		c.hub.dialogues.Restart(c.room)

	case "dialogue-end":
		c.hub.dialogues.EndManual(c.room)

	case "dialogue-status":
		c.reply(envelope{Type: "dialogue-status", Payload: c.hub.dialogues.Status(c.room)})

	default:
		c.hub.logger.Warn("unknown request type", "room", c.room, "type", msgType)
	}
}
