package runtime

import (
	"fmt"
	"sync"
	"time"

	"github.com/nvale/parley/pkg/dialogue"
)

// maxProcessDepth caps redirect/auto-advance chains within one entry into the
// graph. Exceeding it almost always means a condition loop in the authoring.
const maxProcessDepth = 50

// choiceEcho carries a taken choice's chat echo into node processing.
type choiceEcho struct {
	username string
	text     string
	spoken   bool
}

// Session is the runtime state of one room's dialogue. All handlers run under
// the session mutex, so a room's state never sees two mutations interleave;
// scheduled callbacks re-acquire it and re-check liveness before acting.
type Session struct {
	room string

	mu          sync.Mutex
	active      bool
	gen         uint64 // bumped on restart/end; stale callbacks compare and bail
	dialogueID  string
	graph       *dialogue.Graph
	currentNode string
	variables   map[string]any
	dataSynced  bool
	pending     []CancelFunc

	// departedHost defers the host's leave notice until the scene is over.
	departedHost string

	m *Manager
}

func newSession(m *Manager, room string) *Session {
	return &Session{room: room, m: m}
}

// begin seeds a fresh run. Caller holds s.mu.
func (s *Session) begin(dialogueID string, g *dialogue.Graph) {
	s.cancelPending()
	s.gen++
	s.active = true
	s.dialogueID = dialogueID
	s.graph = g
	s.currentNode = g.Metadata.StartNode
	s.variables = g.SeedVariables()
	s.dataSynced = false
}

// process walks the graph from currentNode until it has to wait: for a timer,
// for a player choice, or because the run ended. A work list with a depth
// counter stands in for recursion so a condition cycle cannot blow the stack.
func (s *Session) process(echo *choiceEcho, depth int) {
	for {
		depth++
		if depth > maxProcessDepth {
			s.m.logger.Warn("node processing depth exceeded, likely cyclic condition",
				"room", s.room, "node", s.currentNode)
			return
		}

		// Re-entering the start node rewinds the run's variables.
		if s.currentNode == s.graph.Metadata.StartNode {
			s.variables = s.graph.SeedVariables()
		}

		node := s.graph.Nodes[s.currentNode]
		if node == nil {
			s.m.logger.Warn("current node missing from graph",
				"room", s.room, "node", s.currentNode)
			return
		}

		if target, ok := s.redirectTarget(node); ok {
			s.currentNode = target
			continue
		}

		if echo != nil && echo.spoken {
			s.broadcastMessage(ChatMessage{
				Type:   MessageChat,
				Sender: echo.username,
				Text:   echo.text,
			})
		}
		afterChoice := echo != nil
		echo = nil

		if len(node.MessageSequence) > 0 {
			s.runSequence(node, afterChoice, depth)
			return
		}

		// Degenerate node without a sequence: sync, end, or fall through.
		if len(node.Choices) > 0 {
			s.broadcastSync(node)
			return
		}
		if node.IsEnding() {
			s.end("completed")
			return
		}
		if node.NextNode != "" {
			s.currentNode = node.NextNode
			continue
		}
		s.m.logger.Warn("node has no messages, choices or next node; dialogue stalls",
			"room", s.room, "node", node.ID)
		return
	}
}

// redirectTarget evaluates the node's conditions in declared order and
// returns the first satisfied redirect.
func (s *Session) redirectTarget(node *dialogue.Node) (string, bool) {
	for i := range node.Conditions {
		if node.Conditions[i].Evaluate(s.variables) {
			return node.Conditions[i].NextNode, true
		}
	}
	return "", false
}

// runSequence starts the node's timed message delivery. The first message
// fires immediately unless the sequence follows a player choice, in which
// case its own pacing delay is inserted up front.
func (s *Session) runSequence(node *dialogue.Node, afterChoice bool, depth int) {
	first := time.Duration(0)
	if afterChoice {
		first = s.m.calc.Delay(node.MessageSequence[0])
	}
	s.scheduleMessage(node, 0, first, depth)
}

// scheduleMessage delivers message i after d, then chains the next message
// from inside the callback. Chaining keeps a sequence in authored order even
// when every delay is zero; independent timers would race on the mutex.
func (s *Session) scheduleMessage(node *dialogue.Node, i int, d time.Duration, depth int) {
	s.schedule(d, func() {
		msg := node.MessageSequence[i]
		s.deliver(msg)
		if i+1 < len(node.MessageSequence) {
			s.scheduleMessage(node, i+1, s.m.calc.Delay(msg), depth)
			return
		}
		s.afterSequence(node, depth)
	})
}

// afterSequence runs inside the final message callback: either wait for a
// choice, or schedule the auto-advance that ends the run or moves it along.
func (s *Session) afterSequence(node *dialogue.Node, depth int) {
	if len(node.Choices) > 0 {
		s.broadcastSync(node)
		return
	}
	s.schedule(s.m.calc.AdvanceDelay(), func() {
		if node.IsEnding() {
			s.end("completed")
			return
		}
		if node.NextNode == "" {
			s.m.logger.Warn("auto-advancing node has no next node",
				"room", s.room, "node", node.ID)
			return
		}
		s.currentNode = node.NextNode
		s.process(nil, depth)
	})
}

// deliver broadcasts one message of a sequence. Pauses only pace; they carry
// no content.
func (s *Session) deliver(msg dialogue.Message) {
	switch msg.Type {
	case dialogue.MessagePause:
		return
	case dialogue.MessageNarrator:
		s.broadcastMessage(ChatMessage{
			Type:   dialogue.MessageNarrator,
			Sender: s.m.narrator,
			Text:   msg.Content,
		})
	case dialogue.MessageSystem:
		s.broadcastMessage(ChatMessage{
			Type:    dialogue.MessageSystem,
			Sender:  s.m.narrator,
			Text:    msg.Content,
			Speaker: msg.Speaker,
		})
	case dialogue.MessageImage:
		s.broadcastMessage(ChatMessage{
			Type:   dialogue.MessageImage,
			Sender: s.m.narrator,
			URL:    msg.URL,
			Alt:    msg.Alt,
		})
	default:
		s.m.logger.Warn("unknown message type in sequence",
			"room", s.room, "node", s.currentNode, "messageType", msg.Type)
	}
}

func (s *Session) broadcastMessage(msg ChatMessage) {
	msg.Timestamp = time.Now()
	s.m.cast.Message(s.room, msg)
	s.m.metrics.MessageSent(msg.Type)
}

// broadcastSync publishes the choice-wait snapshot. The full graph rides along
// only until the first snapshot of a run has been sent.
func (s *Session) broadcastSync(node *dialogue.Node) {
	snap := Snapshot{
		Active:      true,
		DialogueID:  s.dialogueID,
		CurrentNode: s.currentNode,
		Variables:   copyVariables(s.variables),
		NodeData:    node,
	}
	if !s.dataSynced {
		snap.DialogueData = s.graph
		s.dataSynced = true
	}
	s.m.cast.Sync(s.room, snap)
}

// choose applies a player's choice. Caller holds s.mu.
func (s *Session) choose(choiceID, username string) {
	node := s.graph.Nodes[s.currentNode]
	if node == nil {
		return
	}
	choice := node.FindChoice(choiceID)
	if choice == nil {
		s.m.logger.Info("ignoring unknown choice",
			"room", s.room, "node", s.currentNode, "choice", choiceID)
		return
	}
	if !choice.Conditions.Evaluate(s.variables) {
		s.m.logger.Info("ignoring choice with unmet condition",
			"room", s.room, "node", s.currentNode, "choice", choiceID)
		return
	}

	dialogue.ApplyEffects(s.variables, choice.Effects)
	s.currentNode = choice.NextNode
	s.m.metrics.ChoiceMade()

	next := s.graph.Nodes[s.currentNode]
	s.m.cast.Event(s.room, Event{
		Type:     EventChoiceMade,
		NodeID:   s.currentNode,
		IsEnding: next != nil && next.IsEnding(),
	})

	echo := &choiceEcho{username: username}
	echo.text, echo.spoken = choice.EchoText()
	s.process(echo, 0)
}

// restart rewinds the run to the start node. Caller holds s.mu.
func (s *Session) restart() {
	s.cancelPending()
	s.gen++
	s.currentNode = s.graph.Metadata.StartNode
	s.variables = s.graph.SeedVariables()
	s.dataSynced = false
	s.m.cast.Event(s.room, Event{Type: EventRestart, DialogueID: s.dialogueID})
	s.process(nil, 0)
}

// end finishes the run and schedules the state for deletion after the grace
// period, unless a new start claims the room first. Caller holds s.mu.
func (s *Session) end(reason string) {
	s.cancelPending()
	s.active = false
	s.gen++
	s.variables = s.graph.SeedVariables()
	s.m.cast.Event(s.room, Event{Type: EventEnd, DialogueID: s.dialogueID, Reason: reason})
	s.m.metrics.DialogueEnded(reason)

	// A host departure held back during the scene surfaces now.
	if s.departedHost != "" {
		s.broadcastMessage(ChatMessage{
			Type:   dialogue.MessageSystem,
			Sender: s.departedHost,
			Text:   fmt.Sprintf("%s has left the room", s.departedHost),
		})
		s.departedHost = ""
	}

	gen := s.gen
	s.m.sched.AfterFunc(s.m.grace, func() {
		s.m.cleanup(s.room, s, gen)
	})
}

// schedule registers a callback that runs under the session mutex, skipping
// itself if the run it belongs to has been cancelled or superseded.
func (s *Session) schedule(d time.Duration, fn func()) {
	gen := s.gen
	cancel := s.m.sched.AfterFunc(d, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.active || s.gen != gen {
			return
		}
		fn()
	})
	s.pending = append(s.pending, cancel)
}

func (s *Session) cancelPending() {
	for _, cancel := range s.pending {
		cancel()
	}
	s.pending = nil
}

func copyVariables(vars map[string]any) map[string]any {
	out := make(map[string]any, len(vars))
	for k, v := range vars {
		out[k] = v
	}
	return out
}
