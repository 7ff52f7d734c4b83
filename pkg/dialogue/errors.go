package dialogue

import (
	"errors"
	"fmt"
)

// ErrNoDialogue is returned when a request targets a room with no active run.
var ErrNoDialogue = errors.New("no active dialogue")

// ErrAlreadyActive is returned when a start request hits a room that is
// already running a dialogue.
var ErrAlreadyActive = errors.New("dialogue already active")

// GraphError is a validation failure, naming the offending node and target.
type GraphError struct {
	NodeID string
	Target string
	Reason string
}

func (e *GraphError) Error() string {
	if e.NodeID == "" {
		return e.Reason
	}
	if e.Target == "" {
		return fmt.Sprintf("node %q: %s", e.NodeID, e.Reason)
	}
	return fmt.Sprintf("node %q: %s (target %q)", e.NodeID, e.Reason, e.Target)
}
