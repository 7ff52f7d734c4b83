// Package store defines how the runtime retrieves compiled dialogue graphs.
// Adapters decouple the graph library backend (filesystem, memory, redis)
// from the engine.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nvale/parley/pkg/dialogue"
)

// ErrGraphNotFound is returned when a dialogue id has no compiled graph.
var ErrGraphNotFound = errors.New("dialogue graph not found")

// GraphStore loads compiled dialogue graphs by id.
//
// Load must return a fresh graph on every call: each run owns its copy and
// two rooms running the same dialogue id must never share one.
type GraphStore interface {
	Load(ctx context.Context, dialogueID string) (*dialogue.Graph, error)

	// List returns the ids of every available dialogue.
	List(ctx context.Context) ([]string, error)
}

// decode unmarshals a raw graph document, naming the dialogue on failure.
func decode(dialogueID string, raw []byte) (*dialogue.Graph, error) {
	var g dialogue.Graph
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, fmt.Errorf("decode graph %s: %w", dialogueID, err)
	}
	return &g, nil
}
