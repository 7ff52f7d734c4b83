package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/nvale/parley/pkg/dialogue"
)

// MemoryStore holds serialized graphs in memory. Safe for concurrent use.
// Graphs are kept as raw JSON so every Load decodes a fresh copy.
type MemoryStore struct {
	mu     sync.RWMutex
	graphs map[string][]byte
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{graphs: make(map[string][]byte)}
}

// Put serializes and stores a graph under the given id.
func (s *MemoryStore) Put(dialogueID string, g *dialogue.Graph) error {
	raw, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("marshal graph %s: %w", dialogueID, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graphs[dialogueID] = raw
	return nil
}

// Load decodes a stored graph into an independent copy.
func (s *MemoryStore) Load(ctx context.Context, dialogueID string) (*dialogue.Graph, error) {
	s.mu.RLock()
	raw, ok := s.graphs[dialogueID]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, dialogueID)
	}
	return decode(dialogueID, raw)
}

// List returns the stored dialogue ids in deterministic order.
func (s *MemoryStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.graphs))
	for id := range s.graphs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
