package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nvale/parley/pkg/dialogue"
)

// FileStore serves graphs from a directory of <dialogueID>.json files.
type FileStore struct {
	dir string
}

// NewFileStore creates a store over the given directory.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Load reads and decodes one graph file. Every call re-reads from disk, so
// callers always get an independent copy.
func (s *FileStore) Load(ctx context.Context, dialogueID string) (*dialogue.Graph, error) {
	path := filepath.Join(s.dir, dialogueID+".json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, dialogueID)
		}
		return nil, fmt.Errorf("read graph %s: %w", dialogueID, err)
	}
	return decode(dialogueID, raw)
}

// List returns the dialogue ids present in the directory.
func (s *FileStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list graphs: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}
