package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvale/parley/pkg/dialogue"
)

func sampleGraph() *dialogue.Graph {
	return &dialogue.Graph{
		Metadata:  dialogue.Metadata{Title: "Episode One", Version: "1.0.0", StartNode: "intro"},
		Variables: map[string]any{"clicks": float64(0)},
		Nodes: map[string]*dialogue.Node{
			"intro": {ID: "intro", Type: dialogue.NodeEnding},
		},
	}
}

// runContract exercises the behavior every GraphStore must share.
func runContract(t *testing.T, s GraphStore) {
	t.Helper()
	ctx := context.Background()

	g, err := s.Load(ctx, "episode1")
	require.NoError(t, err)
	assert.Equal(t, "Episode One", g.Metadata.Title)
	require.Contains(t, g.Nodes, "intro")

	// Each load is an independent copy.
	other, err := s.Load(ctx, "episode1")
	require.NoError(t, err)
	other.Variables["clicks"] = float64(99)
	reloaded, err := s.Load(ctx, "episode1")
	require.NoError(t, err)
	assert.Equal(t, float64(0), reloaded.Variables["clicks"])

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, ErrGraphNotFound)

	ids, err := s.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"episode1"}, ids)
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put("episode1", sampleGraph()))
	runContract(t, s)
}

func TestFileStore(t *testing.T) {
	dir := t.TempDir()
	raw, err := json.Marshal(sampleGraph())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "episode1.json"), raw, 0o644))
	// Non-graph files are ignored by List.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	runContract(t, NewFileStore(dir))
}

func TestFileStore_CorruptGraph(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644))

	_, err := NewFileStore(dir).Load(context.Background(), "bad")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode graph")
}

func TestRedisStore(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreFromClient(client)

	raw, err := json.Marshal(sampleGraph())
	require.NoError(t, err)
	require.NoError(t, s.Put(context.Background(), "episode1", raw))

	runContract(t, s)
}
