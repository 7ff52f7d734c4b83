package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/nvale/parley/pkg/dialogue"
)

const redisKeyPrefix = "parley:graph:"

// RedisStore serves graphs from a redis instance, for deployments where the
// graph library is published separately from the chat server.
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore connects a store to the given redis address.
func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{client: redis.NewClient(&redis.Options{Addr: addr})}
}

// NewRedisStoreFromClient wraps an existing client, mainly for tests.
func NewRedisStoreFromClient(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// Put stores a serialized graph under the dialogue id.
func (s *RedisStore) Put(ctx context.Context, dialogueID string, raw []byte) error {
	if err := s.client.Set(ctx, redisKeyPrefix+dialogueID, raw, 0).Err(); err != nil {
		return fmt.Errorf("store graph %s: %w", dialogueID, err)
	}
	return nil
}

// Load fetches and decodes one graph.
func (s *RedisStore) Load(ctx context.Context, dialogueID string) (*dialogue.Graph, error) {
	raw, err := s.client.Get(ctx, redisKeyPrefix+dialogueID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrGraphNotFound, dialogueID)
		}
		return nil, fmt.Errorf("load graph %s: %w", dialogueID, err)
	}
	return decode(dialogueID, raw)
}

// List scans for stored dialogue ids.
func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var (
		ids    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("list graphs: %w", err)
		}
		for _, key := range keys {
			ids = append(ids, strings.TrimPrefix(key, redisKeyPrefix))
		}
		if next == 0 {
			return ids, nil
		}
		cursor = next
	}
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
