package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	domain "github.com/dmfarley/bidwatch/pkg/types"
)

// RedisStore keeps the whole document under a single key. Same
// whole-document semantics as the other backends; Redis is attractive
// when the bot runs somewhere without a writable disk.
//
// TODO(test): needs live Redis, covered by the integration tests.
type RedisStore struct {
	client *redis.Client
	key    string
	mu     sync.Mutex
}

// NewRedisStore connects and pings the Redis server.
func NewRedisStore(ctx context.Context, addr, password string, db int, key string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	return &RedisStore{client: client, key: key}, nil
}

// Load reads the document key. A missing key or unparseable value yields
// an empty document.
func (s *RedisStore) Load(ctx context.Context) (Document, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Document{}, nil
		}
		return nil, fmt.Errorf("loading listing document: %w", err)
	}

	doc := Document{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, nil
	}
	return doc, nil
}

// Save replaces the document key.
func (s *RedisStore) Save(ctx context.Context, doc Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding listing document: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("saving listing document: %w", err)
	}
	return nil
}

// UpdateRecord applies mutate to one record under the store mutex.
func (s *RedisStore) UpdateRecord(
	ctx context.Context,
	channelID string,
	mutate func(*domain.ListingRecord) error,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if err := applyMutation(doc, channelID, mutate); err != nil {
		return err
	}
	return s.Save(ctx, doc)
}

// CreateRecord inserts a new record for a channel not yet tracked.
func (s *RedisStore) CreateRecord(
	ctx context.Context,
	channelID string,
	rec *domain.ListingRecord,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc[channelID]; exists {
		return fmt.Errorf("channel %s already tracks a listing", channelID)
	}
	doc[channelID] = rec
	return s.Save(ctx, doc)
}

// Ping verifies the Redis connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
