package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"careerpilot/internal/models"
)

const processingSuffix = ":processing"

// kvClient is the subset of *redis.Client the store needs.
type kvClient interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// RedisSessionStore stores session state in Redis.
type RedisSessionStore struct {
	client kvClient
	prefix string
	ttl    time.Duration
}

// NewRedisSessionStore initializes a Redis-backed SessionStore.
func NewRedisSessionStore(addr, prefix string, ttl time.Duration) *RedisSessionStore {
	return NewRedisSessionStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

// NewRedisSessionStoreWithClient builds a store on an existing client (tests).
func NewRedisSessionStoreWithClient(client kvClient, prefix string, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Close closes the Redis client.
func (s *RedisSessionStore) Close() error {
	return s.client.Close()
}

// SetState writes the state record and mirrors its processing flag.
func (s *RedisSessionStore) SetState(ctx context.Context, state models.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+state.SessionID, payload, s.ttl).Err(); err != nil {
		return err
	}
	return s.SetProcessingFlag(ctx, state.SessionID, state.IsProcessing)
}

// SetProcessingFlag writes the flag on its own key so the guard can be flipped
// without rewriting the whole record.
func (s *RedisSessionStore) SetProcessingFlag(ctx context.Context, sessionID string, processing bool) error {
	value := "0"
	if processing {
		value = "1"
	}
	return s.client.Set(ctx, s.prefix+sessionID+processingSuffix, value, s.ttl).Err()
}

// GetState reads the state record from Redis. The separate processing flag,
// when present, overrides the flag inside the record.
func (s *RedisSessionStore) GetState(ctx context.Context, sessionID string) (models.SessionState, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SessionState{}, false, nil
		}
		return models.SessionState{}, false, err
	}

	var state models.SessionState
	if err := json.Unmarshal([]byte(val), &state); err != nil {
		return models.SessionState{}, false, err
	}

	flag, err := s.client.Get(ctx, s.prefix+sessionID+processingSuffix).Result()
	switch {
	case err == nil:
		state.IsProcessing = flag == "1"
	case !errors.Is(err, redis.Nil):
		return models.SessionState{}, false, err
	}

	return state, true, nil
}
