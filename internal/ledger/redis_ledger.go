package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"careerpilot/internal/models"
)

// hashClient is the subset of *redis.Client the ledger needs.
type hashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// RedisLedger stores one hash per session: field = normalized URL, value = JSON row.
type RedisLedger struct {
	client hashClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisLedger initializes a Redis-backed Ledger.
func NewRedisLedger(addr, prefix string, ttl time.Duration) *RedisLedger {
	return NewRedisLedgerWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix, ttl)
}

// NewRedisLedgerWithClient builds a ledger on an existing client (tests).
func NewRedisLedgerWithClient(client hashClient, prefix string, ttl time.Duration) *RedisLedger {
	return &RedisLedger{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Close closes the Redis client.
func (l *RedisLedger) Close() error {
	return l.client.Close()
}

func (l *RedisLedger) IsDuplicate(ctx context.Context, sessionID, url string) (bool, error) {
	row, ok, err := l.Lookup(ctx, sessionID, url)
	if err != nil || !ok {
		return false, err
	}
	return IsDuplicateRow(row), nil
}

func (l *RedisLedger) Lookup(ctx context.Context, sessionID, url string) (models.SubmittedLink, bool, error) {
	val, err := l.client.HGet(ctx, l.prefix+sessionID, Normalize(url)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.SubmittedLink{}, false, nil
		}
		return models.SubmittedLink{}, false, err
	}
	var row models.SubmittedLink
	if err := json.Unmarshal([]byte(val), &row); err != nil {
		return models.SubmittedLink{}, false, err
	}
	return row, true, nil
}

func (l *RedisLedger) MarkProcessing(ctx context.Context, sessionID, url string) error {
	return l.put(ctx, sessionID, ProcessingRow(url, l.now()))
}

func (l *RedisLedger) MarkTerminal(ctx context.Context, sessionID, url string, outcome models.Outcome) error {
	return l.put(ctx, sessionID, TerminalRow(url, outcome, l.now()))
}

func (l *RedisLedger) Snapshot(ctx context.Context, sessionID string) ([]models.SubmittedLink, error) {
	vals, err := l.client.HGetAll(ctx, l.prefix+sessionID).Result()
	if err != nil {
		return nil, err
	}
	rows := make([]models.SubmittedLink, 0, len(vals))
	for _, val := range vals {
		var row models.SubmittedLink
		if err := json.Unmarshal([]byte(val), &row); err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	sortRows(rows)
	return rows, nil
}

func (l *RedisLedger) put(ctx context.Context, sessionID string, row models.SubmittedLink) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return err
	}
	key := l.prefix + sessionID
	if err := l.client.HSet(ctx, key, row.NormalizedURL, payload).Err(); err != nil {
		return err
	}
	if l.ttl > 0 {
		return l.client.Expire(ctx, key, l.ttl).Err()
	}
	return nil
}
