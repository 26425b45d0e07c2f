package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	clientMetricsKeyPrefix = "client:metrics:"
	importResultKeyPrefix  = "import:result:"
	importLockKeyPrefix    = "import:lock:"
)

// ── Client metrics ───────────────────────────────────────────────────────────

type RedisClientMetricsCache struct {
	client *redis.Client
}

func NewRedisClientMetricsCache(client *redis.Client) *RedisClientMetricsCache {
	return &RedisClientMetricsCache{client: client}
}

func clientMetricsKey(id int64) string { return fmt.Sprintf("%s%d", clientMetricsKeyPrefix, id) }

func (c *RedisClientMetricsCache) Get(ctx context.Context, clientID int64) (*dto.ClientMetricsResponse, bool, error) {
	val, err := c.client.Get(ctx, clientMetricsKey(clientID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var resp dto.ClientMetricsResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		return nil, false, err
	}
	return &resp, true, nil
}

func (c *RedisClientMetricsCache) Set(ctx context.Context, value *dto.ClientMetricsResponse, ttl time.Duration) error {
	if value == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, clientMetricsKey(value.ClientID), payload, ttl).Err()
}

func (c *RedisClientMetricsCache) Invalidate(ctx context.Context, clientID int64) error {
	return c.client.Del(ctx, clientMetricsKey(clientID)).Err()
}

// ── Batch results ────────────────────────────────────────────────────────────

type RedisResultStore struct {
	client *redis.Client
}

func NewRedisResultStore(client *redis.Client) *RedisResultStore {
	return &RedisResultStore{client: client}
}

func (s *RedisResultStore) Save(ctx context.Context, result *dto.BatchResultResponse, ttl time.Duration) error {
	if result == nil {
		return nil
	}
	payload, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, importResultKeyPrefix+result.BatchID, payload, ttl).Err()
}

func (s *RedisResultStore) Load(ctx context.Context, batchID string) (*dto.BatchResultResponse, bool, error) {
	val, err := s.client.Get(ctx, importResultKeyPrefix+batchID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var result dto.BatchResultResponse
	if err := json.Unmarshal(val, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

// ── Batch lock ───────────────────────────────────────────────────────────────

// releaseScript deletes the lock only if this process still owns it, so an
// expired-then-reacquired lock is never released by the previous holder.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisBatchLocker struct {
	client *redis.Client
	owner  string
}

func NewRedisBatchLocker(client *redis.Client) *RedisBatchLocker {
	return &RedisBatchLocker{client: client, owner: uuid.NewString()}
}

func (l *RedisBatchLocker) Acquire(ctx context.Context, batchID string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, importLockKeyPrefix+batchID, l.owner, ttl).Result()
}

func (l *RedisBatchLocker) Release(ctx context.Context, batchID string) error {
	return releaseScript.Run(ctx, l.client, []string{importLockKeyPrefix + batchID}, l.owner).Err()
}
