//go:build integration

package cache

// Run with: go test -tags integration ./internal/cache/...

import (
	"context"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	opts, err := redis.ParseURL(url)
	require.NoError(t, err)

	rdb := redis.NewClient(opts)
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestRedisCaches(t *testing.T) {
	rdb := newRedis(t)
	ctx := context.Background()

	t.Run("client metrics", func(t *testing.T) {
		c := NewRedisClientMetricsCache(rdb)
		_, ok, err := c.Get(ctx, 7)
		require.NoError(t, err)
		assert.False(t, ok)

		require.NoError(t, c.Set(ctx, &dto.ClientMetricsResponse{
			ClientID: 7, FullName: "Amelia Hart", TotalPurchases: 2,
			TotalSpend: decimal.RequireFromString("16449.95"),
		}, time.Minute))

		got, ok, err := c.Get(ctx, 7)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "16449.95", got.TotalSpend.StringFixed(2))

		require.NoError(t, c.Invalidate(ctx, 7))
		_, ok, _ = c.Get(ctx, 7)
		assert.False(t, ok)
	})

	t.Run("results", func(t *testing.T) {
		s := NewRedisResultStore(rdb)
		require.NoError(t, s.Save(ctx, &dto.BatchResultResponse{BatchID: "b1", TransactionIDs: []int64{1, 2}}, time.Minute))

		got, ok, err := s.Load(ctx, "b1")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, []int64{1, 2}, got.TransactionIDs)

		ttl, err := rdb.TTL(ctx, importResultKeyPrefix+"b1").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("batch lock", func(t *testing.T) {
		a := NewRedisBatchLocker(rdb)
		b := NewRedisBatchLocker(rdb)

		ok, err := a.Acquire(ctx, "b1", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = b.Acquire(ctx, "b1", time.Minute)
		require.NoError(t, err)
		assert.False(t, ok)

		// only the owner can release
		require.NoError(t, b.Release(ctx, "b1"))
		ok, _ = b.Acquire(ctx, "b1", time.Minute)
		assert.False(t, ok)

		require.NoError(t, a.Release(ctx, "b1"))
		ok, _ = b.Acquire(ctx, "b1", time.Minute)
		assert.True(t, ok)
	})
}
