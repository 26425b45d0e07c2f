package cache

import (
	"context"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryResultStore(t *testing.T) {
	s := NewMemoryResultStore()
	ctx := context.Background()

	_, ok, err := s.Load(ctx, "b1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, &dto.BatchResultResponse{BatchID: "b1", Successful: 3}, time.Hour))
	require.NoError(t, s.Save(ctx, nil, time.Hour))

	got, ok, err := s.Load(ctx, "b1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, got.Successful)
}

func TestLocalBatchLocker(t *testing.T) {
	l := NewLocalBatchLocker()
	ctx := context.Background()

	ok, err := l.Acquire(ctx, "b1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, _ = l.Acquire(ctx, "b1", time.Minute)
	assert.False(t, ok, "second acquire of a held batch must fail")

	ok, _ = l.Acquire(ctx, "b2", time.Minute)
	assert.True(t, ok, "locks are per batch id")

	require.NoError(t, l.Release(ctx, "b1"))
	ok, _ = l.Acquire(ctx, "b1", time.Minute)
	assert.True(t, ok)
}

func TestNoopClientMetricsCache(t *testing.T) {
	var c ClientMetricsCache = NoopClientMetricsCache{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &dto.ClientMetricsResponse{ClientID: 1}, time.Minute))
	_, ok, err := c.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, c.Invalidate(ctx, 1))
}
