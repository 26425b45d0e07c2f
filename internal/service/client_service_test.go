package service

import (
	"context"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapMetricsCache is an in-memory ClientMetricsCache that counts hits.
type mapMetricsCache struct {
	entries map[int64]*dto.ClientMetricsResponse
	hits    int
}

func newMapMetricsCache() *mapMetricsCache {
	return &mapMetricsCache{entries: make(map[int64]*dto.ClientMetricsResponse)}
}

func (c *mapMetricsCache) Get(_ context.Context, id int64) (*dto.ClientMetricsResponse, bool, error) {
	v, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return v, ok, nil
}

func (c *mapMetricsCache) Set(_ context.Context, v *dto.ClientMetricsResponse, _ time.Duration) error {
	c.entries[v.ClientID] = v
	return nil
}

func (c *mapMetricsCache) Invalidate(_ context.Context, id int64) error {
	delete(c.entries, id)
	return nil
}

var _ cache.ClientMetricsCache = (*mapMetricsCache)(nil)

func TestGetMetrics_CachedAndInvalidatedOnCommit(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "", model.ItemStatusInStock)
	client := m.addClient("C-1001", "Amelia Hart", "amelia@example.com")
	metrics := newMapMetricsCache()
	clientRepo := &stubClientRepo{m}
	svc := NewClientService(clientRepo, metrics, time.Minute)
	txSvc := NewTransactionService(&stubTxRepo{m}, &stubInventoryRepo{m}, clientRepo, &stubActivityRepo{m}, metrics)
	ctx := context.Background()

	got, err := svc.GetMetrics(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.TotalPurchases)

	_, err = svc.GetMetrics(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, metrics.hits)

	_, err = txSvc.Commit(ctx, priced(item, client.ID, model.TxTypeSale, "9999.95"))
	require.NoError(t, err)

	got, err = svc.GetMetrics(ctx, client.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.TotalPurchases, "commit must invalidate the cached entry")
	assert.Equal(t, "9999.95", got.TotalSpend.StringFixed(2))
}

func TestGetMetrics_UnknownClient(t *testing.T) {
	svc := NewClientService(&stubClientRepo{newMemStore()}, nil, time.Minute)
	_, err := svc.GetMetrics(context.Background(), 12345)
	assert.ErrorIs(t, err, ErrClientNotFound)
}

func TestActivityList(t *testing.T) {
	m := newMemStore()
	item := m.addItem("RLX-0001", "5000.00", "", model.ItemStatusInStock)
	client := m.addClient("C-1001", "Amelia Hart", "amelia@example.com")
	e := newTestEngine(m, testOpts)
	ctx := context.Background()

	pc := priced(item, client.ID, model.TxTypeSale, "9999.95")
	pc.BatchID = "b-1"
	id, err := e.txs.Commit(ctx, pc)
	require.NoError(t, err)

	list, err := NewActivityService(&stubActivityRepo{m}).List(ctx, dto.ActivityFilter{BatchID: "b-1", Page: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, list.Data, 1)
	assert.Equal(t, ActionTransactionCreated, list.Data[0].Action)
	assert.Equal(t, id, list.Data[0].EntityID)
	assert.Equal(t, "clerk", list.Data[0].Actor)
	assert.Contains(t, list.Data[0].Description, "RLX-0001")
}
