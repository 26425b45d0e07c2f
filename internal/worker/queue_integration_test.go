//go:build integration

package worker

// Run with: go test -tags integration ./internal/worker/...

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
)

type failingHandler struct{ calls int }

func (h *failingHandler) Process(_ context.Context, _ json.RawMessage) error {
	h.calls++
	return errors.New("smtp down")
}

func TestQueue_FailedJobIsDeadLetteredAndReplayed(t *testing.T) {
	ctx := context.Background()
	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	d := NewDispatcher(rdb)
	require.NoError(t, d.EnqueueEmail(ctx, EmailJobPayload{BatchID: "eod-1", ToEmail: "a@example.com", Subject: "report"}))

	raw, err := rdb.RPop(ctx, QueueEmail).Result()
	require.NoError(t, err)

	h := &failingHandler{}
	processJob(ctx, rdb, &WorkerHandlers{Email: h}, QueueEmail, raw)
	assert.Equal(t, 1, h.calls)

	n, err := DLQLength(ctx, rdb, QueueEmail)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	dead, err := rdb.LIndex(ctx, DLQPrefix+QueueEmail, 0).Result()
	require.NoError(t, err)
	var entry DLQEntry
	require.NoError(t, json.Unmarshal([]byte(dead), &entry))
	assert.Equal(t, "eod-1", entry.BatchID)
	assert.Equal(t, "smtp down", entry.Reason)

	cb := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))
	replayEmails(ctx, RetryCronConfig{RDB: rdb, Dispatcher: d, CB: cb})

	n, _ = DLQLength(ctx, rdb, QueueEmail)
	assert.Zero(t, n)

	replayed, err := rdb.RPop(ctx, QueueEmail).Result()
	require.NoError(t, err)
	var job Job
	require.NoError(t, json.Unmarshal([]byte(replayed), &job))
	assert.Equal(t, JobTypeEmail, job.Type)
	assert.Equal(t, 1, job.Attempts)

	// malformed envelopes go straight to the DLQ
	processJob(ctx, rdb, &WorkerHandlers{}, QueueImport, "{oops")
	n, _ = DLQLength(ctx, rdb, QueueImport)
	assert.Equal(t, int64(1), n)

	_, err = rdb.RPop(ctx, QueueEmail).Result()
	assert.ErrorIs(t, err, redis.Nil)
}

func TestWorkerPool_ConsumesQueue(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdC, err := tcRedis.RunContainer(ctx, testcontainers.WithImage("redis:7-alpine"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(context.Background()) })
	url, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)
	rdb, err := infra.NewRedis(url)
	require.NoError(t, err)

	runner := &chanRunner{done: make(chan string, 1)}
	StartWorkerPool(ctx, rdb, &WorkerHandlers{Import: NewImportWorker(runner, nil, t.TempDir())}, 1)

	require.NoError(t, NewDispatcher(rdb).EnqueueImport(ctx, ImportJobPayload{BatchID: "queued-1", CSV: []byte("serial\nA\n")}))

	select {
	case id := <-runner.done:
		assert.Equal(t, "queued-1", id)
	case <-time.After(15 * time.Second):
		t.Fatal("import job was not consumed")
	}
}

type chanRunner struct{ done chan string }

func (r *chanRunner) RunImportJob(_ context.Context, p ImportJobPayload) (*dto.BatchResultResponse, error) {
	r.done <- p.BatchID
	return &dto.BatchResultResponse{BatchID: p.BatchID}, nil
}
