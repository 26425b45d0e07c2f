package cache

import (
	"context"
	"sync"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/dto"
)

// ClientMetricsCache holds the read model served by GET /v1/clients/:id/metrics.
// Every committed or deleted transaction invalidates the client's entry.
type ClientMetricsCache interface {
	Get(ctx context.Context, clientID int64) (*dto.ClientMetricsResponse, bool, error)
	Set(ctx context.Context, value *dto.ClientMetricsResponse, ttl time.Duration) error
	Invalidate(ctx context.Context, clientID int64) error
}

// ResultStore keeps finished batch results for later retrieval and reports.
type ResultStore interface {
	Save(ctx context.Context, result *dto.BatchResultResponse, ttl time.Duration) error
	Load(ctx context.Context, batchID string) (*dto.BatchResultResponse, bool, error)
}

// BatchLocker guarantees at most one running import per batch id.
type BatchLocker interface {
	Acquire(ctx context.Context, batchID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, batchID string) error
}

// ── No-op / in-process implementations ───────────────────────────────────────
// Used when Redis is not configured (CLI runs, unit tests).

type NoopClientMetricsCache struct{}

func (NoopClientMetricsCache) Get(_ context.Context, _ int64) (*dto.ClientMetricsResponse, bool, error) {
	return nil, false, nil
}

func (NoopClientMetricsCache) Set(_ context.Context, _ *dto.ClientMetricsResponse, _ time.Duration) error {
	return nil
}

func (NoopClientMetricsCache) Invalidate(_ context.Context, _ int64) error { return nil }

// MemoryResultStore ignores ttl; entries live as long as the process.
type MemoryResultStore struct {
	mu      sync.RWMutex
	results map[string]*dto.BatchResultResponse
}

func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{results: make(map[string]*dto.BatchResultResponse)}
}

func (s *MemoryResultStore) Save(_ context.Context, result *dto.BatchResultResponse, _ time.Duration) error {
	if result == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[result.BatchID] = result
	return nil
}

func (s *MemoryResultStore) Load(_ context.Context, batchID string) (*dto.BatchResultResponse, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[batchID]
	return r, ok, nil
}

// LocalBatchLocker only protects against concurrent imports inside one process.
type LocalBatchLocker struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func NewLocalBatchLocker() *LocalBatchLocker {
	return &LocalBatchLocker{active: make(map[string]struct{})}
}

func (l *LocalBatchLocker) Acquire(_ context.Context, batchID string, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, busy := l.active[batchID]; busy {
		return false, nil
	}
	l.active[batchID] = struct{}{}
	return true, nil
}

func (l *LocalBatchLocker) Release(_ context.Context, batchID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.active, batchID)
	return nil
}
