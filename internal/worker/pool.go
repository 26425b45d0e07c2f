package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueueImport = "jobs:import"
	QueueEmail  = "jobs:email"
)

const (
	JobTypeImport = "import"
	JobTypeEmail  = "email"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	Attempts int             `json:"attempts,omitempty"`
}

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

// EnqueueImport pushes a queued CSV import.
func (d *Dispatcher) EnqueueImport(ctx context.Context, payload ImportJobPayload) error {
	return d.enqueue(ctx, QueueImport, JobTypeImport, payload, 0)
}

// EnqueueEmail pushes an email job.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobTypeEmail, payload, 0)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}, attempts int) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{Type: jobType, Payload: data, Attempts: attempts}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// JobHandler processes one payload. A returned error sends the job to the DLQ.
type JobHandler interface {
	Process(ctx context.Context, payload json.RawMessage) error
}

// WorkerHandlers is wired in the composition root so the pool can reach every
// infrastructure dependency without importing the service layer.
type WorkerHandlers struct {
	Import JobHandler
	Email  JobHandler
}

func (h *WorkerHandlers) forType(jobType string) (JobHandler, error) {
	var handler JobHandler
	switch jobType {
	case JobTypeImport:
		handler = h.Import
	case JobTypeEmail:
		handler = h.Email
	default:
		return nil, fmt.Errorf("unknown job type %q", jobType)
	}
	if handler == nil {
		return nil, fmt.Errorf("no handler wired for job type %q", jobType)
	}
	return handler, nil
}

// StartWorkerPool launches numWorkers goroutines consuming both queues.
// Each goroutine blocks on BRPOP: zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, numWorkers int) {
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, i)
	}
	log.Info().Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, id int) {
	queues := []string{QueueImport, QueueEmail}
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop: waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				if !errors.Is(err, redis.Nil) && ctx.Err() == nil {
					log.Warn().Err(err).Int("worker", id).Msg("worker: BRPOP failed")
					time.Sleep(time.Second)
				}
				continue
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

// processJob decodes the envelope, runs the matching handler and dead-letters
// the job on failure.
func processJob(ctx context.Context, rdb *redis.Client, handlers *WorkerHandlers, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, queue, "unknown", json.RawMessage(raw), "malformed envelope: "+err.Error(), 1)
		return
	}

	handler, err := handlers.forType(job.Type)
	if err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("no handler for job")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts+1)
		return
	}

	log.Info().Str("type", job.Type).Str("queue", queue).Msg("processing job")
	start := time.Now()
	if err := handler.Process(ctx, job.Payload); err != nil {
		log.Error().Err(err).Str("type", job.Type).Dur("elapsed", time.Since(start)).Msg("job failed")
		SendToDLQ(ctx, rdb, queue, job.Type, job.Payload, err.Error(), job.Attempts+1)
		return
	}
	log.Info().Str("type", job.Type).Dur("elapsed", time.Since(start)).Msg("job done")
}
