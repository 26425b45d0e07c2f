package worker

// retry_cron.go
// Background goroutine that replays dead-lettered email jobs once the SMTP
// circuit breaker is no longer open. Jobs that keep failing are dropped after
// maxReplayAttempts so the DLQ cannot loop forever.

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 60 * time.Second
	retryBatchSize    = 10
	maxReplayAttempts = 5
)

// RetryCronConfig holds all dependencies for the replay goroutine.
type RetryCronConfig struct {
	RDB        *redis.Client
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
}

// StartRetryCron ticks every minute and moves up to retryBatchSize email
// jobs from the DLQ back onto QueueEmail.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				replayEmails(ctx, cfg)
			}
		}
	}()
}

func replayEmails(ctx context.Context, cfg RetryCronConfig) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: SMTP breaker open, skipping tick")
		return
	}

	dlqKey := DLQPrefix + QueueEmail
	replayed := 0
	for i := 0; i < retryBatchSize; i++ {
		raw, err := cfg.RDB.RPop(ctx, dlqKey).Result()
		if errors.Is(err, redis.Nil) {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("retry_cron: failed to pop DLQ")
			return
		}

		var entry DLQEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			log.Error().Err(err).Msg("retry_cron: dropping malformed DLQ entry")
			continue
		}
		if entry.Attempts >= maxReplayAttempts {
			log.Error().
				Str("job_type", entry.JobType).
				Str("batch_id", entry.BatchID).
				Int("attempts", entry.Attempts).
				Str("reason", entry.Reason).
				Msg("retry_cron: giving up on email job")
			continue
		}

		if err := cfg.Dispatcher.enqueue(ctx, QueueEmail, JobTypeEmail, entry.Payload, entry.Attempts); err != nil {
			log.Warn().Err(err).Msg("retry_cron: re-enqueue failed, returning entry to DLQ")
			_ = cfg.RDB.RPush(ctx, dlqKey, raw).Err()
			return
		}
		replayed++
	}
	if replayed > 0 {
		log.Info().Int("count", replayed).Msg("retry_cron: email jobs replayed")
	}
}
