package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/infra"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/router"
	"github.com/NitchBekker23/Vault-CRM-V1-sub002/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger (dev: pretty, prod: JSON)
	if !cfg.IsProduction() {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	// Redis backs the job queue, batch locks, stored results and the metrics
	// cache. Without it the server runs single-instance with in-process
	// fallbacks and async imports disabled.
	var rdb *redis.Client
	if cfg.RedisURL != "" {
		rdb, err = infra.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
	} else {
		log.Warn().Msg("REDIS_URL not set: async imports disabled, batch locks are process-local")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	smtpCB := infra.NewCircuitBreaker(infra.DefaultCBConfig("smtp"))

	var dispatcher *worker.Dispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
	}

	svcs := router.BuildServices(cfg, db, rdb, dispatcher)

	// Worker handlers are wired here (composition root) so the pool shares the
	// same import service as the HTTP layer.
	if dispatcher != nil {
		workerHandlers := &worker.WorkerHandlers{
			Import: worker.NewImportWorker(svcs.Imports, dispatcher, cfg.ReportStoragePath),
			Email:  worker.NewEmailWorker(mailer, smtpCB),
		}
		worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)
		worker.StartRetryCron(ctx, worker.RetryCronConfig{RDB: rdb, Dispatcher: dispatcher, CB: smtpCB})
		if !mailer.Configured() {
			log.Warn().Msg("SMTP_HOST not set: import notification emails will fail and land in the DLQ")
		}
	}

	r := router.New(cfg, svcs, db, rdb, smtpCB)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("sales import service listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	cancel()
	if rdb != nil {
		_ = rdb.Close()
	}
	log.Info().Msg("server exited")
}
