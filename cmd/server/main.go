package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rilaconsulting/pmpulse-sub002/internal/config"
	"github.com/rilaconsulting/pmpulse-sub002/internal/infra"
	"github.com/rilaconsulting/pmpulse-sub002/internal/matching"
	"github.com/rilaconsulting/pmpulse-sub002/internal/repository"
	"github.com/rilaconsulting/pmpulse-sub002/internal/router"
	"github.com/rilaconsulting/pmpulse-sub002/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Structured logger — dev: pretty, prod: JSON
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	// Start the goroutine worker pool for async jobs (deduplication runs,
	// notification emails). Handlers are wired here — the composition root —
	// so the pool has full access to all infrastructure dependencies.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mailer := infra.NewMailer(cfg)
	dispatcher := worker.NewDispatcher(rdb)
	vendorRepo := repository.NewVendorRepository(db)
	analysisRepo := repository.NewAnalysisRepository(db)
	jobTimeout := time.Duration(cfg.DedupJobTimeoutMinutes) * time.Minute

	workerHandlers := &worker.WorkerHandlers{
		Dedup: worker.NewDedupWorker(analysisRepo, vendorRepo, matching.NewEngine(),
			dispatcher, rdb, jobTimeout),
		Email: worker.NewEmailWorker(mailer),
	}
	worker.StartWorkerPool(ctx, rdb, workerHandlers, cfg.WorkerPoolSize)

	// Fail analyses orphaned by a crashed worker.
	worker.StartReaperCron(ctx, worker.ReaperConfig{
		AnalysisRepo: analysisRepo,
		JobTimeout:   jobTimeout,
	})

	r := router.New(cfg, db, rdb, dispatcher)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Msgf("pmpulse backend listening on :%d", cfg.Port)
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
	log.Info().Msg("server exited")
}
