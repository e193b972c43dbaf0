// The worker process hosts the asynq server and the periodic scheduler that
// rescores all stored leads, keeping recency-decayed scores current.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"leadscore_backend/internal/cache"
	"leadscore_backend/internal/leads/repository"
	"leadscore_backend/internal/leads/service"
	"leadscore_backend/internal/scheduler"
	"leadscore_backend/internal/scoring"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/db"
	"leadscore_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting rescore worker", "env", cfg.Env, "interval", cfg.RescoreInterval.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	scoringCfg, err := scoring.LoadConfig(cfg.ScoringWeightsPath)
	if err != nil {
		log.Error("failed to load scoring weights", "error", err)
		panic("failed to load scoring weights: " + err.Error())
	}

	// The worker shares the response cache so rescore writes invalidate the
	// API's cached entries.
	responseCache, err := cache.New(cfg, log)
	if err != nil {
		log.Error("failed to initialize cache", "error", err)
		panic("failed to initialize cache: " + err.Error())
	}
	defer responseCache.Close()

	svc := service.New(repository.New(pool), scoringCfg, responseCache, log)

	worker, err := scheduler.NewWorker(cfg, svc, log)
	if err != nil {
		log.Error("failed to initialize rescore worker", "error", err)
		panic("failed to initialize rescore worker: " + err.Error())
	}

	worker.Run(ctx)
	log.Info("rescore worker stopped")
}
