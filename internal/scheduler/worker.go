package scheduler

import (
	"context"
	"fmt"

	"leadscore_backend/internal/leads/service"
	"leadscore_backend/platform/config"
	"leadscore_backend/platform/logger"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// Worker hosts the asynq server and the periodic scheduler that enqueues the
// rescore task at the configured interval.
type Worker struct {
	server      *asynq.Server
	scheduler   *asynq.Scheduler
	mux         *asynq.ServeMux
	svc         *service.Service
	concurrency int
	log         *logger.Logger
}

// NewWorker creates the rescore worker. Requires a Redis URL; the worker is
// only started in deployments that run cmd/worker.
func NewWorker(cfg config.SchedulerConfig, svc *service.Service, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 1,
		Queues: map[string]int{
			"default": 1,
		},
	})

	scheduler := asynq.NewScheduler(opt, nil)

	w := &Worker{
		server:      server,
		scheduler:   scheduler,
		mux:         asynq.NewServeMux(),
		svc:         svc,
		concurrency: cfg.GetRescoreConcurrency(),
		log:         log,
	}
	w.mux.HandleFunc(TaskLeadRescore, w.handleLeadRescore)

	task, err := NewLeadRescoreTask(LeadRescorePayload{})
	if err != nil {
		return nil, err
	}
	spec := fmt.Sprintf("@every %s", cfg.GetRescoreInterval())
	if _, err := scheduler.Register(spec, task); err != nil {
		return nil, err
	}

	return w, nil
}

// Run starts the scheduler and the task server, blocking until ctx is done.
func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.scheduler.Shutdown()
		w.server.Shutdown()
	}()

	go func() {
		if err := w.scheduler.Run(); err != nil {
			w.log.Error("rescore scheduler stopped", "error", err)
		}
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("rescore worker stopped", "error", err)
	}
}

func (w *Worker) handleLeadRescore(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadRescorePayload(task)
	if err != nil {
		return err
	}

	rescored, err := w.svc.RescoreAll(ctx, w.concurrency)
	if err != nil {
		return err
	}

	w.log.Info("leads_rescored",
		"count", rescored,
		"requested_at", payload.RequestedAt,
	)
	return nil
}

func redisClientOpt(redisURL string) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}

	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
