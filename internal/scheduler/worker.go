package scheduler

import (
	"context"
	"fmt"

	"agrovet_backend/platform/config"
	"agrovet_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// AnalysisExecutor runs a prepared analysis to completion, retries included.
type AnalysisExecutor interface {
	Execute(ctx context.Context, payload AnalysisExecutePayload) error
}

type Worker struct {
	server   *asynq.Server
	mux      *asynq.ServeMux
	executor AnalysisExecutor
	log      *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, executor AnalysisExecutor, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL)
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetWorkerConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			"default": 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server:   server,
		mux:      mux,
		executor: executor,
		log:      log,
	}

	mux.HandleFunc(TaskAnalysisExecute, w.handleAnalysisExecute)

	return w, nil
}

func (w *Worker) handleAnalysisExecute(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseAnalysisExecutePayload(task)
	if err != nil {
		return err
	}

	return w.executor.Execute(ctx, payload)
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}
