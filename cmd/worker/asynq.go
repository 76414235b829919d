package main

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"

	"recruit-backend/internal/notify"
	"recruit-backend/internal/queue"
	"recruit-backend/internal/shared/config"
	"recruit-backend/internal/shared/metrics"
	"recruit-backend/internal/shared/telemetry"
	"recruit-backend/internal/workerproc"
)

func runAsynq(ctx context.Context, cfg config.Config, d notify.Deliverer) error {
	concurrency := cfg.WorkerConcurrency
	if concurrency <= 0 {
		concurrency = defaultWorkerConcurrency
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = defaultShutdownTimeout
	}

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		asynq.Config{
			Concurrency:     concurrency,
			ShutdownTimeout: shutdownTimeout,
		},
	)

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMiddleware())
	mux.HandleFunc(queue.TypeNotifyDeliver, notifyTaskHandler(d))

	if err := srv.Start(mux); err != nil {
		return fmt.Errorf("start asynq server: %w", err)
	}
	telemetry.Info("worker.started", map[string]any{
		"backend":     "asynq",
		"redis":       cfg.RedisAddr,
		"concurrency": concurrency,
	})

	<-ctx.Done()
	telemetry.Info("worker.shutdown", map[string]any{"timeout": shutdownTimeout.String()})
	srv.Shutdown()
	return nil
}

// notifyTaskHandler delivers one notify task. Unparseable payloads are
// skipped so asynq does not retry them.
func notifyTaskHandler(d notify.Deliverer) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		metrics.IncWorkerMessage("received")
		body := string(task.Payload())
		err := workerproc.HandleMessage(ctx, d, body)
		switch {
		case err == nil:
			metrics.IncWorkerMessage("completed")
			return nil
		case workerproc.Unrecoverable(err):
			meta := workerproc.ComputeMeta(body)
			telemetry.Error("worker.message.unparseable", map[string]any{
				"body_len":    meta.BodyLen,
				"body_sha256": meta.BodySHA,
				"error":       err.Error(),
			})
			metrics.IncWorkerMessage("dropped")
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		default:
			telemetry.Error("worker.message.failed", map[string]any{"error": err.Error()})
			metrics.IncWorkerMessage("failed")
			return err
		}
	}
}
