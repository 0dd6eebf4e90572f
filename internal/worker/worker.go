package worker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"repro/internal/logging"
	"repro/internal/scanner"
)

// Runner performs one pass over every stage.
type Runner interface {
	RunAll(ctx context.Context) (map[string]scanner.Summary, error)
}

// Worker repeats passes with a fixed delay until its context ends.
type Worker struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
}

// New builds a worker. A non-positive interval runs passes back to back.
func New(runner Runner, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{runner: runner, interval: interval, logger: logging.NewComponentLogger(logger, "worker")}
}

// Run loops until ctx is cancelled. Failed passes are logged and retried on
// the next tick; only cancellation ends the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		logging.String(logging.FieldEventType, "worker_start"),
		logging.Duration("interval", w.interval),
	)
	for pass := 1; ; pass++ {
		started := time.Now()
		summaries, err := w.runner.RunAll(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				break
			}
			w.logger.Error("pass failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "pass_failed"),
				logging.String(logging.FieldErrorHint, "check stage directory permissions and configuration"),
				logging.Int("pass", pass),
			)
		}
		claimed := 0
		for _, summary := range summaries {
			claimed += summary.Claimed
		}
		w.logger.Debug("pass complete",
			logging.String(logging.FieldEventType, "pass_complete"),
			logging.Int("pass", pass),
			logging.Int("claimed", claimed),
			logging.Duration("elapsed", time.Since(started)),
		)

		select {
		case <-ctx.Done():
		case <-time.After(w.interval):
			continue
		}
		break
	}
	w.logger.Info("worker stopped", logging.String(logging.FieldEventType, "worker_stop"))
	return nil
}
