package main

import (
	"context"
	"fmt"
	"log/slog"

	"repro/internal/config"
	"repro/internal/content"
	"repro/internal/logging"
	"repro/internal/pipeline"
	"repro/internal/preflight"
	"repro/internal/worker"
)

// run opens the repository, reports preflight problems and loops over every
// stage until ctx is cancelled. Cancellation during startup is a clean stop.
func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if ctx.Err() != nil {
		return nil
	}
	store, err := content.Open(cfg, logger)
	if err != nil {
		return fmt.Errorf("open content store: %w", err)
	}
	defer store.Close()

	if cfg.Worker.ActingIdentity != "" {
		if _, err := store.EnsureIdentity(ctx, cfg.Worker.ActingIdentity); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("ensure acting identity: %w", err)
		}
	}

	reportPreflight(ctx, cfg, logger)

	p, err := pipeline.New(pipeline.Options{Config: cfg, Store: store, Logger: logger})
	if err != nil {
		return err
	}

	logger.Info("reprod ready",
		logging.String(logging.FieldEventType, "daemon_ready"),
		logging.String(logging.FieldHostname, cfg.Worker.Hostname),
		logging.String("storage_dir", cfg.Paths.StorageDir),
	)
	return worker.New(p, cfg.LoopInterval(), logger).Run(ctx)
}

// reportPreflight logs failed checks and missing binaries. Failures never
// stop the worker; each affected submission fails individually instead.
func reportPreflight(ctx context.Context, cfg *config.Config, logger *slog.Logger) {
	for _, result := range preflight.Failed(preflight.RunAll(ctx, cfg, false)) {
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldImpact, "affected stages will fail until resolved"),
		)
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		if dep.Available {
			continue
		}
		logging.WarnWithContext(logger, "external binary unavailable", "dependency_missing",
			logging.String("dependency", dep.Name),
			logging.Bool("optional", dep.Optional),
			logging.String("detail", dep.Detail),
			logging.String(logging.FieldImpact, "submissions needing it stay in place"),
		)
	}
}
