package main

import (
	"context"
	"testing"
	"time"

	"repro/internal/logging"
	"repro/internal/testsupport"
)

func TestRunStopsOnCancel(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Worker.ActingIdentity = "pipeline"

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := run(ctx, cfg, logging.NewNop()); err != nil {
		t.Fatalf("run returned %v", err)
	}
}

func TestRunEnsuresActingIdentity(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Worker.ActingIdentity = "pipeline"

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if err := run(ctx, cfg, logging.NewNop()); err != nil {
		t.Fatalf("run returned %v", err)
	}

	store := testsupport.MustOpenStore(t, cfg)
	identity, err := store.ResolveIdentity(context.Background(), "pipeline")
	if err != nil {
		t.Fatalf("resolve identity: %v", err)
	}
	if identity == nil {
		t.Fatal("expected acting identity to be created")
	}
}

func TestRunFailsWithoutDatabaseDirectory(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.DatabasePath = "/dev/null/repro.db"

	if err := run(context.Background(), cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error opening store")
	}
}
