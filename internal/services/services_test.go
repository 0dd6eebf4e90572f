package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"repro/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithStage(ctx, "checksum")
	ctx = services.WithSubmission(ctx, "uuid-1")
	ctx = services.WithOwner(ctx, "alice")
	ctx = services.WithHostname(ctx, "worker-1")

	if stage, ok := services.StageFromContext(ctx); !ok || stage != "checksum" {
		t.Fatalf("unexpected stage: %v %v", stage, ok)
	}
	if id, ok := services.SubmissionFromContext(ctx); !ok || id != "uuid-1" {
		t.Fatalf("unexpected submission: %v %v", id, ok)
	}
	if owner, ok := services.OwnerFromContext(ctx); !ok || owner != "alice" {
		t.Fatalf("unexpected owner: %v %v", owner, ok)
	}
	if host, ok := services.HostnameFromContext(ctx); !ok || host != "worker-1" {
		t.Fatalf("unexpected hostname: %v %v", host, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := services.WithStage(context.Background(), "")
	if _, ok := services.StageFromContext(ctx); ok {
		t.Fatal("expected blank stage to be ignored")
	}
}

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "preview", "encode", "ffmpeg failed", base)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	for _, fragment := range []string{"preview", "encode", "ffmpeg failed"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("expected %q in error string %q", fragment, err.Error())
		}
	}
}

func TestIsFatalForInvocation(t *testing.T) {
	missing := services.Wrap(services.ErrToolMissing, "fingerprint", "codegen", "not installed", nil)
	if !services.IsFatalForInvocation(missing) {
		t.Fatal("expected missing tool to be fatal")
	}
	transient := services.Wrap(services.ErrTransient, "fingerprint", "query", "", errors.New("io"))
	if services.IsFatalForInvocation(transient) {
		t.Fatal("expected transient failure to be recoverable")
	}
}
