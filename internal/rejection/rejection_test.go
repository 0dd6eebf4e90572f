package rejection

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"repro/internal/content"
	"repro/internal/logging"
)

const payloadUUID = "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b"

func setup(t *testing.T) (string, *content.Store) {
	t.Helper()
	root := t.TempDir()
	store, err := content.OpenPath(filepath.Join(root, "repro.db"), logging.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return root, store
}

func writePayload(t *testing.T, dir string, sidecar bool) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	path := filepath.Join(dir, payloadUUID)
	if err := os.WriteFile(path, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if sidecar {
		if err := os.WriteFile(path+".checksum", []byte("sha256:00"), 0o644); err != nil {
			t.Fatalf("write sidecar: %v", err)
		}
	}
	return path
}

func TestRejectRelocatesAndRecords(t *testing.T) {
	root, store := setup(t)
	ctx := context.Background()
	sub := &content.Submission{UUID: payloadUUID, Owner: "alice", State: content.StatePreviewed}
	if err := store.Upsert(ctx, sub); err != nil {
		t.Fatalf("insert: %v", err)
	}

	source := writePayload(t, filepath.Join(root, "checksummed", "alice"), true)
	handler := NewHandler(store, root, filepath.Join(root, "rejected"), "worker-1", logging.NewNop())
	target, err := handler.Reject(ctx, source, content.ReasonNoFingerprint, "ingest returned 500")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}

	want := filepath.Join(root, "rejected", "alice", payloadUUID)
	if target != want {
		t.Fatalf("expected target %q, got %q", want, target)
	}
	for _, path := range []string{want, want + ".checksum"} {
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("expected %s to exist: %v", path, err)
		}
	}
	if _, err := os.Stat(source); !os.IsNotExist(err) {
		t.Fatalf("expected source removed, got %v", err)
	}

	got, err := store.Get(ctx, payloadUUID)
	if err != nil || got == nil {
		t.Fatalf("get: %v", err)
	}
	if got.State != content.StateRejected || got.RejectionReason != content.ReasonNoFingerprint {
		t.Fatalf("unexpected state %q reason %q", got.State, got.RejectionReason)
	}
	if got.RejectionDetails != "ingest returned 500" || got.Hostname != "worker-1" {
		t.Fatalf("unexpected detail %q host %q", got.RejectionDetails, got.Hostname)
	}
	if got.Path != filepath.Join("rejected", "alice", payloadUUID) {
		t.Fatalf("unexpected record path %q", got.Path)
	}
}

func TestRejectWithoutRecordStillRelocates(t *testing.T) {
	root, store := setup(t)
	source := writePayload(t, filepath.Join(root, "uploaded", "bob"), false)
	handler := NewHandler(store, root, filepath.Join(root, "rejected"), "", logging.NewNop())

	target, err := handler.Reject(context.Background(), source, content.ReasonMissingRecord, "no record")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected relocated payload: %v", err)
	}
	if got, _ := store.Get(context.Background(), payloadUUID); got != nil {
		t.Fatalf("expected no record to be created, got %+v", got)
	}
}

func TestRejectRefusesExistingTarget(t *testing.T) {
	root, store := setup(t)
	source := writePayload(t, filepath.Join(root, "uploaded", "bob"), false)
	writePayload(t, filepath.Join(root, "rejected", "bob"), false)
	handler := NewHandler(store, root, filepath.Join(root, "rejected"), "", logging.NewNop())

	if _, err := handler.Reject(context.Background(), source, content.ReasonFormatError, "x"); err == nil {
		t.Fatal("expected existing rejected payload to block the move")
	}
	if _, err := os.Stat(source); err != nil {
		t.Fatalf("source must stay in place: %v", err)
	}
}
