package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestCopyFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.txt")
	dst := filepath.Join(dir, "dst.txt")

	content := []byte("hello world")
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}
	if err := CopyFile(src, dst); err != nil {
		t.Fatal(err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != string(content) {
		t.Fatalf("content mismatch: got %q, want %q", got, content)
	}
}

func TestMoveWithSidecarsCarriesCompanions(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "src", "alice", "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b")
	if err := os.MkdirAll(filepath.Dir(payload), 0o755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{payload, payload + ".checksum", payload + ".checksums"} {
		if err := os.WriteFile(name, []byte(filepath.Base(name)), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	targetDir := filepath.Join(dir, "dst", "alice")
	target, err := MoveWithSidecars(payload, targetDir)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if target != filepath.Join(targetDir, filepath.Base(payload)) {
		t.Fatalf("unexpected target %q", target)
	}
	for _, suffix := range []string{"", ".checksum", ".checksums"} {
		if _, err := os.Stat(target + suffix); err != nil {
			t.Fatalf("expected %s at destination: %v", suffix, err)
		}
		if _, err := os.Stat(payload + suffix); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed from source, stat err=%v", suffix, err)
		}
	}
}

func TestMoveWithSidecarsRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "src", "payload")
	targetDir := filepath.Join(dir, "dst")
	for _, d := range []string{filepath.Dir(payload), targetDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(payload, []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(payload+".checksum", []byte("sum"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(targetDir, "payload.checksum"), []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := MoveWithSidecars(payload, targetDir)
	if !errors.Is(err, ErrTargetExists) {
		t.Fatalf("expected ErrTargetExists, got %v", err)
	}
	if _, err := os.Stat(payload); err != nil {
		t.Fatalf("payload must stay in place on conflict: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, "payload")); !os.IsNotExist(err) {
		t.Fatalf("payload must not reach the target on conflict, stat err=%v", err)
	}
}

func TestMoveWithSidecarsKeepsPayloadWhenSidecarFails(t *testing.T) {
	dir := t.TempDir()
	payload := filepath.Join(dir, "src", "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b")
	// A directory sidecar cannot be renamed into its own subtree.
	sidecar := payload + ".checksum"
	targetDir := filepath.Join(sidecar, "dst")
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(payload, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := MoveWithSidecars(payload, targetDir); err == nil {
		t.Fatal("expected sidecar move to fail")
	}
	if _, err := os.Stat(payload); err != nil {
		t.Fatalf("payload must stay in place when a sidecar cannot move: %v", err)
	}
	if _, err := os.Stat(filepath.Join(targetDir, filepath.Base(payload))); !os.IsNotExist(err) {
		t.Fatalf("payload must not reach the target without its sidecar, stat err=%v", err)
	}
}

func TestIsCrossDevice(t *testing.T) {
	err := &os.LinkError{Op: "rename", Old: "a", New: "b", Err: unix.EXDEV}
	if !IsCrossDevice(err) {
		t.Fatal("expected EXDEV link error to be cross-device")
	}
	if IsCrossDevice(&os.LinkError{Op: "rename", Err: unix.ENOENT}) {
		t.Fatal("ENOENT must not be cross-device")
	}
}
