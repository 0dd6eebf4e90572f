package stagelock

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/sys/unix"
)

func TestTryAcquireExcludesSecondHolder(t *testing.T) {
	payload := filepath.Join(t.TempDir(), "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b")
	if err := os.WriteFile(payload, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	manager := NewManager()

	lease, err := manager.TryAcquire(payload)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}
	if _, err := os.Stat(PathFor(payload)); err != nil {
		t.Fatalf("expected lock file to exist: %v", err)
	}

	if _, err := manager.TryAcquire(payload); !errors.Is(err, ErrContention) {
		t.Fatalf("expected contention, got %v", err)
	}

	if err := lease.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := os.Stat(PathFor(payload)); !os.IsNotExist(err) {
		t.Fatalf("expected lock file removed, stat err=%v", err)
	}
	if err := lease.Release(); err != nil {
		t.Fatalf("second release: %v", err)
	}

	again, err := manager.TryAcquire(payload)
	if err != nil {
		t.Fatalf("reacquire after release: %v", err)
	}
	_ = again.Release()
}

func TestIsLockFile(t *testing.T) {
	if !IsLockFile("abc.lock") {
		t.Fatal("expected .lock suffix to match")
	}
	if IsLockFile("abc.checksum") {
		t.Fatal("sidecar must not be treated as lock file")
	}
}

func TestStaleDescriptorLosesToFreshLockFile(t *testing.T) {
	payload := filepath.Join(t.TempDir(), "0b4a2b7e-5c1d-4e8f-9a6b-7c8d9e0f1a2b")
	if err := os.WriteFile(payload, []byte("audio"), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	manager := NewManager()

	first, err := manager.TryAcquire(payload)
	if err != nil {
		t.Fatalf("first acquire: %v", err)
	}

	// A second worker opens the lock file while the first still holds it.
	stale, err := os.OpenFile(PathFor(payload), os.O_RDWR, 0o644)
	if err != nil {
		t.Fatalf("open lock file: %v", err)
	}
	defer stale.Close()

	if err := first.Release(); err != nil {
		t.Fatalf("release: %v", err)
	}

	third, err := manager.TryAcquire(payload)
	if err != nil {
		t.Fatalf("acquire after release: %v", err)
	}
	defer third.Release()

	// The stale descriptor can still flock the unlinked inode.
	if err := unix.Flock(int(stale.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		t.Fatalf("flock stale descriptor: %v", err)
	}
	if isCurrent(PathFor(payload), stale) {
		t.Fatal("stale descriptor must not count as holding the stage lock")
	}
	if !isCurrent(third.Path(), third.lock.Fh()) {
		t.Fatal("fresh lease must refer to the linked lock file")
	}
}

func TestIsCurrentDetectsUnlinkedLockFile(t *testing.T) {
	payload := filepath.Join(t.TempDir(), "6d7e8f90-1a2b-4c3d-8e4f-5a6b7c8d9e0f")
	lease, err := NewManager().TryAcquire(payload)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	defer lease.Release()

	if err := os.Remove(lease.Path()); err != nil {
		t.Fatalf("unlink lock file: %v", err)
	}
	if isCurrent(lease.Path(), lease.lock.Fh()) {
		t.Fatal("unlinked lock file must not be current")
	}
}
