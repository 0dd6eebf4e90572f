package stagelock

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
)

// Suffix is appended to a payload path to form its lock file.
const Suffix = ".lock"

// ErrContention reports that another worker holds the lock.
var ErrContention = errors.New("stage lock held by another worker")

// Manager hands out per-payload advisory locks.
type Manager struct{}

// NewManager returns a lock manager.
func NewManager() *Manager {
	return &Manager{}
}

// PathFor returns the lock file location for a payload.
func PathFor(payload string) string {
	return payload + Suffix
}

// IsLockFile reports whether name looks like a lock file.
func IsLockFile(name string) bool {
	return strings.HasSuffix(name, Suffix)
}

// TryAcquire takes an exclusive, non-blocking lock on payload. It never waits:
// a lock held elsewhere yields ErrContention.
func (m *Manager) TryAcquire(payload string) (*Lease, error) {
	path := PathFor(payload)
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", path, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrContention, path)
	}
	// A holder may have unlinked the file between our open and lock; the
	// flock then sits on an orphaned inode another worker cannot see.
	if !isCurrent(path, lock.Fh()) {
		_ = lock.Unlock()
		return nil, fmt.Errorf("%w: %s replaced while locking", ErrContention, path)
	}
	return &Lease{path: path, lock: lock}, nil
}

// isCurrent reports whether fh still refers to the file linked at path.
func isCurrent(path string, fh *os.File) bool {
	if fh == nil {
		return false
	}
	held, err := fh.Stat()
	if err != nil {
		return false
	}
	linked, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, linked)
}

// Lease is a held stage lock.
type Lease struct {
	path string
	lock *flock.Flock
	once sync.Once
	err  error
}

// Path returns the lock file path.
func (l *Lease) Path() string {
	return l.path
}

// Release removes the lock file and drops the lock. Calling it more than once
// returns the first result.
func (l *Lease) Release() error {
	if l == nil {
		return nil
	}
	l.once.Do(func() {
		removeErr := os.Remove(l.path)
		if errors.Is(removeErr, os.ErrNotExist) {
			removeErr = nil
		}
		unlockErr := l.lock.Unlock()
		l.err = errors.Join(removeErr, unlockErr)
	})
	return l.err
}
