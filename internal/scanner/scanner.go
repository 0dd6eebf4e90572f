package scanner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"repro/internal/logging"
	"repro/internal/services"
	"repro/internal/stagelock"
)

// Job identifies one claimed payload.
type Job struct {
	// Root is the owner directory holding the payload inside the source stage.
	Root string
	// DestDir is the owner directory inside the destination stage.
	DestDir string
	// Name is the payload file name, a UUIDv4.
	Name  string
	Owner string
}

// Path returns the absolute payload path.
func (j Job) Path() string {
	return filepath.Join(j.Root, j.Name)
}

// StageFunc processes one claimed payload. Returned errors are logged and
// counted; they never stop the pass.
type StageFunc func(ctx context.Context, job Job) error

// Summary counts the outcome of one pass.
type Summary struct {
	Claimed   int
	Succeeded int
	Failed    int
	Skipped   int
	Ignored   int
}

// Add accumulates the counters of other into s.
func (s *Summary) Add(other Summary) {
	s.Claimed += other.Claimed
	s.Succeeded += other.Succeeded
	s.Failed += other.Failed
	s.Skipped += other.Skipped
	s.Ignored += other.Ignored
}

// Locker claims payloads for exclusive processing.
type Locker interface {
	TryAcquire(payload string) (*stagelock.Lease, error)
}

// Scanner walks a stage directory and hands eligible payloads to a stage.
type Scanner struct {
	locks  Locker
	logger *slog.Logger
}

// New constructs a scanner. A nil locker uses a fresh stagelock manager.
func New(locks Locker, logger *slog.Logger) *Scanner {
	if locks == nil {
		locks = stagelock.NewManager()
	}
	return &Scanner{locks: locks, logger: logging.NewComponentLogger(logger, "scanner")}
}

// IsSubmissionName reports whether name is a canonical UUIDv4 in any case.
func IsSubmissionName(name string) bool {
	if len(name) != 36 {
		return false
	}
	id, err := uuid.Parse(name)
	if err != nil {
		return false
	}
	return id.Version() == 4 && id.Variant() == uuid.RFC4122
}

// Scan runs stageFn once for every eligible payload in sourceDir/<owner>/.
// Only a failure to prepare destDir or a cancelled context is returned.
func (s *Scanner) Scan(ctx context.Context, sourceDir, destDir string, stageFn StageFunc) (Summary, error) {
	var summary Summary
	stage, _ := services.StageFromContext(ctx)
	logger := logging.WithContext(ctx, s.logger)

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return summary, services.Wrap(services.ErrConfiguration, stage, "prepare destination",
			fmt.Sprintf("cannot create %s", destDir), err)
	}

	owners, err := os.ReadDir(sourceDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("source directory missing; nothing to scan", logging.String(logging.FieldPath, sourceDir))
			return summary, nil
		}
		return summary, services.Wrap(services.ErrConfiguration, stage, "list source", sourceDir, err)
	}

	started := time.Now()
	for _, owner := range owners {
		if !owner.IsDir() {
			summary.Ignored++
			continue
		}
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		if err := s.scanOwner(ctx, logger, sourceDir, destDir, owner.Name(), stageFn, &summary); err != nil {
			return summary, err
		}
	}

	logger.Info("scan complete",
		logging.String(logging.FieldEventType, "scan_complete"),
		logging.String(logging.FieldPath, sourceDir),
		logging.Int("claimed", summary.Claimed),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("skipped", summary.Skipped),
		logging.Int("ignored", summary.Ignored),
		logging.Duration("elapsed", time.Since(started)),
	)
	return summary, nil
}

func (s *Scanner) scanOwner(ctx context.Context, logger *slog.Logger, sourceDir, destDir, owner string, stageFn StageFunc, summary *Summary) error {
	root := filepath.Join(sourceDir, owner)
	entries, err := os.ReadDir(root)
	if err != nil {
		logging.WarnWithContext(logger, "cannot list owner directory", "owner_list_failed",
			logging.String(logging.FieldOwner, owner),
			logging.Error(err),
			logging.String(logging.FieldImpact, "owner skipped for this pass"),
		)
		return nil
	}

	ownerDest := filepath.Join(destDir, owner)
	if err := os.MkdirAll(ownerDest, 0o755); err != nil {
		logging.WarnWithContext(logger, "cannot create owner destination", "owner_dest_failed",
			logging.String(logging.FieldOwner, owner),
			logging.String(logging.FieldPath, ownerDest),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions on the destination stage directory"),
			logging.String(logging.FieldImpact, "owner skipped for this pass"),
		)
		return nil
	}

	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || !IsSubmissionName(name) {
			if !stagelock.IsLockFile(name) {
				summary.Ignored++
			}
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		s.claim(ctx, logger, Job{Root: root, DestDir: ownerDest, Name: name, Owner: owner}, stageFn, summary)
	}
	return nil
}

func (s *Scanner) claim(ctx context.Context, logger *slog.Logger, job Job, stageFn StageFunc, summary *Summary) {
	payload := job.Path()
	lease, err := s.locks.TryAcquire(payload)
	if err != nil {
		summary.Skipped++
		if errors.Is(err, stagelock.ErrContention) {
			logger.Debug("payload locked by another worker",
				logging.String(logging.FieldSubmission, job.Name),
				logging.String(logging.FieldReason, "lock_contention"),
			)
			return
		}
		logging.WarnWithContext(logger, "cannot acquire stage lock", "lock_failed",
			logging.String(logging.FieldSubmission, job.Name),
			logging.Error(err),
			logging.String(logging.FieldImpact, "payload skipped for this pass"),
		)
		return
	}
	defer func() {
		if err := lease.Release(); err != nil {
			logging.WarnWithContext(logger, "failed to release stage lock", "lock_release_failed",
				logging.String(logging.FieldPath, lease.Path()),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file manually"),
				logging.String(logging.FieldImpact, "payload stays blocked until the lock file is removed"),
			)
		}
	}()

	if _, err := os.Stat(payload); err != nil {
		summary.Skipped++
		logger.Debug("payload vanished after claim", logging.String(logging.FieldSubmission, job.Name))
		return
	}

	summary.Claimed++
	jobCtx := services.WithOwner(services.WithSubmission(ctx, job.Name), job.Owner)
	if err := stageFn(jobCtx, job); err != nil {
		summary.Failed++
		logging.ErrorWithContext(logging.WithContext(jobCtx, s.logger), "stage failed", "stage_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "payload stays in the source directory"),
		)
		return
	}
	summary.Succeeded++
}
