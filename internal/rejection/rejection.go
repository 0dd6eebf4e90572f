package rejection

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"repro/internal/content"
	"repro/internal/fileutil"
	"repro/internal/logging"
)

// Store is the repository subset needed to record a rejection.
type Store interface {
	Get(ctx context.Context, uuid string) (*content.Submission, error)
	Upsert(ctx context.Context, sub *content.Submission) error
}

// Handler relocates failing payloads into the rejected directory and records
// the reason on the submission.
type Handler struct {
	store       Store
	storageDir  string
	rejectedDir string
	hostname    string
	logger      *slog.Logger
}

// NewHandler builds a handler. Record paths are stored relative to storageDir.
func NewHandler(store Store, storageDir, rejectedDir, hostname string, logger *slog.Logger) *Handler {
	return &Handler{
		store:       store,
		storageDir:  storageDir,
		rejectedDir: rejectedDir,
		hostname:    hostname,
		logger:      logging.NewComponentLogger(logger, "rejection"),
	}
}

// Reject moves sourcePath and its sidecars to rejected/<owner>/<uuid> and
// marks the submission rejected. A missing record still relocates the file.
// The returned path is the new payload location.
func (h *Handler) Reject(ctx context.Context, sourcePath string, reason content.Reason, detail string) (string, error) {
	logger := logging.WithContext(ctx, h.logger)

	name := filepath.Base(sourcePath)
	owner := filepath.Base(filepath.Dir(sourcePath))
	target, err := fileutil.MoveWithSidecars(sourcePath, filepath.Join(h.rejectedDir, owner))
	if err != nil {
		return "", fmt.Errorf("relocate rejected payload: %w", err)
	}

	logging.WarnWithContext(logger, "submission rejected", "rejected",
		logging.String(logging.FieldReason, string(reason)),
		logging.String("detail", detail),
		logging.String(logging.FieldPath, target),
		logging.String(logging.FieldImpact, "submission leaves the pipeline"),
	)

	sub, err := h.store.Get(ctx, name)
	if err != nil {
		return target, fmt.Errorf("load rejected submission: %w", err)
	}
	if sub == nil {
		logger.Info("no record for rejected payload; repository left untouched",
			logging.String(logging.FieldEventType, "rejected_without_record"),
		)
		return target, nil
	}

	sub.State = content.StateRejected
	sub.RejectionReason = reason
	sub.RejectionDetails = detail
	sub.Path = h.relative(target)
	if h.hostname != "" {
		sub.Hostname = h.hostname
	}
	if err := h.store.Upsert(ctx, sub); err != nil {
		return target, fmt.Errorf("persist rejection: %w", err)
	}
	return target, nil
}

func (h *Handler) relative(path string) string {
	if h.storageDir == "" {
		return path
	}
	rel, err := filepath.Rel(h.storageDir, path)
	if err != nil {
		return path
	}
	return rel
}
