package checksum

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"repro/internal/content"
	"repro/internal/logging"
)

const (
	// Algorithm names the digest stored in sidecars and records.
	Algorithm = "sha256"
	// ChunkSize is the read size used while hashing.
	ChunkSize = 64 * 1024
	// SidecarSuffix is appended to the payload path for the sidecar file.
	SidecarSuffix = ".checksum"
)

// Sum is the digest of a whole file.
type Sum struct {
	Algorithm string
	Digest    string
	Size      int64
}

// String renders the sidecar form "<algorithm>:<hex>".
func (s Sum) String() string {
	return s.Algorithm + ":" + s.Digest
}

// Compute hashes path in fixed-size chunks.
func Compute(path string) (Sum, error) {
	file, err := os.Open(path)
	if err != nil {
		return Sum{}, fmt.Errorf("open for checksum: %w", err)
	}
	defer file.Close()

	hasher := sha256.New()
	buf := make([]byte, ChunkSize)
	var size int64
	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			hasher.Write(buf[:n])
			size += int64(n)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return Sum{}, fmt.Errorf("read for checksum: %w", readErr)
		}
	}
	return Sum{Algorithm: Algorithm, Digest: hex.EncodeToString(hasher.Sum(nil)), Size: size}, nil
}

// SidecarPath returns the sidecar location for a payload.
func SidecarPath(payload string) string {
	return payload + SidecarSuffix
}

// WriteSidecar stores sum next to payload and returns the sidecar path.
func WriteSidecar(payload string, sum Sum) (string, error) {
	path := SidecarPath(payload)
	if err := os.WriteFile(path, []byte(sum.String()), 0o644); err != nil {
		return "", fmt.Errorf("write checksum sidecar: %w", err)
	}
	return path, nil
}

// ReadSidecar parses a sidecar written by WriteSidecar.
func ReadSidecar(payload string) (Sum, error) {
	data, err := os.ReadFile(SidecarPath(payload))
	if err != nil {
		return Sum{}, err
	}
	algorithm, digest, ok := strings.Cut(strings.TrimSpace(string(data)), ":")
	if !ok || algorithm == "" || digest == "" {
		return Sum{}, fmt.Errorf("malformed checksum sidecar %q", string(data))
	}
	return Sum{Algorithm: algorithm, Digest: digest}, nil
}

// Store is the slice of the repository the engine needs.
type Store interface {
	ChecksumsInRange(ctx context.Context, submissionID, begin, end int64) ([]content.ChecksumRecord, error)
	SaveChecksum(ctx context.Context, record *content.ChecksumRecord) error
}

// Engine reconciles checksum records with freshly computed sums.
type Engine struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// NewEngine constructs an engine backed by store.
func NewEngine(store Store, logger *slog.Logger) *Engine {
	return &Engine{store: store, logger: logging.NewComponentLogger(logger, "checksum"), now: time.Now}
}

// Reconcile makes sure exactly one record describes [0, sum.Size) of the
// submission, updating an existing one in place. Duplicate rows are left
// alone; the first is updated.
func (e *Engine) Reconcile(ctx context.Context, sub *content.Submission, sum Sum) (*content.ChecksumRecord, error) {
	if sub == nil || sub.ID == 0 {
		return nil, errors.New("reconcile checksum: submission must be persisted")
	}
	records, err := e.store.ChecksumsInRange(ctx, sub.ID, 0, sum.Size)
	if err != nil {
		return nil, err
	}

	var record content.ChecksumRecord
	switch len(records) {
	case 0:
		record = content.ChecksumRecord{SubmissionID: sub.ID, Begin: 0, End: sum.Size}
	case 1:
		record = records[0]
	default:
		logging.WarnWithContext(logging.WithContext(ctx, e.logger), "duplicate checksum records", "checksum_duplicates",
			logging.Int64("submission_id", sub.ID),
			logging.Int("records", len(records)),
			logging.Int64("used_id", records[0].ID),
			logging.String(logging.FieldErrorHint, "remove the extra checksum rows"),
			logging.String(logging.FieldImpact, "the first record is updated and the rest are left untouched"),
		)
		record = records[0]
	}

	record.Algorithm = sum.Algorithm
	record.Digest = sum.Digest
	record.Timestamp = e.now().UTC()
	if err := e.store.SaveChecksum(ctx, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
