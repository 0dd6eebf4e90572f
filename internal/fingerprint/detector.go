package fingerprint

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"repro/internal/content"
	"repro/internal/logging"
	"repro/internal/services"
)

const (
	// Algorithm is recorded on every fingerprint log entry.
	Algorithm = "EchoPrint"
	// Origin is recorded on every fingerprint log entry.
	Origin = "direct"
	// UnknownMetadata replaces empty ingest metadata fields.
	UnknownMetadata = "unknown"
)

// CodeSource produces fingerprint codes for files.
type CodeSource interface {
	Generate(ctx context.Context, path string) (Code, error)
}

// Matcher is the subset of the matching service used by the detector.
type Matcher interface {
	Query(ctx context.Context, code string) (Match, error)
	Ingest(ctx context.Context, in IngestRequest) error
}

// Detector runs the duplicate-detection protocol around an ingest.
type Detector struct {
	codes    CodeSource
	matcher  Matcher
	repo     content.Repository
	identity string
	logger   *slog.Logger
	now      func() time.Time
}

// NewDetector wires a detector. identity is the login recorded on log entries.
func NewDetector(codes CodeSource, matcher Matcher, repo content.Repository, identity string, logger *slog.Logger) *Detector {
	return &Detector{
		codes:    codes,
		matcher:  matcher,
		repo:     repo,
		identity: identity,
		logger:   logging.NewComponentLogger(logger, "fingerprint"),
		now:      time.Now,
	}
}

// Probe is the outcome of an excerpt query.
type Probe struct {
	Score   int
	Similar *content.Submission
	Artist  string
	Track   string
}

// probe queries the matcher with the excerpt. Only a missing code generator
// is returned as an error; every other failure degrades to a zero score.
func (d *Detector) probe(ctx context.Context, excerptPath string) (Probe, error) {
	logger := logging.WithContext(ctx, d.logger)

	code, err := d.codes.Generate(ctx, excerptPath)
	if err != nil {
		if errors.Is(err, services.ErrToolMissing) || ctx.Err() != nil {
			return Probe{}, err
		}
		logger.Info("excerpt produced no fingerprint code; query skipped",
			logging.String(logging.FieldEventType, "excerpt_no_code"),
			logging.String(logging.FieldPath, excerptPath),
			logging.Error(err),
		)
		return Probe{}, nil
	}

	match, err := d.matcher.Query(ctx, code.Code)
	if err != nil {
		logging.WarnWithContext(logger, "excerpt query failed", "query_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the matcher url and availability"),
			logging.String(logging.FieldImpact, "similarity score recorded as 0"),
		)
		return Probe{}, nil
	}

	result := Probe{Score: match.Score}
	if !match.Match {
		return result, nil
	}
	result.Artist = match.Artist
	result.Track = match.Track
	similarUUID, err := UUIDFromTrackID(match.TrackID)
	if err != nil {
		logging.WarnWithContext(logger, "matcher returned malformed track id", "query_bad_track_id",
			logging.String("track_id", match.TrackID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "no similar submission recorded"),
		)
		return result, nil
	}
	similar, err := d.repo.Get(ctx, similarUUID)
	if err != nil {
		return result, fmt.Errorf("resolve similar submission: %w", err)
	}
	if similar == nil {
		logging.WarnWithContext(logger, "similar submission not found in repository", "similar_unresolved",
			logging.String("similar_uuid", similarUUID),
			logging.String(logging.FieldErrorHint, "matcher and repository are out of sync"),
			logging.String(logging.FieldImpact, "no similar submission recorded"),
		)
		return result, nil
	}
	result.Similar = similar
	return result, nil
}

// PreIngest records the excerpt similarity on sub before its fingerprint is
// registered.
func (d *Detector) PreIngest(ctx context.Context, sub *content.Submission, excerptPath string) error {
	result, err := d.probe(ctx, excerptPath)
	if err != nil {
		return err
	}
	sub.PreIngestScore = result.Score
	sub.MostSimilarArtist = result.Artist
	sub.MostSimilarTrack = result.Track
	sub.MostSimilarID = nil
	if result.Similar != nil {
		id := result.Similar.ID
		sub.MostSimilarID = &id
	}
	logging.WithContext(ctx, d.logger).Info("pre-ingest query complete",
		logging.String(logging.FieldEventType, "pre_ingest_query"),
		logging.Int("score", result.Score),
		logging.Bool("similar_found", result.Similar != nil),
	)
	return nil
}

// Ingest registers the fingerprint of audioPath, verifies it with a second
// excerpt query and appends the audit log entry. Failures that must reject
// the submission are returned as *content.Rejection.
func (d *Detector) Ingest(ctx context.Context, sub *content.Submission, audioPath, excerptPath string) error {
	logger := logging.WithContext(ctx, d.logger)

	code, err := d.codes.Generate(ctx, audioPath)
	if err != nil {
		if errors.Is(err, services.ErrToolMissing) || ctx.Err() != nil {
			return err
		}
		return content.Reject(content.ReasonNoFingerprint, "codegen: %v", err)
	}

	request, err := d.ingestRequest(ctx, sub, filepath.Base(audioPath), code)
	if err != nil {
		return err
	}
	if err := d.matcher.Ingest(ctx, request); err != nil {
		return content.Reject(content.ReasonNoFingerprint, "ingest: %v", err)
	}
	logger.Info("fingerprint ingested",
		logging.String(logging.FieldEventType, "fingerprint_ingested"),
		logging.String("track_id", request.TrackID),
		logging.String("codever", request.CodeVer),
	)

	post, err := d.probe(ctx, excerptPath)
	if err != nil {
		return err
	}
	sub.PostIngestScore = post.Score
	if post.Similar != nil && sub.MostSimilarID != nil && post.Similar.ID == *sub.MostSimilarID {
		sub.PreIngestScore = 0
	}

	d.appendLog(ctx, logger, sub, code.Version)
	return nil
}

func (d *Detector) ingestRequest(ctx context.Context, sub *content.Submission, name string, code Code) (IngestRequest, error) {
	artist, title, release := sub.MetadataArtist, sub.MetadataTitle, sub.MetadataRelease
	creation, err := d.repo.CreationFor(ctx, sub.ID)
	if err != nil {
		return IngestRequest{}, fmt.Errorf("load creation: %w", err)
	}
	if creation != nil {
		artist = firstNonEmpty(creation.Artist, artist)
		title = firstNonEmpty(creation.Title, title)
		release = firstNonEmpty(creation.Release, release)
	}
	return IngestRequest{
		TrackID: TrackIDFromName(name),
		Code:    code.Code,
		Artist:  orUnknown(artist),
		Release: orUnknown(release),
		Track:   orUnknown(title),
		Length:  sub.Length / 1000,
		CodeVer: code.Version,
	}, nil
}

func (d *Detector) appendLog(ctx context.Context, logger *slog.Logger, sub *content.Submission, version string) {
	identity, err := d.repo.ResolveIdentity(ctx, d.identity)
	if err != nil || identity == nil {
		attrs := []logging.Attr{
			logging.String("identity", d.identity),
			logging.String(logging.FieldErrorHint, "create the acting identity in the repository"),
			logging.String(logging.FieldImpact, "fingerprint log entry not written"),
		}
		if err != nil {
			attrs = append(attrs, logging.Error(err))
		}
		logging.WarnWithContext(logger, "acting identity unavailable", "identity_unresolved", attrs...)
		return
	}
	entry := &content.FingerprintLogEntry{
		SubmissionID: sub.ID,
		IdentityID:   identity.ID,
		Timestamp:    d.now().UTC(),
		Algorithm:    Algorithm,
		Version:      version,
		Origin:       Origin,
	}
	if err := d.repo.AppendFingerprintLog(ctx, entry); err != nil {
		logging.WarnWithContext(logger, "failed to append fingerprint log", "fingerprint_log_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "fingerprint log entry not written"),
		)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func orUnknown(value string) string {
	if strings.TrimSpace(value) == "" {
		return UnknownMetadata
	}
	return value
}
