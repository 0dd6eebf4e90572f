package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"repro/internal/audio"
	"repro/internal/checksum"
	"repro/internal/content"
	"repro/internal/logging"
	"repro/internal/preview"
	"repro/internal/scanner"
	"repro/internal/services"
)

func (p *Pipeline) buildStages() []stage {
	cfg := p.cfg
	return []stage{
		{
			name:      StagePreview,
			sourceDir: cfg.StageDir(cfg.Stages.Uploaded),
			destDir:   cfg.StageDir(cfg.Stages.Previewed),
			done:      content.StatePreviewed,
			expected:  []content.State{content.StateUploaded},
			run:       p.previewStage,
		},
		{
			name:      StageChecksum,
			sourceDir: cfg.StageDir(cfg.Stages.Previewed),
			destDir:   cfg.StageDir(cfg.Stages.Checksummed),
			done:      content.StateChecksummed,
			expected:  []content.State{content.StatePreviewed},
			sheet:     []content.State{content.StateUploaded, content.StatePreviewed},
			run:       p.checksumStage,
		},
		{
			name:      StageFingerprint,
			sourceDir: cfg.StageDir(cfg.Stages.Checksummed),
			destDir:   cfg.StageDir(cfg.Stages.Fingerprinted),
			done:      content.StateFingerprinted,
			expected:  []content.State{content.StateChecksummed},
			run:       p.fingerprintStage,
		},
		{
			name:      StageDrop,
			sourceDir: cfg.StageDir(cfg.Stages.Fingerprinted),
			destDir:   cfg.StageDir(cfg.Stages.Dropped),
			done:      content.StateDropped,
			expected:  []content.State{content.StateFingerprinted},
			sheet:     []content.State{content.StateFingerprinted, content.StateChecksummed},
			run:       func(context.Context, *content.Submission, scanner.Job) error { return nil },
			finish:    p.disembody,
		},
	}
}

func (p *Pipeline) previewRelPath(uuid string) string {
	return filepath.Join(p.cfg.Stages.Previews, preview.ContentPath(uuid))
}

func (p *Pipeline) excerptPath(uuid string) string {
	return filepath.Join(p.cfg.ExcerptsDir(), preview.ContentPath(uuid))
}

// previewStage decodes the payload, records its descriptors, writes preview
// and excerpt, runs the pre-ingest query and finally the quality gate.
func (p *Pipeline) previewStage(ctx context.Context, sub *content.Submission, job scanner.Job) error {
	if !sub.IsAudio() {
		return nil
	}

	buf, info, err := p.codec.Decode(ctx, job.Path())
	if err != nil {
		if services.IsFatalForInvocation(err) || ctx.Err() != nil {
			return err
		}
		return content.Reject(content.ReasonFormatError, "audio could not be decoded: %v", err)
	}
	applyDescriptors(sub, info)

	previewRel := p.previewRelPath(sub.UUID)
	if err := p.synth.Preview(ctx, buf, filepath.Join(p.cfg.Paths.ContentDir, previewRel)); err != nil {
		return services.Wrap(services.ErrExternalTool, StagePreview, "preview", sub.UUID, err)
	}
	sub.PreviewPath = previewRel

	excerpt := p.excerptPath(sub.UUID)
	if err := p.synth.Excerpt(ctx, buf, excerpt); err != nil {
		return services.Wrap(services.ErrExternalTool, StagePreview, "excerpt", sub.UUID, err)
	}

	if err := p.detector.PreIngest(ctx, sub, excerpt); err != nil {
		return err
	}

	if err := preview.QualityGate(info); err != nil {
		if perr := p.store.Upsert(ctx, sub); perr != nil {
			return services.Wrap(services.ErrTransient, StagePreview, "persist descriptors", sub.UUID, perr)
		}
		return err
	}
	return nil
}

func applyDescriptors(sub *content.Submission, info audio.Info) {
	sub.Length = info.DurationMs
	sub.Channels = info.Channels
	sub.SampleRate = info.SampleRate
	sub.SampleWidth = info.SampleWidth

	fill := func(dst *string, value string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = strings.TrimSpace(value)
		}
	}
	fill(&sub.MetadataArtist, info.Tags.Artist)
	fill(&sub.MetadataTitle, info.Tags.Title)
	fill(&sub.MetadataRelease, info.Tags.Album)
	fill(&sub.MetadataReleaseDate, info.Tags.Date)
	fill(&sub.MetadataTrackNumber, info.Tags.Track)
}

// checksumStage hashes the payload, writes the sidecar next to it and
// reconciles the whole-file checksum record.
func (p *Pipeline) checksumStage(ctx context.Context, sub *content.Submission, job scanner.Job) error {
	payload := job.Path()
	sum, err := checksum.Compute(payload)
	if err != nil {
		return services.Wrap(services.ErrTransient, StageChecksum, "hash", sub.UUID, err)
	}
	if _, err := checksum.WriteSidecar(payload, sum); err != nil {
		return services.Wrap(services.ErrTransient, StageChecksum, "sidecar", sub.UUID, err)
	}
	if _, err := p.checksums.Reconcile(ctx, sub, sum); err != nil {
		return services.Wrap(services.ErrTransient, StageChecksum, "reconcile", sub.UUID, err)
	}
	return nil
}

func (p *Pipeline) fingerprintStage(ctx context.Context, sub *content.Submission, job scanner.Job) error {
	if !sub.IsAudio() {
		return nil
	}
	return p.detector.Ingest(ctx, sub, job.Path(), p.excerptPath(sub.UUID))
}

// disembody replaces a dropped payload with its own file name when enabled.
func (p *Pipeline) disembody(ctx context.Context, sub *content.Submission, payload string) error {
	if !p.cfg.Worker.DisembodyDropped {
		return nil
	}
	if err := os.WriteFile(payload, []byte(filepath.Base(payload)), 0o644); err != nil {
		return fmt.Errorf("disembody %s: %w", sub.UUID, err)
	}
	logging.WithContext(ctx, p.logger).Debug("dropped payload disembodied",
		logging.String(logging.FieldPath, payload),
	)
	return nil
}
