package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"repro/internal/audio"
	"repro/internal/checksum"
	"repro/internal/config"
	"repro/internal/content"
	"repro/internal/fingerprint"
	"repro/internal/logging"
	"repro/internal/preview"
	"repro/internal/rejection"
	"repro/internal/scanner"
	"repro/internal/services"
)

// Stage names accepted by RunStage, in pipeline order.
const (
	StagePreview     = "preview"
	StageChecksum    = "checksum"
	StageFingerprint = "fingerprint"
	StageDrop        = "drop"
)

// Options wires the collaborators of a Pipeline. Nil collaborators are built
// from Config.
type Options struct {
	Config  *config.Config
	Store   content.Repository
	Codec   audio.Codec
	Codes   fingerprint.CodeSource
	Matcher fingerprint.Matcher
	Locks   scanner.Locker
	Logger  *slog.Logger
}

// Pipeline runs single passes of the submission stages.
type Pipeline struct {
	cfg       *config.Config
	store     content.Repository
	scanner   *scanner.Scanner
	synth     *preview.Synthesizer
	codec     audio.Codec
	checksums *checksum.Engine
	detector  *fingerprint.Detector
	rejecter  *rejection.Handler
	logger    *slog.Logger
	stages    []stage
}

// New builds a pipeline from opts.
func New(opts Options) (*Pipeline, error) {
	if opts.Config == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "config is required", nil)
	}
	if opts.Store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "", "pipeline", "content repository is required", nil)
	}
	cfg := opts.Config
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	codec := opts.Codec
	if codec == nil {
		codec = audio.NewFFmpegCodec(cfg.FFmpegBinary(), cfg.FFprobeBinary())
	}
	codes := opts.Codes
	if codes == nil {
		codes = fingerprint.NewGenerator(cfg.CodegenBinary())
	}
	matcher := opts.Matcher
	if matcher == nil {
		matcher = fingerprint.NewClient(cfg.Echoprint.URL, cfg.Echoprint.Token, cfg.RequestTimeout(), nil)
	}

	p := &Pipeline{
		cfg:   cfg,
		store: opts.Store,
		codec: codec,
		synth: preview.NewSynthesizer(codec,
			audio.Output{Format: cfg.Audio.PreviewFormat, SampleRate: cfg.Audio.PreviewSampleRate, Quality: cfg.Audio.PreviewQuality},
			audio.Output{Format: cfg.Audio.ExcerptFormat, SampleRate: cfg.Audio.ExcerptSampleRate},
			logger),
		scanner:   scanner.New(opts.Locks, logger),
		checksums: checksum.NewEngine(opts.Store, logger),
		detector:  fingerprint.NewDetector(codes, matcher, opts.Store, cfg.Worker.ActingIdentity, logger),
		rejecter:  rejection.NewHandler(opts.Store, cfg.Paths.StorageDir, cfg.RejectedDir(), cfg.Worker.Hostname, logger),
		logger:    logging.NewComponentLogger(logger, "pipeline"),
	}
	p.stages = p.buildStages()
	return p, nil
}

// StageNames lists the runnable stages in pipeline order.
func StageNames() []string {
	return []string{StagePreview, StageChecksum, StageFingerprint, StageDrop}
}

// RunStage performs one scanner pass of the named stage.
func (p *Pipeline) RunStage(ctx context.Context, name string) (scanner.Summary, error) {
	idx := slices.IndexFunc(p.stages, func(s stage) bool { return s.name == name })
	if idx < 0 {
		return scanner.Summary{}, services.Wrap(services.ErrValidation, "", "run stage",
			fmt.Sprintf("unknown stage %q (valid: %v)", name, StageNames()), nil)
	}
	def := p.stages[idx]

	stageCtx := services.WithHostname(services.WithStage(ctx, def.name), p.cfg.Worker.Hostname)
	logging.WithContext(stageCtx, p.logger).Debug("stage pass started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("source", def.sourceDir),
		logging.String("destination", def.destDir),
	)
	return p.scanner.Scan(stageCtx, def.sourceDir, def.destDir, func(jobCtx context.Context, job scanner.Job) error {
		return p.execute(jobCtx, def, job)
	})
}

// allOrder is the pass sequence of RunAll. Preview runs again after the
// slower stages so uploads arriving meanwhile are previewed in the same run.
var allOrder = []string{StagePreview, StageChecksum, StagePreview, StageFingerprint, StageDrop, StagePreview}

// RunAll runs one pass of every stage in pipeline order, interleaved with
// extra preview passes. Summaries of repeated passes are added up. A stage
// whose pass fails is reported and the remaining passes still run;
// cancellation stops at once.
func (p *Pipeline) RunAll(ctx context.Context) (map[string]scanner.Summary, error) {
	summaries := make(map[string]scanner.Summary, len(p.stages))
	var errs []error
	for _, name := range allOrder {
		summary, err := p.RunStage(ctx, name)
		total := summaries[name]
		total.Add(summary)
		summaries[name] = total
		if err != nil {
			if ctx.Err() != nil {
				return summaries, ctx.Err()
			}
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return summaries, errors.Join(errs...)
}

// MarkUnknown resets a submission to the administrative unknown state.
func (p *Pipeline) MarkUnknown(ctx context.Context, uuid string) (*content.Submission, error) {
	sub, err := p.store.Get(ctx, uuid)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, services.Wrap(services.ErrNotFound, "", "mark unknown", uuid, nil)
	}
	previous := sub.State
	sub.State = content.StateUnknown
	if err := p.store.Upsert(ctx, sub); err != nil {
		return nil, fmt.Errorf("persist unknown state: %w", err)
	}
	p.logger.Info("submission marked unknown",
		logging.String(logging.FieldEventType, "marked_unknown"),
		logging.String(logging.FieldSubmission, sub.UUID),
		logging.String("previous_state", string(previous)),
	)
	return sub, nil
}
