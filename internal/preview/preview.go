package preview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"repro/internal/audio"
	"repro/internal/content"
	"repro/internal/logging"
)

const (
	// MinSampleRate is the lowest accepted source sample rate in Hz.
	MinSampleRate = 11025
	// MinSampleWidth is the lowest accepted source sample width in bits.
	MinSampleWidth = 8
)

// Synthesizer builds previews and excerpts from decoded audio.
type Synthesizer struct {
	codec   audio.Codec
	preview audio.Output
	excerpt audio.Output
	logger  *slog.Logger
}

// NewSynthesizer wires the codec and output targets.
func NewSynthesizer(codec audio.Codec, previewOut, excerptOut audio.Output, logger *slog.Logger) *Synthesizer {
	return &Synthesizer{
		codec:   codec,
		preview: previewOut,
		excerpt: excerptOut,
		logger:  logging.NewComponentLogger(logger, "preview"),
	}
}

// Assemble joins the preview segments of buf with crossfades and fades both ends.
func Assemble(buf *audio.Buffer) (*audio.Buffer, int, error) {
	it := Segments(buf.Mono())
	var (
		result *audio.Buffer
		count  int
	)
	for seg, ok := it.Next(); ok; seg, ok = it.Next() {
		count++
		if result == nil {
			result = seg.Audio
			continue
		}
		joined, err := result.AppendCrossfade(seg.Audio, CrossfadeMs)
		if err != nil {
			return nil, 0, err
		}
		result = joined
	}
	if result == nil {
		return nil, 0, errors.New("preview: no segments produced")
	}
	result.FadeIn(FadeMs)
	result.FadeOut(FadeMs)
	return result, count, nil
}

// Preview writes the preview of buf to target.
func (s *Synthesizer) Preview(ctx context.Context, buf *audio.Buffer, target string) error {
	assembled, count, err := Assemble(buf)
	if err != nil {
		return err
	}
	if err := s.codec.Encode(ctx, assembled, target, s.preview); err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := requireFile(target); err != nil {
		return fmt.Errorf("preview: %w", err)
	}
	logging.WithContext(ctx, s.logger).Debug("preview written",
		logging.String(logging.FieldPath, target),
		logging.Int("segments", count),
		logging.Int64("duration_ms", assembled.DurationMs()),
	)
	return nil
}

// Excerpt writes the centered excerpt of buf to target.
func (s *Synthesizer) Excerpt(ctx context.Context, buf *audio.Buffer, target string) error {
	mono := buf.Mono()
	excerpt := mono
	if start, end, windowed := ExcerptWindow(mono.DurationMs()); windowed {
		excerpt = mono.Slice(start, end)
	}
	if err := s.codec.Encode(ctx, excerpt, target, s.excerpt); err != nil {
		return fmt.Errorf("encode excerpt: %w", err)
	}
	if err := requireFile(target); err != nil {
		return fmt.Errorf("excerpt: %w", err)
	}
	logging.WithContext(ctx, s.logger).Debug("excerpt written",
		logging.String(logging.FieldPath, target),
		logging.Int64("duration_ms", excerpt.DurationMs()),
	)
	return nil
}

// QualityGate rejects sources below the minimum sample rate or width.
func QualityGate(info audio.Info) error {
	var problems []string
	if info.SampleRate < MinSampleRate {
		problems = append(problems, fmt.Sprintf("sample rate %d Hz is below %d Hz", info.SampleRate, MinSampleRate))
	}
	if info.SampleWidth < MinSampleWidth {
		problems = append(problems, fmt.Sprintf("sample width %d bits is below %d bits", info.SampleWidth, MinSampleWidth))
	}
	if len(problems) == 0 {
		return nil
	}
	return content.Reject(content.ReasonFormatError, "%s", strings.Join(problems, "; "))
}

// ContentPath returns the content-addressed location of a derived file,
// relative to its root: <u[0]>/<u[1]>/<uuid>.
func ContentPath(uuid string) string {
	if len(uuid) < 2 {
		return uuid
	}
	return filepath.Join(uuid[0:1], uuid[1:2], uuid)
}

func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("output missing: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("output %s is a directory", path)
	}
	return nil
}
