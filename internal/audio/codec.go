package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"repro/internal/media/ffprobe"
	"repro/internal/services"
)

// Tags carries descriptive metadata embedded in the source file.
type Tags struct {
	Artist string
	Title  string
	Album  string
	Date   string
	Track  string
}

// Info describes the source stream as stored, before any conversion.
type Info struct {
	SampleRate  int
	Channels    int
	SampleWidth int // bits
	DurationMs  int64
	Tags        Tags
}

// Output selects the encoding of an exported file.
type Output struct {
	Format     string // "wav", "ogg" or "mp3"
	SampleRate int
	Quality    string
}

// Codec decodes submissions and encodes derived audio.
type Codec interface {
	Decode(ctx context.Context, path string) (*Buffer, Info, error)
	Encode(ctx context.Context, buf *Buffer, target string, out Output) error
}

// FFmpegCodec decodes WAV natively and everything else through ffmpeg, and
// encodes WAV natively and compressed formats through ffmpeg.
type FFmpegCodec struct {
	FFmpeg  string
	FFprobe string
}

// NewFFmpegCodec returns a codec using the given executables.
func NewFFmpegCodec(ffmpegBinary, ffprobeBinary string) *FFmpegCodec {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &FFmpegCodec{FFmpeg: ffmpegBinary, FFprobe: ffprobeBinary}
}

// Decode reads path into memory and reports the stored stream parameters.
func (c *FFmpegCodec) Decode(ctx context.Context, path string) (*Buffer, Info, error) {
	header := make([]byte, 12)
	file, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("open audio: %w", err)
	}
	n, _ := io.ReadFull(file, header)
	_ = file.Close()

	if IsWAV(header[:n]) {
		return decodeWAVFile(path)
	}
	return c.decodeWithFFmpeg(ctx, path)
}

func decodeWAVFile(path string) (*Buffer, Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, Info{}, fmt.Errorf("open audio: %w", err)
	}
	defer file.Close()

	buf, tags, err := DecodeWAV(file)
	if err != nil {
		return nil, Info{}, err
	}
	return buf, Info{
		SampleRate:  buf.SampleRate,
		Channels:    buf.Channels(),
		SampleWidth: buf.SampleWidth,
		DurationMs:  buf.DurationMs(),
		Tags:        tags,
	}, nil
}

func (c *FFmpegCodec) decodeWithFFmpeg(ctx context.Context, path string) (*Buffer, Info, error) {
	probe, err := ffprobe.Inspect(ctx, c.FFprobe, path)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, Info{}, services.Wrap(services.ErrToolMissing, "", "ffprobe", c.FFprobe, err)
		}
		return nil, Info{}, services.Wrap(services.ErrExternalTool, "", "ffprobe", "inspect failed", err)
	}
	stream, ok := probe.PrimaryAudioStream()
	if !ok {
		return nil, Info{}, services.Wrap(services.ErrValidation, "", "ffprobe", "no audio stream", nil)
	}

	cmd := exec.CommandContext(ctx, c.FFmpeg, "-v", "error", "-nostdin", "-i", path,
		"-map", fmt.Sprintf("0:%d", stream.Index), "-vn", "-f", "wav", "-c:a", "pcm_s16le", "-")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, Info{}, services.Wrap(services.ErrToolMissing, "", "ffmpeg", c.FFmpeg, err)
		}
		return nil, Info{}, services.Wrap(services.ErrExternalTool, "", "ffmpeg decode", strings.TrimSpace(stderr.String()), err)
	}
	buf, _, err := DecodeWAV(&stdout)
	if err != nil {
		return nil, Info{}, fmt.Errorf("decode ffmpeg output: %w", err)
	}

	info := Info{
		SampleRate:  stream.SampleRateHz(),
		Channels:    stream.Channels,
		SampleWidth: stream.BitDepth(),
		DurationMs:  buf.DurationMs(),
		Tags:        tagsFromProbe(probe, stream),
	}
	if info.SampleRate == 0 {
		info.SampleRate = buf.SampleRate
	}
	if info.Channels == 0 {
		info.Channels = buf.Channels()
	}
	buf.SampleWidth = info.SampleWidth
	return buf, info, nil
}

func tagsFromProbe(probe ffprobe.Result, stream ffprobe.Stream) Tags {
	lookup := func(keys ...string) string {
		for _, key := range keys {
			if v := probe.Tag(key); v != "" {
				return v
			}
			if v := stream.Tag(key); v != "" {
				return v
			}
		}
		return ""
	}
	return Tags{
		Artist: lookup("artist", "album_artist"),
		Title:  lookup("title"),
		Album:  lookup("album"),
		Date:   lookup("date", "year"),
		Track:  lookup("track", "tracknumber"),
	}
}

// Encode resamples buf to out.SampleRate and writes it to target.
func (c *FFmpegCodec) Encode(ctx context.Context, buf *Buffer, target string, out Output) error {
	resampled, err := Resample(buf, out.SampleRate)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	format := strings.ToLower(strings.TrimSpace(out.Format))
	if format == "wav" {
		return writeWAVFile(target, resampled)
	}

	var codecArgs []string
	switch format {
	case "ogg":
		codecArgs = []string{"-c:a", "libvorbis"}
	case "mp3":
		codecArgs = []string{"-c:a", "libmp3lame"}
	default:
		return services.Wrap(services.ErrConfiguration, "", "encode", fmt.Sprintf("unsupported format %q", out.Format), nil)
	}
	if q := strings.TrimSpace(out.Quality); q != "" {
		codecArgs = append(codecArgs, "-q:a", q)
	}

	var wav bytes.Buffer
	if err := EncodeWAV(&wav, resampled); err != nil {
		return err
	}
	args := append([]string{"-v", "error", "-y", "-f", "wav", "-i", "-"}, codecArgs...)
	args = append(args, "-ac", fmt.Sprint(resampled.Channels()), "-f", format, target)
	cmd := exec.CommandContext(ctx, c.FFmpeg, args...)
	cmd.Stdin = &wav
	if output, err := cmd.CombinedOutput(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return services.Wrap(services.ErrToolMissing, "", "ffmpeg", c.FFmpeg, err)
		}
		return services.Wrap(services.ErrExternalTool, "", "ffmpeg encode", strings.TrimSpace(string(output)), err)
	}
	return nil
}

func writeWAVFile(target string, buf *Buffer) error {
	file, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(target), err)
	}
	if err := EncodeWAV(file, buf); err != nil {
		_ = file.Close()
		return fmt.Errorf("write wav: %w", err)
	}
	return file.Close()
}
