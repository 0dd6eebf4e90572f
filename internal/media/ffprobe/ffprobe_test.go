package ffprobe

import (
	"math"
	"testing"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_type": "video", "codec_name": "mjpeg"},
    {"index": 1, "codec_type": "audio", "codec_name": "mp3", "sample_rate": "44100",
     "sample_fmt": "fltp", "channels": 2, "bits_per_sample": 0,
     "tags": {"TITLE": "Stream Title"}}
  ],
  "format": {"duration": "181.5", "format_name": "mp3",
             "tags": {"artist": "The Band", "album": "Debut", "track": "3/12"}}
}`

func TestParseAudioStream(t *testing.T) {
	result, err := Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	stream, ok := result.PrimaryAudioStream()
	if !ok {
		t.Fatal("expected an audio stream")
	}
	if stream.Index != 1 || stream.SampleRateHz() != 44100 || stream.Channels != 2 {
		t.Fatalf("unexpected stream %+v", stream)
	}
	if stream.BitDepth() != 32 {
		t.Fatalf("expected fltp to map to 32 bits, got %d", stream.BitDepth())
	}
	if result.Tag("ARTIST") != "The Band" || result.Tag("track") != "3/12" {
		t.Fatalf("unexpected container tags %+v", result.Format.Tags)
	}
	if stream.Tag("title") != "Stream Title" {
		t.Fatalf("expected case-insensitive stream tag lookup")
	}
	if result.DurationSeconds() != 181.5 {
		t.Fatalf("unexpected duration %v", result.DurationSeconds())
	}
}

func TestBitDepthSources(t *testing.T) {
	tests := []struct {
		stream Stream
		want   int
	}{
		{Stream{BitsPerSample: 24}, 24},
		{Stream{BitsPerRawSample: "16", SampleFmt: "s32"}, 16},
		{Stream{SampleFmt: "u8"}, 8},
		{Stream{SampleFmt: "s16p"}, 16},
		{Stream{SampleFmt: "dbl"}, 64},
		{Stream{}, 0},
	}
	for _, tc := range tests {
		if got := tc.stream.BitDepth(); got != tc.want {
			t.Errorf("BitDepth(%+v) = %d, want %d", tc.stream, got, tc.want)
		}
	}
}

func TestInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if !math.IsNaN(result.DurationSeconds()) {
		t.Fatalf("expected duration NaN, got %v", result.DurationSeconds())
	}
	if (Stream{SampleRate: "-1"}).SampleRateHz() != 0 {
		t.Fatal("expected negative rate to read as 0")
	}
	if _, ok := (Result{}).PrimaryAudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
}
