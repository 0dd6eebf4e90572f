package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func rampBuffer(rate, channels, frames int) *Buffer {
	buf := NewBuffer(rate, 16, channels, frames)
	for c := 0; c < channels; c++ {
		for i := 0; i < frames; i++ {
			buf.Samples[c][i] = float64(c+1) * 0.1
		}
	}
	return buf
}

func TestMonoAveragesChannels(t *testing.T) {
	buf := rampBuffer(1000, 2, 10)
	mono := buf.Mono()
	if mono.Channels() != 1 || mono.Frames() != 10 {
		t.Fatalf("unexpected mono shape %d ch / %d frames", mono.Channels(), mono.Frames())
	}
	if math.Abs(mono.Samples[0][0]-0.15) > 1e-9 {
		t.Fatalf("expected average 0.15, got %v", mono.Samples[0][0])
	}
}

func TestSliceClampsAndCopies(t *testing.T) {
	buf := rampBuffer(1000, 1, 100)
	part := buf.Slice(10, 500)
	if part.Frames() != 90 {
		t.Fatalf("expected 90 frames, got %d", part.Frames())
	}
	part.Samples[0][0] = 9
	if buf.Samples[0][10] == 9 {
		t.Fatal("slice must not alias the source")
	}
	if buf.DurationMs() != 100 {
		t.Fatalf("expected 100ms, got %d", buf.DurationMs())
	}
}

func TestAppendCrossfadeOverlaps(t *testing.T) {
	a := NewBuffer(1000, 16, 1, 100)
	b := NewBuffer(1000, 16, 1, 100)
	for i := range b.Samples[0] {
		a.Samples[0][i] = 1
		b.Samples[0][i] = 0
	}
	out, err := a.AppendCrossfade(b, 20)
	if err != nil {
		t.Fatalf("crossfade: %v", err)
	}
	if out.Frames() != 180 {
		t.Fatalf("expected 180 frames, got %d", out.Frames())
	}
	if out.Samples[0][79] != 1 || out.Samples[0][80] != 1 {
		t.Fatalf("overlap must start at full level, got %v %v", out.Samples[0][79], out.Samples[0][80])
	}
	if out.Samples[0][99] >= 0.1 || out.Samples[0][100] != 0 {
		t.Fatalf("overlap must end near silence, got %v %v", out.Samples[0][99], out.Samples[0][100])
	}

	if _, err := a.AppendCrossfade(NewBuffer(2000, 16, 1, 10), 20); err == nil {
		t.Fatal("expected rate mismatch error")
	}
}

func TestFades(t *testing.T) {
	buf := NewBuffer(1000, 16, 1, 100)
	for i := range buf.Samples[0] {
		buf.Samples[0][i] = 1
	}
	buf.FadeIn(10)
	buf.FadeOut(10)
	if buf.Samples[0][0] != 0 || buf.Samples[0][99] != 0 {
		t.Fatalf("expected silent edges, got %v and %v", buf.Samples[0][0], buf.Samples[0][99])
	}
	if buf.Samples[0][50] != 1 {
		t.Fatalf("middle must be untouched, got %v", buf.Samples[0][50])
	}
}

func TestWAVRoundTripPreservesShape(t *testing.T) {
	buf := rampBuffer(22050, 2, 2205)
	var out bytes.Buffer
	if err := EncodeWAV(&out, buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !IsWAV(out.Bytes()) {
		t.Fatal("expected RIFF/WAVE header")
	}
	decoded, _, err := DecodeWAV(&out)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.SampleRate != 22050 || decoded.Channels() != 2 || decoded.Frames() != 2205 || decoded.SampleWidth != 16 {
		t.Fatalf("unexpected decoded shape: %d Hz %d ch %d frames %d bits",
			decoded.SampleRate, decoded.Channels(), decoded.Frames(), decoded.SampleWidth)
	}
	if math.Abs(decoded.Samples[1][0]-0.2) > 1e-3 {
		t.Fatalf("unexpected sample value %v", decoded.Samples[1][0])
	}
}

func TestDecodeWAVReadsInfoTagsAndEightBit(t *testing.T) {
	var data bytes.Buffer
	info := []byte("INFO")
	info = append(info, infoEntry("IART", "Artist")...)
	info = append(info, infoEntry("INAM", "Song")...)
	info = append(info, infoEntry("ITRK", "7")...)
	pcm := []byte{128, 255, 0, 128}

	data.WriteString("RIFF")
	putUint32(&data, uint32(4+8+16+8+len(info)+8+len(pcm)))
	data.WriteString("WAVE")
	data.WriteString("fmt ")
	putUint32(&data, 16)
	putUint16(&data, 1)
	putUint16(&data, 1)
	putUint32(&data, 8000)
	putUint32(&data, 8000)
	putUint16(&data, 1)
	putUint16(&data, 8)
	data.WriteString("LIST")
	putUint32(&data, uint32(len(info)))
	data.Write(info)
	data.WriteString("data")
	putUint32(&data, uint32(len(pcm)))
	data.Write(pcm)

	buf, tags, err := DecodeWAV(&data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if buf.SampleRate != 8000 || buf.SampleWidth != 8 || buf.Frames() != 4 {
		t.Fatalf("unexpected buffer %d Hz %d bits %d frames", buf.SampleRate, buf.SampleWidth, buf.Frames())
	}
	if buf.Samples[0][0] != 0 || buf.Samples[0][2] != -1 {
		t.Fatalf("unexpected 8-bit conversion %v", buf.Samples[0])
	}
	if tags.Artist != "Artist" || tags.Title != "Song" || tags.Track != "7" {
		t.Fatalf("unexpected tags %+v", tags)
	}
}

func TestDecodeWAVRejectsOtherData(t *testing.T) {
	if _, _, err := DecodeWAV(bytes.NewReader([]byte("ID3\x03 not a wav file"))); err != ErrNotWAV {
		t.Fatalf("expected ErrNotWAV, got %v", err)
	}
}

func TestCodecWAVPathNeedsNoExternalTools(t *testing.T) {
	dir := t.TempDir()
	source := filepath.Join(dir, "3f2b1c9e-8d4a-4b6e-9f1a-2c3d4e5f6a7b")
	var encoded bytes.Buffer
	if err := EncodeWAV(&encoded, rampBuffer(22050, 1, 22050)); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(source, encoded.Bytes(), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	codec := NewFFmpegCodec(filepath.Join(dir, "missing-ffmpeg"), filepath.Join(dir, "missing-ffprobe"))
	buf, info, err := codec.Decode(context.Background(), source)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.SampleRate != 22050 || info.SampleWidth != 16 || info.DurationMs != 1000 {
		t.Fatalf("unexpected info %+v", info)
	}

	target := filepath.Join(dir, "out", "excerpt")
	if err := codec.Encode(context.Background(), buf, target, Output{Format: "wav", SampleRate: 11025}); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected encoded file: %v", err)
	}
}

func infoEntry(id, value string) []byte {
	var b bytes.Buffer
	payload := append([]byte(value), 0)
	b.WriteString(id)
	putUint32(&b, uint32(len(payload)))
	b.Write(payload)
	if len(payload)%2 == 1 {
		b.WriteByte(0)
	}
	return b.Bytes()
}

func putUint16(b *bytes.Buffer, v uint16) {
	_ = binary.Write(b, binary.LittleEndian, v)
}

func putUint32(b *bytes.Buffer, v uint32) {
	_ = binary.Write(b, binary.LittleEndian, v)
}
