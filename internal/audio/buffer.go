package audio

import (
	"errors"
	"fmt"
)

// Buffer holds decoded PCM as normalized float samples, one slice per channel.
type Buffer struct {
	SampleRate int
	// SampleWidth is the bit depth of the source the samples came from.
	SampleWidth int
	Samples     [][]float64
}

// NewBuffer allocates a silent buffer.
func NewBuffer(rate, width, channels, frames int) *Buffer {
	samples := make([][]float64, channels)
	for i := range samples {
		samples[i] = make([]float64, frames)
	}
	return &Buffer{SampleRate: rate, SampleWidth: width, Samples: samples}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Samples)
}

// Frames returns the number of sample frames.
func (b *Buffer) Frames() int {
	if len(b.Samples) == 0 {
		return 0
	}
	return len(b.Samples[0])
}

// DurationMs returns the length in whole milliseconds.
func (b *Buffer) DurationMs() int64 {
	if b.SampleRate <= 0 {
		return 0
	}
	return int64(b.Frames()) * 1000 / int64(b.SampleRate)
}

// frameAt converts a millisecond offset into a clamped frame index.
func (b *Buffer) frameAt(ms int64) int {
	if ms <= 0 {
		return 0
	}
	frame := ms * int64(b.SampleRate) / 1000
	if frame > int64(b.Frames()) {
		return b.Frames()
	}
	return int(frame)
}

// Mono averages all channels into one. A mono buffer is returned as a copy.
func (b *Buffer) Mono() *Buffer {
	frames := b.Frames()
	out := NewBuffer(b.SampleRate, b.SampleWidth, 1, frames)
	channels := b.Channels()
	if channels == 0 {
		return out
	}
	for i := 0; i < frames; i++ {
		var sum float64
		for _, ch := range b.Samples {
			sum += ch[i]
		}
		out.Samples[0][i] = sum / float64(channels)
	}
	return out
}

// Slice copies the window [startMs, endMs), clamped to the buffer.
func (b *Buffer) Slice(startMs, endMs int64) *Buffer {
	start, end := b.frameAt(startMs), b.frameAt(endMs)
	if end < start {
		end = start
	}
	out := &Buffer{SampleRate: b.SampleRate, SampleWidth: b.SampleWidth, Samples: make([][]float64, b.Channels())}
	for i, ch := range b.Samples {
		out.Samples[i] = append([]float64(nil), ch[start:end]...)
	}
	return out
}

// AppendCrossfade returns b followed by next, overlapping the last ms of b
// with the first ms of next. The overlap shrinks to fit the shorter buffer.
func (b *Buffer) AppendCrossfade(next *Buffer, ms int64) (*Buffer, error) {
	if next == nil {
		return nil, errors.New("crossfade: nil buffer")
	}
	if b.SampleRate != next.SampleRate || b.Channels() != next.Channels() {
		return nil, fmt.Errorf("crossfade: format mismatch %d Hz/%d ch vs %d Hz/%d ch",
			b.SampleRate, b.Channels(), next.SampleRate, next.Channels())
	}
	overlap := b.frameAt(ms)
	if overlap > next.Frames() {
		overlap = next.Frames()
	}
	head := b.Frames() - overlap

	out := &Buffer{SampleRate: b.SampleRate, SampleWidth: b.SampleWidth, Samples: make([][]float64, b.Channels())}
	for c := range b.Samples {
		merged := make([]float64, 0, b.Frames()+next.Frames()-overlap)
		merged = append(merged, b.Samples[c][:head]...)
		for i := 0; i < overlap; i++ {
			gain := float64(i) / float64(overlap)
			merged = append(merged, b.Samples[c][head+i]*(1-gain)+next.Samples[c][i]*gain)
		}
		merged = append(merged, next.Samples[c][overlap:]...)
		out.Samples[c] = merged
	}
	return out, nil
}

// FadeIn ramps the first ms linearly up from silence, in place.
func (b *Buffer) FadeIn(ms int64) {
	n := b.frameAt(ms)
	for _, ch := range b.Samples {
		for i := 0; i < n; i++ {
			ch[i] *= float64(i) / float64(n)
		}
	}
}

// FadeOut ramps the last ms linearly down to silence, in place.
func (b *Buffer) FadeOut(ms int64) {
	n := b.frameAt(ms)
	frames := b.Frames()
	for _, ch := range b.Samples {
		for i := 0; i < n; i++ {
			ch[frames-n+i] *= float64(n-1-i) / float64(n)
		}
	}
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	out := &Buffer{SampleRate: b.SampleRate, SampleWidth: b.SampleWidth, Samples: make([][]float64, b.Channels())}
	for i, ch := range b.Samples {
		out.Samples[i] = append([]float64(nil), ch...)
	}
	return out
}
