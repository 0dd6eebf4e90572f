package audio

import (
	"fmt"

	resampling "github.com/tphakala/go-audio-resampling"
)

// Resample converts b to rate. A buffer already at rate is returned as a copy.
func Resample(b *Buffer, rate int) (*Buffer, error) {
	if rate <= 0 {
		return nil, fmt.Errorf("resample: invalid target rate %d", rate)
	}
	if b.SampleRate == rate || b.Frames() == 0 {
		out := b.Clone()
		out.SampleRate = rate
		return out, nil
	}

	channels := b.Channels()
	resampler, err := resampling.New(&resampling.Config{
		InputRate:  float64(b.SampleRate),
		OutputRate: float64(rate),
		Channels:   channels,
		Quality:    resampling.QualitySpec{Preset: resampling.QualityHigh},
	})
	if err != nil {
		return nil, fmt.Errorf("create resampler: %w", err)
	}

	frames := b.Frames()
	interleaved := make([]float64, frames*channels)
	for i := 0; i < frames; i++ {
		for c := 0; c < channels; c++ {
			interleaved[i*channels+c] = b.Samples[c][i]
		}
	}
	output, err := resampler.Process(interleaved)
	if err != nil {
		return nil, fmt.Errorf("resample %d -> %d Hz: %w", b.SampleRate, rate, err)
	}

	outFrames := len(output) / channels
	out := NewBuffer(rate, b.SampleWidth, channels, outFrames)
	for i := 0; i < outFrames; i++ {
		for c := 0; c < channels; c++ {
			out.Samples[c][i] = output[i*channels+c]
		}
	}
	return out, nil
}
