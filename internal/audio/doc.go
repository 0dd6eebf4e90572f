// Package audio provides the in-memory PCM buffer used by preview synthesis
// and the codec that moves audio between files and buffers.
//
// WAV is read and written natively; other formats go through the ffmpeg and
// ffprobe executables. Sample-rate conversion uses a pure Go resampler so the
// WAV path works without any external tools.
package audio
