// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: audio stream properties (rate, channels, sample format, tags)
//   - Format: container-level metadata (duration, size, tags)
//
// Inspect executes ffprobe and returns the parsed Result. Stream.BitDepth
// reduces the various width fields ffprobe reports to a single bit count.
package ffprobe
