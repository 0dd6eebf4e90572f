// Package preview derives the listening preview and the fingerprint excerpt
// of a submission.
//
// A preview strings together 8 second windows taken every 62 seconds,
// crossfaded into each other and faded at both ends. An excerpt is the
// centered minute of the recording, or the whole recording when shorter.
// QualityGate turns sources below 11025 Hz or 8 bits into a format_error
// rejection.
package preview
