// Package services defines shared utilities consumed by the pipeline stages and
// their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp stage names, submission UUIDs, owners, and the
//     worker hostname for logging.
//   - Structured error markers plus the Wrap helper so callers can tell a
//     missing tool (abort this invocation) from a recoverable failure.
package services
