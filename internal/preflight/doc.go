// Package preflight provides readiness checks for the filesystem layout,
// external executables and the fingerprint matcher.
//
// These checks run in two contexts:
//   - The worker daemon runs them once at startup and logs every failure.
//   - The CLI "repro status" command renders them as a table.
package preflight
