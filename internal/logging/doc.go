// Package logging assembles structured slog loggers and formatting helpers used
// across repro.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log lines
// with the stage, submission UUID, owner, and worker hostname. Records always
// reach repro.log as JSON when a log directory is configured, independent of the
// console format.
package logging
