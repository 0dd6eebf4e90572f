// Package scanner discovers payloads waiting in a stage directory and claims
// them one at a time for a stage function.
//
// Only files exactly two levels below the source directory
// (source/<owner>/<uuid>) whose names are canonical UUIDv4 strings are
// considered. Each claim holds a stagelock lease for the duration of the stage
// function and releases it on every exit path. Per-payload failures are logged
// and counted; they never end the pass.
package scanner
