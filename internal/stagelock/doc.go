// Package stagelock provides the per-file advisory locks that keep concurrent
// workers from processing the same payload.
//
// A lock lives next to its payload as "<payload>.lock" and exists only while a
// stage runs. Locks are flock(2) based, so they also exclude separate
// descriptors within one process. A lock file orphaned by a crashed worker is
// not reclaimed; the next holder simply locks the existing file.
package stagelock
