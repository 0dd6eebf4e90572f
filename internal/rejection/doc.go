// Package rejection moves payloads that fail a stage into the rejected stage
// directory, keeping the owner subdirectory, and records the reason code and
// detail on the submission record.
package rejection
