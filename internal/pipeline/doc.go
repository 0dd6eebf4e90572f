// Package pipeline drives submissions through the stage directories.
//
// Each stage is a transition between two directories under the storage root:
// preview (uploaded to previewed), checksum (previewed to checksummed),
// fingerprint (checksummed to fingerprinted) and drop (fingerprinted to
// dropped). A pass of one stage is a scanner pass over its source directory.
// For every claimed payload the pipeline resolves the submission record,
// compares its recorded state with the expected predecessor (a mismatch is
// only logged), runs the stage logic, persists the record and finally moves
// the payload with its sidecars. Stage logic that returns a
// *content.Rejection sends the payload to the rejected directory instead.
//
// RunStage and RunAll perform single passes. Looping lives in the worker
// package.
package pipeline
