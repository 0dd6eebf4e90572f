// Package worker runs every pipeline stage in a loop with a fixed delay
// between passes. It is the only long-running scheduler; the pipeline itself
// exposes single passes.
package worker
