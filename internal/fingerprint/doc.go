// Package fingerprint integrates the external code generator and the
// fingerprint matching service.
//
// Generator wraps the codegen executable, Client speaks the matcher's HTTP
// API (query, ingest, delete), and Detector runs the duplicate-detection
// protocol: an excerpt query before ingest, the ingest itself, a second
// excerpt query afterwards and the audit log entry. When both queries point at
// the same similar submission the pre-ingest score is cleared.
//
// Query failures are warnings. A missing code generator aborts the current
// invocation. Ingest failures reject the submission with no_fingerprint.
package fingerprint
